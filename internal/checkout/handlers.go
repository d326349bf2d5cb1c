package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/online-payments/internal/adyen"
	"github.com/noah-isme/online-payments/internal/common"
	"github.com/noah-isme/online-payments/internal/resilience"
)

// Handler exposes the checkout API.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	// Idem guards payment initiation against duplicate submissions when set.
	Idem func(http.Handler) http.Handler
}

// Routes mounts the checkout endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/getPaymentMethods", h.PaymentMethods)
	if h.Idem != nil {
		r.With(h.Idem).Post("/initiatePayment", h.InitiatePayment)
	} else {
		r.Post("/initiatePayment", h.InitiatePayment)
	}
	r.Post("/submitAdditionalDetails", h.SubmitAdditionalDetails)
	r.Get("/handleShopperRedirect", h.RedirectGet)
	r.Post("/handleShopperRedirect", h.RedirectPost)
	r.Post("/sessions", h.Sessions)
}

func (h *Handler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.PaymentMethods(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var payload PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		if errors.Is(err, adyen.ErrMissingMethodType) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "paymentMethod.type is required", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.PaymentMethod.Type == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "paymentMethod.type is required", nil)
		return
	}
	if err := h.validate().Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", validationDetails(err))
		return
	}
	out, err := h.Svc.InitiatePayment(r.Context(), payload, common.ClientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h *Handler) SubmitAdditionalDetails(w http.ResponseWriter, r *http.Request) {
	var payload adyen.PaymentDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if len(payload.Details) == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "details are required", nil)
		return
	}
	out, err := h.Svc.SubmitDetails(r.Context(), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

// RedirectGet completes a redirect that returned the shopper with query
// parameters. Without payload or redirectResult the stored payment data alone
// is submitted.
func (h *Handler) RedirectGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var details map[string]string
	if payload := q.Get("payload"); payload != "" {
		details = map[string]string{"payload": payload}
	} else if result := q.Get("redirectResult"); result != "" {
		details = map[string]string{"redirectResult": result}
	}
	h.completeRedirect(w, r, q.Get("orderRef"), details)
}

// RedirectPost completes a redirect posted back as a form, as issuers do for 3-D Secure 1.
func (h *Handler) RedirectPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid form", nil)
		return
	}
	details := map[string]string{}
	switch {
	case r.PostForm.Get("redirectResult") != "":
		details["redirectResult"] = r.PostForm.Get("redirectResult")
	case r.PostForm.Get("payload") != "":
		details["payload"] = r.PostForm.Get("payload")
	default:
		details["MD"] = r.PostForm.Get("MD")
		details["PaRes"] = r.PostForm.Get("PaRes")
	}
	h.completeRedirect(w, r, r.URL.Query().Get("orderRef"), details)
}

func (h *Handler) completeRedirect(w http.ResponseWriter, r *http.Request, orderRef string, details map[string]string) {
	out, err := h.Svc.CompleteRedirect(r.Context(), strings.TrimSpace(orderRef), details)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, ResultPath(out.ResultCode), http.StatusFound)
}

func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	methodType := strings.TrimSpace(r.URL.Query().Get("type"))
	out, err := h.Svc.CreateSession(r.Context(), methodType, common.ClientIP(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}

func (h *Handler) validate() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return defaultValidate
}

var defaultValidate = validator.New(validator.WithRequiredStructEnabled())

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	common.WriteError(w, r, UpstreamError(err))
}

// UpstreamError translates a provider failure into an API error. Only the
// provider's own error code is exposed to the caller.
func UpstreamError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, errNotConfigured) {
		return common.NewError(http.StatusInternalServerError, "INTERNAL", "checkout service not configured", err)
	}
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return common.NewError(http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "payment provider temporarily unavailable", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewError(http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "payment provider timed out", err)
	}
	if apiErr, ok := adyen.AsAPIError(err); ok {
		return common.NewError(http.StatusBadGateway, "UPSTREAM_ERROR", "payment provider rejected the request", err).
			WithDetails(map[string]string{"providerErrorCode": apiErr.ErrorCode})
	}
	return common.NewError(http.StatusBadGateway, "UPSTREAM_ERROR", "payment provider unreachable", err)
}
