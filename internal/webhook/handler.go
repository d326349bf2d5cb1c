package webhook

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/online-payments/internal/obs"
)

const (
	bodyAccepted = "[accepted]"
	bodyInvalid  = "[invalid request]"
)

// Handler receives provider notifications. Every item must carry a valid
// signature before any of them is processed; an unacknowledged notification
// is re-delivered by the provider.
type Handler struct {
	Validator *Validator
	Processor Processor
}

func (h Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		obs.IncWebhookNotification("", "invalid")
		writeText(w, http.StatusBadRequest, bodyInvalid)
		return
	}
	notification, err := ParseNotification(body)
	if err != nil {
		obs.IncWebhookNotification("", "invalid")
		logger.Warn().Err(err).Msg("webhook_malformed")
		writeText(w, http.StatusBadRequest, bodyInvalid)
		return
	}
	items := notification.Items()
	for _, item := range items {
		if !h.Validator.Validate(item) {
			obs.IncWebhookNotification(item.EventCode, "invalid_signature")
			logger.Warn().
				Str("psp_reference", item.PSPReference).
				Str("event_code", item.EventCode).
				Msg("webhook_invalid_signature")
			writeText(w, http.StatusBadRequest, bodyInvalid)
			return
		}
	}

	processor := h.Processor
	if processor == nil {
		processor = LogProcessor{}
	}
	for _, item := range items {
		if err := processor.Process(r.Context(), item); err != nil {
			obs.IncWebhookNotification(item.EventCode, "error")
			logger.Error().Err(err).Str("psp_reference", item.PSPReference).Msg("webhook_process")
			writeText(w, http.StatusInternalServerError, "[error]")
			return
		}
		obs.IncWebhookNotification(item.EventCode, "accepted")
	}
	writeText(w, http.StatusAccepted, bodyAccepted)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
