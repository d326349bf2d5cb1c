package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/online-payments/internal/adyen"
	"github.com/noah-isme/online-payments/internal/common"
	"github.com/noah-isme/online-payments/internal/obs"
	"github.com/noah-isme/online-payments/internal/pricing"
)

// Provider is the part of the Checkout API the service depends on.
type Provider interface {
	PaymentMethods(ctx context.Context, req adyen.PaymentMethodsRequest) (adyen.PaymentMethodsResponse, error)
	Payments(ctx context.Context, req adyen.PaymentRequest) (adyen.PaymentResponse, error)
	PaymentsDetails(ctx context.Context, req adyen.PaymentDetailsRequest) (adyen.PaymentResponse, error)
	Sessions(ctx context.Context, req adyen.SessionRequest) (adyen.SessionResponse, error)
}

// Service drives a payment attempt from initiation to completion.
type Service struct {
	Provider Provider
	Store    Store
	Builder  Builder
}

var errNotConfigured = errors.New("checkout service not configured")

// PaymentMethods lists the methods available on the web channel.
func (s *Service) PaymentMethods(ctx context.Context) (adyen.PaymentMethodsResponse, error) {
	if s == nil || s.Provider == nil {
		return adyen.PaymentMethodsResponse{}, errNotConfigured
	}
	return s.Provider.PaymentMethods(ctx, adyen.PaymentMethodsRequest{
		MerchantAccount: s.Builder.MerchantAccount,
		Channel:         adyen.ChannelWeb,
	})
}

// InitiatePayment builds and sends a payment. When the provider asks for a
// shopper action its continuation token is stored under the order reference
// so the redirect can resume the attempt.
func (s *Service) InitiatePayment(ctx context.Context, in PaymentInput, shopperIP string) (adyen.PaymentResponse, error) {
	if s == nil || s.Provider == nil || s.Store == nil {
		return adyen.PaymentResponse{}, errNotConfigured
	}
	req, order, err := s.Builder.BuildPayment(in, shopperIP)
	if err != nil {
		return adyen.PaymentResponse{}, orderError(err)
	}
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("order_ref", order.Reference).
		Str("payment_method_type", order.MethodType).
		Str("currency", order.Amount.Currency).
		Int64("amount", order.Amount.Value).
		Int("line_items", len(order.LineItems)).
		Msg("initiate_payment")

	resp, err := s.Provider.Payments(ctx, req)
	if err != nil {
		return adyen.PaymentResponse{}, err
	}
	if token, ok := resp.ContinuationToken(); ok {
		if err := s.Store.Put(ctx, order.Reference, token); err != nil {
			obs.IncPaymentDataStore("put", "error")
			logger.Error().Err(err).Str("order_ref", order.Reference).Msg("store payment data")
		} else {
			obs.IncPaymentDataStore("put", "ok")
		}
	}
	return resp, nil
}

// SubmitDetails forwards an additional-details payload unchanged.
func (s *Service) SubmitDetails(ctx context.Context, req adyen.PaymentDetailsRequest) (adyen.PaymentResponse, error) {
	if s == nil || s.Provider == nil {
		return adyen.PaymentResponse{}, errNotConfigured
	}
	return s.Provider.PaymentsDetails(ctx, req)
}

// CompleteRedirect resumes the attempt identified by orderRef. A missing or
// unreadable correlation entry is not fatal: details are sent without the
// continuation token.
func (s *Service) CompleteRedirect(ctx context.Context, orderRef string, details map[string]string) (adyen.PaymentResponse, error) {
	if s == nil || s.Provider == nil || s.Store == nil {
		return adyen.PaymentResponse{}, errNotConfigured
	}
	logger := zerolog.Ctx(ctx)
	req := adyen.PaymentDetailsRequest{Details: details}
	if orderRef != "" {
		token, ok, err := s.Store.Take(ctx, orderRef)
		switch {
		case err != nil:
			obs.IncPaymentDataStore("take", "error")
			logger.Warn().Err(err).Str("order_ref", orderRef).Msg("load payment data")
		case !ok:
			obs.IncPaymentDataStore("take", "miss")
			logger.Warn().Str("order_ref", orderRef).Msg("payment data not found")
		default:
			obs.IncPaymentDataStore("take", "hit")
			req.PaymentData = token
		}
	}
	resp, err := s.Provider.PaymentsDetails(ctx, req)
	if err != nil {
		return adyen.PaymentResponse{}, err
	}
	obs.IncRedirectOutcome(string(OutcomeFor(resp.ResultCode)))
	logger.Info().Str("order_ref", orderRef).Str("result_code", resp.ResultCode).Msg("redirect_completed")
	return resp, nil
}

// CreateSession opens a Drop-in session for methodType.
func (s *Service) CreateSession(ctx context.Context, methodType, shopperIP string) (adyen.SessionResponse, error) {
	if s == nil || s.Provider == nil {
		return adyen.SessionResponse{}, errNotConfigured
	}
	req, order, err := s.Builder.BuildSession(methodType, shopperIP)
	if err != nil {
		return adyen.SessionResponse{}, orderError(err)
	}
	zerolog.Ctx(ctx).Info().
		Str("order_ref", order.Reference).
		Str("payment_method_type", methodType).
		Msg("create_session")
	return s.Provider.Sessions(ctx, req)
}

func orderError(err error) error {
	if errors.Is(err, pricing.ErrAmountOutOfRange) {
		return common.NewError(http.StatusBadRequest, "BAD_REQUEST", "order total is out of range", err)
	}
	return err
}
