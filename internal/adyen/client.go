package adyen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/online-payments/internal/obs"
)

const maxResponseBytes = 4 << 20

// Doer executes an outbound HTTP request. resilience.HTTPClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the Adyen Checkout API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    Doer
	// UserAgent overrides the default User-Agent header when set.
	UserAgent string
}

// PaymentMethods lists the payment methods available for the request.
func (c *Client) PaymentMethods(ctx context.Context, req PaymentMethodsRequest) (PaymentMethodsResponse, error) {
	var out PaymentMethodsResponse
	err := c.post(ctx, "paymentMethods", "/paymentMethods", req, &out)
	return out, err
}

// Payments starts a payment.
func (c *Client) Payments(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	var out PaymentResponse
	err := c.post(ctx, "payments", "/payments", req, &out)
	return out, err
}

// PaymentsDetails submits additional details for a payment that required an action.
func (c *Client) PaymentsDetails(ctx context.Context, req PaymentDetailsRequest) (PaymentResponse, error) {
	var out PaymentResponse
	err := c.post(ctx, "paymentsDetails", "/payments/details", req, &out)
	return out, err
}

// Sessions creates a checkout session for Drop-in.
func (c *Client) Sessions(ctx context.Context, req SessionRequest) (SessionResponse, error) {
	var out SessionResponse
	err := c.post(ctx, "sessions", "/sessions", req, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, operation, path string, in, out any) (err error) {
	if c == nil || c.HTTP == nil {
		return errors.New("adyen: client not configured")
	}
	ctx, span := otel.Tracer("adyen.Client").Start(ctx, "Adyen."+operation)
	defer span.End()

	start := time.Now()
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("adyen.operation", operation),
			attribute.String("adyen.result", result),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		obs.IncProviderRequest(operation, result)
		if obs.ProviderRequestLatency != nil {
			obs.ProviderRequestLatency.WithLabelValues(operation).Observe(obs.DurationMillis(time.Since(start)))
		}
	}()

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("adyen: encode %s request: %w", operation, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("adyen: build %s request: %w", operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-API-Key", c.APIKey)
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(ctx, httpReq)
	if err != nil {
		return fmt.Errorf("adyen: %s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("adyen: read %s response: %w", operation, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result = "api_error"
		return decodeAPIError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("adyen: decode %s response: %w", operation, err)
	}
	result = "success"
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.ErrorCode == "" {
		apiErr.ErrorCode = "unknown"
		apiErr.Message = http.StatusText(status)
	}
	apiErr.StatusCode = status
	return apiErr
}
