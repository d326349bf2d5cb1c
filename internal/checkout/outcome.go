package checkout

import (
	"net/url"

	"github.com/noah-isme/online-payments/internal/adyen"
)

// Outcome names the result page a completed payment lands on.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
	OutcomeError   Outcome = "error"
)

// OutcomeFor maps a provider result code onto a result page.
func OutcomeFor(resultCode string) Outcome {
	switch resultCode {
	case adyen.ResultAuthorised:
		return OutcomeSuccess
	case adyen.ResultPending, adyen.ResultReceived:
		return OutcomePending
	case adyen.ResultRefused:
		return OutcomeFailed
	default:
		return OutcomeError
	}
}

// ResultPath is the redirect target for a completed payment.
func ResultPath(resultCode string) string {
	return "/result/" + string(OutcomeFor(resultCode)) + "?reason=" + url.QueryEscape(resultCode)
}
