package adyen

import (
	"errors"
	"fmt"
)

// APIError is the error payload returned by the Checkout API for non-2xx responses.
type APIError struct {
	StatusCode   int    `json:"status"`
	ErrorCode    string `json:"errorCode"`
	Message      string `json:"message"`
	ErrorType    string `json:"errorType"`
	PSPReference string `json:"pspReference,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("adyen: %d %s (%s): %s", e.StatusCode, e.ErrorCode, e.ErrorType, e.Message)
}

// AsAPIError extracts an APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
