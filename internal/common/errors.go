package common

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// AppError is an error that knows how it should be rendered to API clients.
// Err is kept for logs and errors.Is; it never reaches the response body.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

// NewError builds an AppError. A zero status renders as 500.
func NewError(status int, code, message string, cause error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: cause}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetails attaches client-visible details.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// WriteError renders err in the JSON error envelope. Anything that is not an
// AppError becomes an opaque 500. Server-side failures are logged with their
// cause through the request logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewError(http.StatusInternalServerError, "INTERNAL", "internal error", err)
	}
	status := appErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && r != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("code", appErr.Code).Int("status", status).Msg("request failed")
	}
	JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
}
