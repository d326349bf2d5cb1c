package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/online-payments/internal/common"
)

// Allower decides whether another event for key fits within max per window.
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// ClientKey keys requests by path and client IP, so each checkout endpoint
// has its own budget per shopper.
func ClientKey(r *http.Request) string {
	return r.URL.Path + "|" + common.ClientIP(r)
}

// Handler enforces a limit before delegating to the next handler. Limiter
// failures are reported to OnError and the request proceeds.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
	Now     func() time.Time
}

func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Config.Key == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", strconv.Itoa(max(h.Config.Max, 0)))
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		hdr.Set("Retry-After", strconv.Itoa(h.retryAfter(resetAt)))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
	})
}

// retryAfter rounds up to whole seconds, never below one.
func (h Handler) retryAfter(resetAt time.Time) int {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	return max(secs, 1)
}
