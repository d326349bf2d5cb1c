// Package health serves liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/online-payments/internal/common"
)

var draining atomic.Bool

// SetReady flips readiness. The API turns it off when it starts draining so
// load balancers stop sending traffic before the listener closes.
func SetReady(v bool) { draining.Store(!v) }

func IsReady() bool { return !draining.Load() }

// Checker tests one dependency. It must honour ctx.
type Checker func(ctx context.Context) error

// Reporter describes a state that is shown in the readiness body but never
// fails it.
type Reporter func() string

// Report is the readiness response body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Info   map[string]string `json:"info,omitempty"`
}

type Handler struct {
	Checks map[string]Checker
	Info   map[string]Reporter
	// Timeout bounds each check; 300ms when zero.
	Timeout time.Duration
}

func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every check concurrently and answers 503 if any fails or the
// process is draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	report := h.Check(r.Context())
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	common.JSON(w, status, report)
}

// Check evaluates readiness without writing a response.
func (h Handler) Check(ctx context.Context) Report {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}

	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.Checks)+1)
		failed = !IsReady()
	)
	if failed {
		checks["server"] = "shutting down"
	}

	var g errgroup.Group
	for name, check := range h.Checks {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			result := "ok"
			if err := check(pctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[name] = result
			if result != "ok" {
				failed = true
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: "ok", Checks: checks}
	if len(h.Info) > 0 {
		report.Info = make(map[string]string, len(h.Info))
		for name, describe := range h.Info {
			report.Info[name] = describe()
		}
	}
	if failed {
		report.Status = "unavailable"
	}
	return report
}
