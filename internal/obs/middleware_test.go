package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/online-payments/internal/obs"
)

func TestHTTPMetricsLabelsByRoute(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("checkout", []float64{10, 1}, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/result/{type}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/result/success", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/result/{type}", "204")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))
}

func TestHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("checkout", nil, registry)
	second := obs.NewHTTPMetrics("checkout", nil, registry)
	require.Same(t, first.ReqTotal, second.ReqTotal)
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 50.5}, obs.ParseBucketsCSV(" 5, x, -1, 50.5,"))
	require.Empty(t, obs.ParseBucketsCSV(""))
}

func TestRequestLoggerRedactsRedirectSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Get("/api/handleShopperRedirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/result/success", http.StatusFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/handleShopperRedirect?orderRef=abc&redirectResult=SECRET", nil))
	require.Equal(t, http.StatusFound, rr.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "/api/handleShopperRedirect", entry["route"])
	require.Equal(t, float64(302), entry["status"])
	require.Equal(t, "http_request", entry["message"])
	require.NotContains(t, buf.String(), "SECRET")
	require.Contains(t, entry["query"], "orderRef=abc")
}

func TestRedactQuery(t *testing.T) {
	q := url.Values{"MD": {"md"}, "PaRes": {"pares"}, "type": {"ideal"}}
	out := obs.RedactQuery(q)
	require.Contains(t, out, "MD=REDACTED")
	require.Contains(t, out, "PaRes=REDACTED")
	require.Contains(t, out, "type=ideal")
	require.Equal(t, "md", q.Get("MD"), "input is not modified")
}

func TestWithLoggerAttachesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := obs.WithLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, buf.String(), "inside")
}

func TestTracingPassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(obs.Tracing)
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, "ok", rr.Body.String())
}

func TestDomainMetricHelpersAreSafeBeforeRegistration(t *testing.T) {
	require.NotPanics(t, func() {
		obs.IncProviderRequest("payments", "success")
		obs.IncRedirectOutcome("success")
		obs.IncPaymentDataStore("take", "hit")
		obs.IncWebhookNotification("AUTHORISATION", "accepted")
	})
}
