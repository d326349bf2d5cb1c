package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/online-payments/internal/web"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	web.Handler{ClientKey: "test_CLIENTKEY", Environment: "TEST"}.Routes(r)
	return r
}

func get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	newRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestIndexListsIntegrations(t *testing.T) {
	rr := get(t, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Body.String(), `/preview?type=dropin`)
	require.Contains(t, rr.Body.String(), `/preview?type=klarna_paynow`)
}

func TestPreviewCarriesTypeToCheckout(t *testing.T) {
	rr := get(t, "/preview?type=ideal")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `href="/checkout?type=ideal"`)
	require.Contains(t, rr.Body.String(), "10.00")
}

func TestCheckoutEmbedsClientKeyAndType(t *testing.T) {
	rr := get(t, "/checkout?type=card")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, `data-type="card"`)
	require.Contains(t, body, `data-client-key="test_CLIENTKEY"`)
	require.Contains(t, body, `data-environment="test"`)
	require.Contains(t, body, "checkoutshopper-test.adyen.com")
}

func TestCheckoutEscapesType(t *testing.T) {
	rr := get(t, "/checkout?type=%22%3E%3Cscript%3E")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotContains(t, rr.Body.String(), `"><script>`)
}

func TestResultPages(t *testing.T) {
	cases := map[string]string{
		"/result/success":                "Payment successful",
		"/result/pending?reason=Pending": "Payment received",
		"/result/failed?reason=Refused":  "Refused",
		"/result/error":                  "Something went wrong",
	}
	for target, want := range cases {
		rr := get(t, target)
		require.Equal(t, http.StatusOK, rr.Code, target)
		require.Contains(t, rr.Body.String(), want, target)
	}
}

func TestResultUnknownOutcome(t *testing.T) {
	rr := get(t, "/result/bogus")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStaticAssets(t *testing.T) {
	rr := get(t, "/static/checkout.js")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "/api/initiatePayment")
}
