package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

var noop = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

func TestHeaders(t *testing.T) {
	cases := []struct {
		name     string
		headers  Headers
		tls      bool
		proto    string
		wantHSTS string
		wantCSP  string
	}{
		{
			name:     "tls with hsts",
			headers:  Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600, HSTSIncludeSubdomains: true},
			tls:      true,
			wantHSTS: "max-age=600; includeSubDomains",
		},
		{
			name:     "behind tls proxy",
			headers:  Headers{Enable: true, EnableHSTS: true},
			proto:    "https",
			wantHSTS: "max-age=31536000",
		},
		{
			name:    "plain http gets no hsts",
			headers: Headers{Enable: true, EnableHSTS: true, ContentSecurityPolicy: CheckoutCSP},
			wantCSP: CheckoutCSP,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/checkout?type=dropin", nil)
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			rr := httptest.NewRecorder()
			tc.headers.Middleware(noop).ServeHTTP(rr, req)

			require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
			require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
			require.Equal(t, tc.wantHSTS, rr.Header().Get("Strict-Transport-Security"))
			require.Equal(t, tc.wantCSP, rr.Header().Get("Content-Security-Policy"))
		})
	}
}

func TestHeadersDisabled(t *testing.T) {
	rr := httptest.NewRecorder()
	Headers{EnableHSTS: true}.Middleware(noop).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, rr.Header().Get("X-Content-Type-Options"))
}

func TestCheckoutCSPAllowsDropIn(t *testing.T) {
	require.Contains(t, CheckoutCSP, "script-src 'self' https://checkoutshopper-test.adyen.com")
	require.Contains(t, CheckoutCSP, "frame-ancestors 'none'")
}
