// Package security holds HTTP hardening middleware for the checkout server.
package security

import (
	"net/http"
	"strconv"
	"strings"
)

// Headers adds browser hardening headers to every response.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
}

// CheckoutCSP lets the pages load the Drop-in bundle and render the issuer
// and 3-D Secure frames the provider opens.
var CheckoutCSP = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' " + adyenHosts,
	"style-src 'self' 'unsafe-inline' " + adyenHosts,
	"img-src 'self' data: https:",
	"frame-src https:",
	"connect-src 'self' " + adyenHosts,
	"frame-ancestors 'none'",
}, "; ")

const adyenHosts = "https://checkoutshopper-test.adyen.com https://checkoutshopper-live.adyen.com"

func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	static := http.Header{}
	static.Set("X-Content-Type-Options", "nosniff")
	static.Set("X-Frame-Options", "DENY")
	static.Set("Referrer-Policy", "no-referrer")
	static.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
	if h.ContentSecurityPolicy != "" {
		static.Set("Content-Security-Policy", h.ContentSecurityPolicy)
	}
	hsts := h.hstsValue()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range static {
			dst[k] = v
		}
		if hsts != "" && isHTTPS(r) {
			dst.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hstsValue() string {
	if !h.EnableHSTS {
		return ""
	}
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 31536000
	}
	v := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

// isHTTPS also trusts X-Forwarded-Proto from the TLS-terminating proxy.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
