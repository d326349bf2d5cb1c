package common

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the shopper address sent to the provider and used for
// rate limiting. Only the connection's remote address is trusted; forwarded
// headers are honoured solely through middleware.RealIP mounted ahead of the
// handlers, which rewrites RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host := strings.TrimSpace(r.RemoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if addr, ok := parseAddr(host); ok {
		return addr
	}
	return host
}

func parseAddr(raw string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
