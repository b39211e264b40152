package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address used for rate limit keys. The
// storefront sits behind a trusted reverse proxy, so forwarded headers win
// over the socket peer; values that do not parse as an IP are ignored.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		value := strings.TrimSpace(r.Header.Get(header))
		if value == "" {
			continue
		}
		// X-Forwarded-For lists every hop; the first entry is the client
		if i := strings.IndexByte(value, ','); i >= 0 {
			value = value[:i]
		}
		value = strings.TrimSpace(value)
		if net.ParseIP(value) != nil {
			return value
		}
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
