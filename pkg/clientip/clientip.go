package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Resolver picks the address used for rate limiting and logging.
type Resolver func(r *http.Request) string

// New returns ForwardedClientIP when the service sits behind a trusted proxy
// and RealClientIP otherwise.
func New(trustProxy bool) Resolver {
	if trustProxy {
		return ForwardedClientIP
	}
	return RealClientIP
}

// RealClientIP returns the client IP from r.RemoteAddr only. Use it when
// traffic reaches the app directly, since proxy headers can be forged.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// ForwardedClientIP trusts the left-most X-Forwarded-For hop, then X-Real-IP.
func ForwardedClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return RealClientIP(r)
}
