package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/fitcoach-backend/pkg/clientip"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
	headerReferrerPolicy          = "Referrer-Policy"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		w.Header().Set(headerReferrerPolicy, "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost.
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// IPLimiter keeps one token bucket per client IP in process memory. Idle
// buckets are dropped by Cleanup.
type IPLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	message string
	paths   map[string]bool
	ip      clientip.Resolver
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

// NewIPLimiter limits every path. Use ForPaths to restrict it.
func NewIPLimiter(limit rate.Limit, burst int, message string) *IPLimiter {
	return &IPLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   burst,
		ttl:     limiterTTL,
		message: message,
		ip:      clientip.RealClientIP,
	}
}

// GlobalLimiter allows each IP 1 req/s with a burst of 10.
func GlobalLimiter() *IPLimiter {
	return NewIPLimiter(rate.Limit(1), 10, "Too many requests. Please slow down.")
}

// LoginLimiter allows each IP one credential attempt every 5s with a burst of 2.
func LoginLimiter() *IPLimiter {
	return NewIPLimiter(rate.Every(5*time.Second), 2, "Too many login attempts. Please try again later.").
		ForPaths("/api/auth/login", "/api/auth/register", "/api/auth/refresh", "/api/auth/google/callback")
}

func (l *IPLimiter) ForPaths(paths ...string) *IPLimiter {
	l.paths = make(map[string]bool, len(paths))
	for _, p := range paths {
		l.paths[p] = true
	}
	return l
}

// WithResolver changes how the client address is derived.
func (l *IPLimiter) WithResolver(ip clientip.Resolver) *IPLimiter {
	if ip != nil {
		l.ip = ip
	}
	return l
}

func (l *IPLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = now
	return e.limiter
}

// Allow reports whether ip may make another request now.
func (l *IPLimiter) Allow(ip string) bool {
	return l.get(ip, time.Now()).Allow()
}

// Cleanup drops buckets idle for longer than the limiter TTL.
func (l *IPLimiter) Cleanup(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, e := range l.entries {
		if now.Sub(e.lastUse) > l.ttl {
			delete(l.entries, ip)
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps idle buckets until ctx is done.
func (l *IPLimiter) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Cleanup(now)
		}
	}
}

func (l *IPLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.paths != nil && !l.paths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(l.ip(r)) {
			tooManyRequests(w, l.message, time.Second)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → global → login.
func ProductionSecurity(allowedHost string, global, login *IPLimiter) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		global.Handler,
		login.Handler,
	}
}
