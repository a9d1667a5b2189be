package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/AnshRaj112/fitcoach-backend/pkg/clientip"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for per-IP counters
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked once it exceeds the window
	BlockedIPDuration = 15 * time.Minute

	redisOpTimeout = 500 * time.Millisecond
)

// RateLimiter is a fixed-window per-IP counter kept in Redis. An IP that
// exceeds the window is blocked for BlockedIPDuration. Redis failures let the
// request through.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
	log    zerolog.Logger
	ip     clientip.Resolver
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, window time.Duration, max int, log zerolog.Logger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 100
	}
	return &RateLimiter{client: client, window: window, max: max, log: log, ip: clientip.RealClientIP, now: time.Now}
}

// WithResolver changes how the client address is derived.
func (l *RateLimiter) WithResolver(ip clientip.Resolver) *RateLimiter {
	if ip != nil {
		l.ip = ip
	}
	return l
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.client == nil {
			next.ServeHTTP(w, r)
			return
		}
		ip := l.ip(r)

		ctx, cancel := context.WithTimeout(r.Context(), redisOpTimeout)
		defer cancel()

		blocked, err := l.IsBlocked(ctx, ip)
		if err != nil {
			l.log.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if blocked {
			tooManyRequests(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.", BlockedIPDuration)
			return
		}

		key := RateLimitKeyPrefix + ip
		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			l.log.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			// first hit opens the window
			l.client.Expire(ctx, key, l.window)
		}

		if count > int64(l.max) {
			if err := l.client.Set(ctx, BlockedIPKeyPrefix+ip, "1", BlockedIPDuration).Err(); err != nil {
				l.log.Warn().Err(err).Str("ip", ip).Msg("failed to record blocked ip")
			}
			l.log.Info().Str("ip", ip).Int64("count", count).Msg("ip blocked by rate limiter")
			tooManyRequests(w, "Rate limit exceeded. Please try again later.", l.window)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.max)-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(l.now().Add(l.window).Unix(), 10))
		next.ServeHTTP(w, r)
	})
}

// Unblock removes an IP from the blocked list.
func (l *RateLimiter) Unblock(ctx context.Context, ip string) error {
	return l.client.Del(ctx, BlockedIPKeyPrefix+ip, RateLimitKeyPrefix+ip).Err()
}

func (l *RateLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}

func tooManyRequests(w http.ResponseWriter, message string, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"success":false,"code":"rate_limited","message":` + strconv.Quote(message) + `}`))
}
