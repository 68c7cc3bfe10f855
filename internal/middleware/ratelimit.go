package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/HammerMeetNail/socialcore/internal/logging"
)

// CounterStore is the subset of Redis the limiter needs.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// RateLimiter is a fixed-window counter per client IP. It fails open when
// the store is unreachable.
type RateLimiter struct {
	store  CounterStore
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRateLimiter(store CounterStore, limit int64, window time.Duration, prefix string) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// NewLoginRateLimiter limits session creation attempts per minute.
func NewLoginRateLimiter(store CounterStore, perMinute int64) *RateLimiter {
	return NewRateLimiter(store, perMinute, time.Minute, "ratelimit:login")
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.store == nil {
			next.ServeHTTP(w, r)
			return
		}

		now := rl.now()
		windowStart := now.Truncate(rl.window)
		resetTime := windowStart.Add(rl.window).Unix()
		key := fmt.Sprintf("%s:%s:%d", rl.prefix, GetClientIP(r), windowStart.Unix())

		count, err := rl.store.Incr(r.Context(), key)
		if err != nil {
			logging.Warn("Rate limiter unavailable", map[string]interface{}{"error": err.Error(), "prefix": rl.prefix})
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := rl.store.Expire(r.Context(), key, rl.window); err != nil {
				logging.Warn("Failed to set rate limit expiry", map[string]interface{}{"error": err.Error(), "key": key})
			}
		}

		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime))

		if count > rl.limit {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", resetTime-now.Unix()))
			writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "rate_limited")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
