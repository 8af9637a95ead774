package api

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pepedome/backend/internal/pkg/logger"
)

// RateLimiter throttles an endpoint per client IP using a Redis counter
// with a rolling window. With no Redis client configured, requests pass
// through so a cache outage never blocks signups.
type RateLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

// NewRateLimiter creates a limiter allowing requests per window per IP.
func NewRateLimiter(client *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, requests: requests, window: window}
}

// Middleware enforces the limit, answering 429 when exceeded.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.client == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		key := fmt.Sprintf("pepedome:ratelimit:%s:%s", r.URL.Path, ip)

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			// Redis being down must not block the endpoint.
			logger.Warn("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, rl.window)
		}
		if count > int64(rl.requests) {
			respondError(w, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	// middleware.RealIP has already rewritten RemoteAddr from the
	// forwarding headers when present.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
