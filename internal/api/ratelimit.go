package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/freenote/freenote-server/internal/http/response"
	"github.com/freenote/freenote-server/internal/ratelimit"
)

// RateLimitMiddleware creates a middleware that rate limits requests per
// caller: by user ID once authenticated, by client IP otherwise. It must run
// after authMiddleware.
// Returns 429 Too Many Requests when limit is exceeded.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)

			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitKey picks the bucket a request is charged to.
func rateLimitKey(r *http.Request) string {
	if userID, err := GetUserID(r.Context()); err == nil {
		return "user:" + userID
	}
	return "ip:" + clientIP(r)
}

// clientIP returns the request's remote address without its port.
// middleware.RealIP has already applied X-Forwarded-For and X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
