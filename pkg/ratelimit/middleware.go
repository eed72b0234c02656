package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/authbridge/pkg/clientip"
)

// KeyFunc extracts a rate limit key from the request.
type KeyFunc func(*http.Request) string

// KeyByIPAndPath builds the default per-client-per-endpoint key.
func KeyByIPAndPath(r *http.Request) string {
	return clientip.GetIP(r) + ":" + r.URL.Path
}

// Middleware applies the fixed-window limiter to every request.
//
// Rate-limit headers are set on every limited request; Retry-After only on
// denial. Store or limiter failures fail open — a broken limiter must never
// block traffic, only an actual over-limit does.
func Middleware(limiter *Limiter, keyFunc KeyFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = KeyByIPAndPath
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || !limiter.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), keyFunc(r))
			if err != nil {
				if log != nil {
					log.WarnContext(r.Context(), "rate limiter failed open", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(result.ResetIn()))

			if !result.Allowed {
				retryAfter := result.ResetIn()
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
