// Package ratelimit implements a fixed-window request limiter keyed by
// client IP and endpoint path.
//
// A Limiter counts requests per key inside a fixed window; when the window
// elapses the counter starts over. Storage is pluggable through the Store
// interface: an in-memory implementation ships for single-process use, and a
// Redis implementation keeps windows consistent across replicas.
//
// The HTTP middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every limited response, and answers over-limit
// requests with 429 plus Retry-After. Limiter failures are logged and fail
// open: only an actual over-limit blocks a request.
//
// # Usage
//
//	store := ratelimit.NewMemoryStore()
//	limiter, _ := ratelimit.New(store, ratelimit.Config{Enabled: true, Max: 10, Window: time.Minute})
//	r.Use(ratelimit.Middleware(limiter, nil, logger))
package ratelimit
