package ratelimit

import (
	"context"
	"time"
)

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request fits within the window.
	Allowed bool

	// Limit is the maximum number of requests allowed per window.
	Limit int

	// Remaining is the number of requests left in the current window,
	// floored at zero.
	Remaining int

	// ResetAt is the time when the current window rolls over.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// ResetIn returns the seconds until the window rolls over, floored at zero.
func (r *Result) ResetIn() int {
	secs := int(time.Until(r.ResetAt).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// Store defines the storage backend for fixed-window counters.
// Implementations must increment atomically so concurrent bursts are not
// undercounted.
type Store interface {
	// Incr increments the counter for the key within the current window,
	// creating a fresh window when none exists or the previous one elapsed.
	// Returns the post-increment count and the window reset time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Reset clears the counter for the given key.
	Reset(ctx context.Context, key string) error
}

// Config defines the fixed-window limiter parameters.
type Config struct {
	// Enabled toggles the limiter. When false the middleware passes
	// requests through without headers.
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// Max is the number of requests allowed per window.
	Max int `env:"RATE_LIMIT_MAX" envDefault:"100"`

	// Window is the fixed window duration.
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
}

// DefaultConfig returns the default limiter configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Max:     100,
		Window:  time.Minute,
	}
}
