package ratelimit

import (
	"context"
	"fmt"
)

// Limiter implements a fixed-window rate limiter on top of a Store.
type Limiter struct {
	store  Store
	config Config
}

// New creates a fixed-window limiter with the given store and configuration.
func New(store Store, config Config) (*Limiter, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Limiter{
		store:  store,
		config: config,
	}, nil
}

// Allow records one request for the key and reports whether it fits within
// the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.config.Window)
	if err != nil {
		return nil, err
	}

	remaining := l.config.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= int64(l.config.Max),
		Limit:     l.config.Max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the window for the given key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}

func (c Config) validate() error {
	if c.Max <= 0 {
		return fmt.Errorf("%w: max must be positive, got %d", ErrInvalidConfig, c.Max)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, c.Window)
	}
	return nil
}
