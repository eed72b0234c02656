package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authbridge/pkg/ratelimit"
)

func newLimiter(t *testing.T, max int, window time.Duration) *ratelimit.Limiter {
	t.Helper()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Close)

	limiter, err := ratelimit.New(store, ratelimit.Config{Enabled: true, Max: max, Window: window})
	require.NoError(t, err)
	return limiter
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Close)

	_, err := ratelimit.New(store, ratelimit.Config{Max: 0, Window: time.Minute})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)

	_, err = ratelimit.New(store, ratelimit.Config{Max: 10, Window: 0})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
}

func TestAllowWithinWindow(t *testing.T) {
	t.Parallel()

	limiter := newLimiter(t, 10, time.Minute)
	ctx := context.Background()

	// remaining decreases monotonically 9..0, only the 11th is denied
	for i := 1; i <= 10; i++ {
		result, err := limiter.Allow(ctx, "key")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i)
		assert.Equal(t, 10-i, result.Remaining)
		assert.Equal(t, 10, result.Limit)
	}

	result, err := limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Positive(t, result.RetryAfter())

	// remaining stays floored at zero
	result, err = limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestWindowRollover(t *testing.T) {
	t.Parallel()

	limiter := newLimiter(t, 1, 50*time.Millisecond)
	ctx := context.Background()

	result, err := limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	time.Sleep(60 * time.Millisecond)

	result, err = limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestKeysAreIndependent(t *testing.T) {
	t.Parallel()

	limiter := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	result, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}

func TestReset(t *testing.T) {
	t.Parallel()

	limiter := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "key")
	require.NoError(t, err)

	require.NoError(t, limiter.Reset(ctx, "key"))

	result, err := limiter.Allow(ctx, "key")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestConcurrentIncrements(t *testing.T) {
	t.Parallel()

	const workers = 50
	limiter := newLimiter(t, workers, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	allowed := make(chan bool, workers*2)

	for i := 0; i < workers*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Allow(ctx, "key")
			if err == nil {
				allowed <- result.Allowed
			}
		}()
	}
	wg.Wait()
	close(allowed)

	var allowedCount int
	for ok := range allowed {
		if ok {
			allowedCount++
		}
	}

	// exactly max requests pass under concurrent bursts, no undercounting
	assert.Equal(t, workers, allowedCount)
}
