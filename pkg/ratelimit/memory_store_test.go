package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authbridge/pkg/ratelimit"
)

func TestMemoryStoreIncr(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	count, resetAt, err := store.Incr(ctx, "key", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, time.Second)

	count, second, err := store.Incr(ctx, "key", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, resetAt, second, "reset time is fixed for the window")
}

func TestMemoryStoreExpiredWindowRestarts(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Close)
	ctx := context.Background()

	_, _, err := store.Incr(ctx, "key", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	count, _, err := store.Incr(ctx, "key", 10*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "elapsed window starts a fresh count")
}
