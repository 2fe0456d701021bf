package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache[string, int] {
	t.Helper()

	c := NewCache[string, int](Config{TTL: ttl})
	t.Cleanup(func() {
		_ = c.Close(context.Background())
	})

	return c
}

func TestCache_GetOrSet(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, time.Minute)

	var calls atomic.Int32
	fetch := func(_ context.Context, key string) (int, error) {
		calls.Add(1)

		return len(key), nil
	}

	v, err := c.GetOrSet(t.Context(), "abc", fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = c.GetOrSet(t.Context(), "abc", fetch)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, time.Minute)
	errFetch := errors.New("fetch failed")

	_, err := c.GetOrSet(t.Context(), "k", func(context.Context, string) (int, error) {
		return 0, errFetch
	})
	require.ErrorIs(t, err, errFetch)

	v, err := c.GetOrSet(t.Context(), "k", func(context.Context, string) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, time.Minute)
	c.Set("k", 1)
	c.Invalidate("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, 20*time.Millisecond)
	c.Set("k", 1)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")

		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestCache_ConcurrentMissesCollapse(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(_ context.Context, _ string) (int, error) {
		calls.Add(1)
		<-release

		return 42, nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			v, err := c.GetOrSet(t.Context(), "k", fetch)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		})
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}
