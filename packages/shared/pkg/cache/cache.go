package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// DataCallback is a function that fetches data for a given key
type DataCallback[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Config holds the configuration for a Cache
type Config struct {
	// TTL is the time-to-live for cache entries
	TTL time.Duration
	// Capacity limits the number of entries, 0 means unlimited
	Capacity uint64
}

// Cache is an explicitly owned read-through cache. Misses for the same key
// are collapsed into a single fetch.
type Cache[K comparable, V any] struct {
	cache  *ttlcache.Cache[K, V]
	group  singleflight.Group
	config Config
}

// NewCache creates a new Cache and starts its expiration loop. Close stops it.
func NewCache[K comparable, V any](config Config) *Cache[K, V] {
	opts := []ttlcache.Option[K, V]{
		ttlcache.WithTTL[K, V](config.TTL),
		ttlcache.WithDisableTouchOnHit[K, V](),
	}
	if config.Capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[K, V](config.Capacity))
	}

	cache := ttlcache.New(opts...)
	go cache.Start()

	return &Cache[K, V]{
		cache:  cache,
		config: config,
	}
}

// Get retrieves a value from the cache by key
func (c *Cache[K, V]) Get(key K) (V, bool) {
	item := c.cache.Get(key)
	if item == nil {
		var zero V

		return zero, false
	}

	return item.Value(), true
}

// Set stores a value in the cache with the default TTL
func (c *Cache[K, V]) Set(key K, value V) {
	c.cache.Set(key, value, ttlcache.DefaultTTL)
}

// Invalidate removes a value from the cache
func (c *Cache[K, V]) Invalidate(key K) {
	c.cache.Delete(key)
}

// GetOrSet retrieves a value from the cache, or fetches it using the callback if not present.
// Errors are not cached.
func (c *Cache[K, V]) GetOrSet(ctx context.Context, key K, dataCallback DataCallback[K, V]) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	result, err, _ := c.group.Do(fmt.Sprint(key), func() (any, error) {
		value, err := dataCallback(ctx, key)
		if err != nil {
			return nil, err
		}

		c.Set(key, value)

		return value, nil
	})
	if err != nil {
		var zero V

		return zero, err
	}

	return result.(V), nil
}

func (c *Cache[K, V]) Len() int {
	return c.cache.Len()
}

func (c *Cache[K, V]) Close(_ context.Context) error {
	c.cache.Stop()

	return nil
}
