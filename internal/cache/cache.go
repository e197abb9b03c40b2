// Package cache provides the process-local TTL cache that bounds the
// rate of expensive upstream lookups.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Cache is a TTL key-value cache with per-key in-flight compute
// deduplication: concurrent callers for the same key share a single
// compute and its result. It holds only the last good value; a failed
// compute caches nothing so upstream errors surface as "unknown"
// instead of silently returning stale data.
type Cache struct {
	store *gocache.Cache
	group singleflight.Group
}

// New creates an empty cache. Expired entries are evicted lazily on
// read and swept by the janitor.
func New() *Cache {
	return &Cache{
		store: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// GetOrCompute returns the cached value for key, computing and caching
// it with the given TTL when missing or expired.
func (c *Cache) GetOrCompute(key string, ttl time.Duration, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A waiter may arrive after the winner already stored the value.
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.store.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Flush drops all entries.
func (c *Cache) Flush() {
	c.store.Flush()
}

// GetOrCompute is the typed convenience wrapper around
// Cache.GetOrCompute.
func GetOrCompute[T any](c *Cache, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	v, err := c.GetOrCompute(key, ttl, func() (interface{}, error) {
		return compute()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
