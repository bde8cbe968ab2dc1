package cachemanager

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sokol-samples/webpage/internal/log"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// InMemoryCacheManager is a go-cache backed CacheManager.
type InMemoryCacheManager[V any] struct {
	useCase string
	cache   *gocache.Cache
	hits    atomic.Int64
	misses  atomic.Int64
}

var _ CacheManager[string] = (*InMemoryCacheManager[string])(nil)

// NewInMemoryCacheManager creates a cache; useCase labels its log lines.
func NewInMemoryCacheManager[V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[V] {
	return &InMemoryCacheManager[V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get retrieves an item by key. A stored value of the wrong type is a miss.
func (c *InMemoryCacheManager[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V

	value, found := c.cache.Get(key)
	if !found {
		c.misses.Add(1)
		return zero, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "cache", c.useCase, "key", key)
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	log.Debug(log.CatCache, "cache hit", "cache", c.useCase, "key", key)
	return v, true
}

// Set stores value under key for ttl.
func (c *InMemoryCacheManager[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// Delete removes keys.
func (c *InMemoryCacheManager[V]) Delete(_ context.Context, keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
}

// Flush removes every item and resets the counters.
func (c *InMemoryCacheManager[V]) Flush(_ context.Context) {
	c.cache.Flush()
	c.hits.Store(0)
	c.misses.Store(0)
	log.Debug(log.CatCache, "cache flushed", "cache", c.useCase)
}

// Stats returns the hit and miss counts.
func (c *InMemoryCacheManager[V]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
