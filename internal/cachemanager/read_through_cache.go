package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache loads missing values with fn and stores them.
// Failed loads are not cached.
type ReadThroughCache[V any, I any] struct {
	cache CacheManager[V]
	fn    func(ctx context.Context, input I) (V, error)
	ttl   time.Duration
}

// NewReadThroughCache wraps cache with loader fn; values live for ttl.
func NewReadThroughCache[V any, I any](
	cache CacheManager[V],
	fn func(ctx context.Context, input I) (V, error),
	ttl time.Duration,
) *ReadThroughCache[V, I] {
	return &ReadThroughCache[V, I]{
		cache: cache,
		fn:    fn,
		ttl:   ttl,
	}
}

// Get returns the cached value for key, loading it from input on a miss.
func (r *ReadThroughCache[V, I]) Get(ctx context.Context, key string, input I) (V, error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, r.ttl)
	return value, nil
}

// Invalidate drops every cached value.
func (r *ReadThroughCache[V, I]) Invalidate(ctx context.Context) {
	r.cache.Flush(ctx)
}

// Stats exposes the underlying cache counters.
func (r *ReadThroughCache[V, I]) Stats() Stats {
	return r.cache.Stats()
}
