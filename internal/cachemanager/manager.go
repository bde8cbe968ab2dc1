// Package cachemanager caches values that are expensive to reload during a
// single command, such as page templates read once per sample and variant.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a string-keyed cache of V.
type CacheManager[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Flush(ctx context.Context)
	Stats() Stats
}

// Stats counts lookups since creation or the last Flush.
type Stats struct {
	Hits   int64
	Misses int64
}
