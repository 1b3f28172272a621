// Package cachemanager provides a typed in-memory cache with read-through
// support, used to keep remote registry manifests warm between fetches.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the cache contract used by read-through callers.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
}
