package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache wraps a loader function with a cache: hits return the
// cached value, misses invoke the loader and store its result.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache CacheManager[K, V]
	fn    func(ctx context.Context, input I) (V, error)
}

// NewReadThroughCache creates a read-through cache over the loader fn.
func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{cache: cache, fn: fn}
}

// Get returns the cached value for key or loads, stores, and returns it.
// skipCache forces a load without touching the stored value's freshness.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration, skipCache bool) (V, error) {
	if skipCache {
		return r.fn(ctx, input)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Invalidate drops the cached value for the given keys.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, keys ...K) {
	r.cache.Delete(ctx, keys...)
}
