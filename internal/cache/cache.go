// Package cache provides a generic fetch-or-get resource cache with
// in-flight request coalescing. Concurrent callers asking for the same
// missing key share a single producer invocation (singleflight); settled
// values are cached and every caller receives an independent copy so that
// later mutation never corrupts the shared entry.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Producer fetches the value for a key from the underlying source.
type Producer[V any] func(ctx context.Context, key string) (V, error)

// Cache maps string keys to values of type V. The zero value is not
// usable; construct with New.
type Cache[V any] struct {
	mu     sync.RWMutex
	values map[string]V
	group  singleflight.Group
	clone  func(V) V
}

// New returns an empty cache. clone must produce an independent deep copy
// of a value; it is applied to every returned value.
func New[V any](clone func(V) V) *Cache[V] {
	return &Cache[V]{
		values: make(map[string]V),
		clone:  clone,
	}
}

// FetchOrGet returns the cached value for key, or invokes produce to fetch
// it. At most one producer invocation runs per key at any time; callers
// arriving while a fetch is in flight wait on it and share its outcome.
// The cache entry is written before the flight settles, so a request
// racing in just after settlement takes the hit path instead of starting
// a second fetch. A failed fetch is not cached: every waiter receives the
// error and the next call retries with a fresh producer invocation.
func (c *Cache[V]) FetchOrGet(ctx context.Context, key string, produce Producer[V]) (V, error) {
	if v, ok := c.lookup(key); ok {
		return c.clone(v), nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: a previous flight for this key may
		// have populated the entry between our lookup and Do.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := produce(ctx, key)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.values[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return c.clone(res.(V)), nil
}

// Peek reports whether key is cached, without triggering a fetch.
func (c *Cache[V]) Peek(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}
