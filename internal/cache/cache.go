// Package cache provides a generic in-memory cache with per-entry TTL
// expiration. Expiry is enforced lazily at read time; there is no
// background sweep and no capacity bound.
package cache

import (
	"sync"
	"time"
)

// entry pairs a value with its expiry instant. Never exposed to callers.
type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache maps string keys to values that expire after a per-entry TTL.
// An expired entry is indistinguishable from an absent one. The mutex
// only guards map access; it never serializes fetch or refresh work, so
// two concurrent misses on the same key may still both go upstream.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	now     func() time.Time
}

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithClock overrides the cache's time source, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) { c.now = now }
}

// New creates an empty cache.
func New[T any](opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Has reports whether key holds a value that has not expired.
func (c *Cache[T]) Has(key string) bool {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && c.now().Before(e.expiresAt)
}

// Get returns the value stored under key. Callers are expected to guard
// with Has; an absent or expired key yields the zero value.
func (c *Cache[T]) Get(key string) T {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		var zero T
		return zero
	}
	return e.value
}

// Set stores value under key, replacing any previous entry along with
// its expiry.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	e := entry[T]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}
