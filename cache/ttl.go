package cache

import (
	"context"
	"sync"
	"time"
)

// Option configures a TTL cache
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// entry is a stored value with its absolute expiry. A zero expiresAt never expires.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// TTL is a thread-safe key/value store with per-entry expiry.
// Expired entries are purged lazily on read; Sweep can be used to bound memory.
type TTL[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	now     func() time.Time
}

// NewTTL creates an empty TTL cache
func NewTTL[V any](opts ...Option) *TTL[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &TTL[V]{
		entries: make(map[string]entry[V]),
		now:     o.now,
	}
}

// Get returns the value for key if present and not expired.
// A stale entry is removed before returning.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	if e.expired(c.now()) {
		delete(c.entries, key)
		return zero, false
	}

	return e.value, true
}

// Set stores value under key, replacing any existing entry.
// A ttl <= 0 stores the value without expiry.
func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	e := entry[V]{value: value}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
}

// Delete removes key from the cache
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops all entries
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet purged
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were dropped
func (c *TTL[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// RunSweeper calls Sweep every interval until ctx is done
func (c *TTL[V]) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
