package ratelimit

import (
	"sync"
	"time"
)

// TTLCache is an in-memory map whose entries expire after a fixed lifetime.
// It is safe for concurrent use. Expired entries are dropped lazily on access
// and in bulk by Purge.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]ttlItem[V]
	ttl   time.Duration
	clock Clock
}

type ttlItem[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTLCache creates a cache whose entries live for ttl.
func NewTTLCache[K comparable, V any](ttl time.Duration, clock Clock) *TTLCache[K, V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTLCache[K, V]{
		items: make(map[K]ttlItem[V]),
		ttl:   ttl,
		clock: clock,
	}
}

// Get returns the value for key if present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(item.expiresAt) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.expiresAt.Equal(item.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return item.value, true
}

// Set stores value under key, replacing any previous entry and restarting its lifetime.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = ttlItem[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Purge removes every expired entry and returns how many were dropped.
func (c *TTLCache[K, V]) Purge() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len counts entries, including expired ones not yet purged.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
