// Package cache provides a simple in-memory TTL cache. Rollups and bill
// lists are cached per user; writes invalidate the affected keys.
package cache

import (
	"sync"
	"time"
)

type record[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with a fixed TTL.
type InMemory[T any] struct {
	mu      sync.RWMutex
	records map[string]record[T]
	ttl     time.Duration
}

// New creates an in-memory cache with the given TTL and starts a
// background sweep at the same interval.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		records: make(map[string]record[T]),
		ttl:     ttl,
	}
	go c.sweep()
	return c
}

// Get retrieves a value. The second return is false on miss or expiry.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.records[key]
	if !ok || time.Now().After(r.expiresAt) {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Set stores a value under the configured TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[key] = record[T]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes a key.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.records, key)
}

// Flush drops every record.
func (c *InMemory[T]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make(map[string]record[T])
}

// Len reports the number of stored records, expired ones included until
// the next sweep.
func (c *InMemory[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.records)
}

func (c *InMemory[T]) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for k, r := range c.records {
			if now.After(r.expiresAt) {
				delete(c.records, k)
			}
		}
		c.mu.Unlock()
	}
}
