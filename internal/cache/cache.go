package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Cache is an in-process TTL key-value store for JSON-serializable payloads.
// Entries are always replaced whole, never updated in place.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Get returns the payload stored under key, or false if absent or expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.payload, true
}

// Set stores payload under key for ttl.
func (c *Cache) Set(key string, payload []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// GetOrSet returns the cached value under key, or runs produce and caches
// its result for ttl. A producer error is returned as-is and nothing is
// cached.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, produce func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if payload, ok := c.Get(key); ok {
		var v T
		if err := json.Unmarshal(payload, &v); err == nil {
			return v, nil
		}
		// Unreadable entry: fall through and replace it.
	}

	v, err := produce(ctx)
	if err != nil {
		return zero, err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("marshaling cache entry %s: %w", key, err)
	}
	c.Set(key, payload, ttl)

	return v, nil
}
