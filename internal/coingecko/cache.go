package coingecko

import (
	"sync"
	"time"
)

const priceTTL = 2 * time.Minute

type cacheEntry struct {
	price     float64
	expiresAt time.Time
}

// priceCache holds resolved USD prices keyed by lowercased asset address.
type priceCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newPriceCache() *priceCache {
	return &priceCache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *priceCache) get(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.price, true
}

func (c *priceCache) set(key string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		price:     price,
		expiresAt: time.Now().Add(priceTTL),
	}
}
