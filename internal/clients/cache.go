package clients

import (
	"sync"
	"time"
)

// ttlCache is a mutex-guarded snapshot cache. Entries are never evicted:
// expired entries are kept so they can serve as last-known-good fallbacks
// when the upstream rate-limits us.
type ttlCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	ts      time.Time
	payload any
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

// fresh returns the cached payload if it is within its TTL.
func (c *ttlCache) fresh(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Since(entry.ts) > c.ttl {
		return nil, false
	}
	return entry.payload, true
}

// stale returns the cached payload regardless of age.
func (c *ttlCache) stale(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.payload, true
}

func (c *ttlCache) set(key string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{ts: time.Now(), payload: payload}
}
