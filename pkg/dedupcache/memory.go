package dedupcache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the in-process fallback used when Valkey is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time // key -> expiry
	stopCh  chan struct{}
	once    sync.Once
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *MemoryCache) Seen(_ context.Context, key string) bool {
	c.mu.RLock()
	expiry, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && time.Now().Before(expiry)
}

func (c *MemoryCache) Mark(_ context.Context, key string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = time.Now().Add(ttl)
	c.mu.Unlock()
}

func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}

func (c *MemoryCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, expiry := range c.entries {
				if now.After(expiry) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
