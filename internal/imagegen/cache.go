package imagegen

import (
	"sync"
	"time"
)

// Cache holds the most recently rendered card for a short period. A card is
// only reused while its key (typically the dashboard sequence number and
// location) is unchanged.
type Cache struct {
	mu        sync.RWMutex
	key       string
	data      []byte
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns the cached card for key if still valid.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || c.key != key || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.key = key
	c.data = data
	c.expiresAt = c.now().Add(c.ttl)
}
