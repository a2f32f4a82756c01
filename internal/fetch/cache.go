package fetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lox/weatherdash/internal/metrics"
	"github.com/lox/weatherdash/internal/models"
)

// Cache keeps successful fetches for a fixed TTL, keyed by the resolved
// coordinates rounded to two decimals (~1km). Free-text queries are mapped
// to a key once they have been resolved. A TTL <= 0 disables caching.
type Cache struct {
	next Interface
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	aliases map[string]string
}

type cacheEntry struct {
	snapshot models.Snapshot
	place    models.Location
	storedAt time.Time
}

func NewCache(next Interface, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
		aliases: make(map[string]string),
	}
}

func (c *Cache) Fetch(ctx context.Context, q Query) (*Result, error) {
	if c.ttl <= 0 {
		return c.next.Fetch(ctx, q)
	}

	if res, ok := c.lookup(q); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return res, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	res, err := c.next.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	c.store(q, res)
	return res, nil
}

func (c *Cache) lookup(q Query) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, ok := c.keyFor(q)
	if !ok {
		return nil, false
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return &Result{
		Snapshot: e.snapshot,
		Location: resolveLocation(q, e.place.Name, e.place.Country, e.place.Lat, e.place.Lon),
		Cached:   true,
	}, true
}

func (c *Cache) store(q Query, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}

	entry := cacheEntry{
		snapshot: res.Snapshot,
		place:    res.Location,
		storedAt: now,
	}
	key := roundKey(res.Location.Lat, res.Location.Lon)
	c.entries[key] = entry

	// The API snaps coordinates to its own grid, so also index by what was
	// asked for.
	if qkey, ok := c.keyFor(q); ok && qkey != key {
		c.entries[qkey] = entry
	} else if !ok {
		c.aliases[aliasKey(q.Text)] = key
	}
}

func (c *Cache) keyFor(q Query) (string, bool) {
	if q.Location != nil {
		return roundKey(q.Location.Lat, q.Location.Lon), true
	}
	if lat, lon, ok := parseCoordinates(q.Text); ok {
		return roundKey(lat, lon), true
	}
	key, ok := c.aliases[aliasKey(q.Text)]
	return key, ok
}

func roundKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func aliasKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// parseCoordinates accepts "lat,lon" text queries.
func parseCoordinates(s string) (lat, lon float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
