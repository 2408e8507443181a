package dashboard

import (
	"sync"
	"time"
)

// StatsCache is the in-process TTL cache for computed dashboard stats.
// Entries are invalidated by their precise key on writes, never by flushing
// the whole cache.
type StatsCache struct {
	data    map[string]*cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
	hits    int64
	misses  int64
	cleanup *time.Ticker
	done    chan struct{}
}

type cacheEntry struct {
	value      *DashboardStats
	expiration time.Time
}

// NewStatsCache creates a cache with the given freshness window and starts
// its cleanup loop.
func NewStatsCache(ttl time.Duration) *StatsCache {
	cache := &StatsCache{
		data:    make(map[string]*cacheEntry),
		ttl:     ttl,
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go cache.cleanupLoop()
	return cache
}

// Get returns a fresh entry, or (nil, false) when absent or expired.
func (c *StatsCache) Get(key string) (*DashboardStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiration) {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.value, true
}

// Set stores a value under the cache's TTL.
func (c *StatsCache) Set(key string, value *DashboardStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		value:      value,
		expiration: time.Now().Add(c.ttl),
	}
}

// Delete invalidates exactly one key.
func (c *StatsCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Size returns the number of cached entries.
func (c *StatsCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// CacheStats is a snapshot of cache effectiveness.
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns hit/miss counters.
func (c *StatsCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:    len(c.data),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

func (c *StatsCache) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *StatsCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
		}
	}
}

// Stop ends the cleanup loop.
func (c *StatsCache) Stop() {
	c.cleanup.Stop()
	close(c.done)
}
