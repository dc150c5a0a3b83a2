package memory

import (
	"context"
	"sync"
	"time"

	"github.com/apptrackr/jobcache/internal/core/ports"
)

type entry struct {
	data []byte
	// expiresAt is the zero time for entries stored without a TTL.
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache implements ports.CacheBackend with an in-process map.
// Entries are owned exclusively by this instance and are lost on restart.
// Expired entries are evicted lazily at read time; an optional background
// sweeper bounds memory growth between reads.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]entry
	stop     chan struct{}
	stopOnce sync.Once
}

var _ ports.CacheBackend = (*MemoryCache)(nil)

// NewMemoryCache creates a new in-memory cache. If sweepInterval > 0 a
// background goroutine removes expired entries at that interval; pass 0 to
// rely on lazy eviction alone.
func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

// Get implements CacheBackend.Get. Memory access never fails, so the only
// miss causes are absence and expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set implements CacheBackend.Set. ttl <= 0 stores the entry without expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	e := entry{data: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Delete implements CacheBackend.Delete.
func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Exists implements CacheBackend.Exists. Equivalent to a Get that discards
// the value, including lazy eviction of expired entries.
func (c *MemoryCache) Exists(ctx context.Context, key string) bool {
	_, ok := c.Get(ctx, key)
	return ok
}

// Len returns the number of entries currently held, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stop halts the background sweeper, if one was started.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, e := range c.entries {
				if e.expired(now) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
