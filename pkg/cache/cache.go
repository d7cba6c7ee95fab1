package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt int64
}

func (e entry) expired(now int64) bool {
	return e.expiresAt > 0 && now > e.expiresAt
}

// Cache is a thread-safe in-memory key-value store with per-entry expiration.
// It holds derived projections only; anything stored here must be
// reconstructable from the database.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	maxEntries int
	stop       chan struct{}
	stopOnce   sync.Once
}

// New creates a cache with the given default TTL and size bound. A purge
// goroutine removes expired entries every purgeWindow; pass 0 to disable it.
func New(defaultTTL time.Duration, maxEntries int, purgeWindow time.Duration) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}

	if purgeWindow > 0 {
		go c.purgeLoop(purgeWindow)
	}

	return c
}

// Set stores a value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value under key with an explicit TTL. A TTL of zero
// means the entry never expires.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.entries[key] = entry{value: value, expiresAt: expiresAt}
}

// Get returns the value stored under key. The second return value is false
// on a miss or when the entry has expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.entries[key]
	if !found || e.expired(time.Now().UnixNano()) {
		return nil, false
	}
	return e.value, true
}

// Delete removes the entry under key. Deleting a missing key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Flush removes all entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, including not-yet-purged
// expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the purge goroutine.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) purgeLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) purgeExpired() {
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
}

// evictOldestLocked drops the entry closest to expiry. Callers must hold mu.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	first := true
	var oldest int64

	for k, e := range c.entries {
		if first || e.expiresAt < oldest {
			oldestKey = k
			oldest = e.expiresAt
			first = false
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
