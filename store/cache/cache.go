// Package cache provides a small in-memory TTL cache for immutable store
// objects.
package cache

import (
	"sync"
	"time"
)

// Config holds the cache settings.
type Config struct {
	// DefaultTTL is the lifetime of an entry. Zero disables expiry.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept. Zero disables
	// the background janitor (entries still expire lazily on Get).
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; inserting past the bound evicts the
	// entry closest to expiry. Zero means unbounded.
	MaxItems int
	// OnEviction is called for entries removed by the janitor or by size
	// pressure (not on explicit Delete/Clear). May be nil.
	OnEviction func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

func (it item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// Cache is a TTL map with an optional background janitor.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]item
	config Config
	done   chan struct{}
	once   sync.Once
}

// New creates a cache and starts its janitor when a cleanup interval is set.
func New(config Config) *Cache {
	c := &Cache{
		items:  make(map[string]item),
		config: config,
		done:   make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.janitor()
	}
	return c
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || it.expired(time.Now()) {
		return nil, false
	}
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		if _, exists := c.items[key]; !exists {
			c.evictOneLocked()
		}
	}
	c.items[key] = item{value: value, expiresAt: expiresAt}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}

// Len returns the number of entries, including not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor goroutine.
func (c *Cache) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// evictOneLocked removes the entry closest to expiry. Entries without an
// expiry are evicted only when every entry is non-expiring. Caller holds the
// lock.
func (c *Cache) evictOneLocked() {
	var victimKey string
	var victimExpiry time.Time
	first := true
	for key, it := range c.items {
		better := first
		if !better && !it.expiresAt.IsZero() {
			better = victimExpiry.IsZero() || it.expiresAt.Before(victimExpiry)
		}
		if better {
			victimKey = key
			victimExpiry = it.expiresAt
			first = false
		}
	}
	if victimKey == "" {
		return
	}
	victim := c.items[victimKey]
	delete(c.items, victimKey)
	if c.config.OnEviction != nil {
		c.config.OnEviction(victimKey, victim.value)
	}
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	var evicted []struct {
		key   string
		value any
	}

	c.mu.Lock()
	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
			if c.config.OnEviction != nil {
				evicted = append(evicted, struct {
					key   string
					value any
				}{key, it.value})
			}
		}
	}
	c.mu.Unlock()

	for _, e := range evicted {
		c.config.OnEviction(e.key, e.value)
	}
}
