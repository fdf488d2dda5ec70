package cache

import (
	"regexp"
	"sync"
	"time"
)

// entry is an immutable cache record. Entries are replaced wholesale on Set;
// they are never mutated in place.
type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

// Cache is an in-process TTL store. Expiry is evaluated lazily on read and can
// additionally be swept eagerly via Cleanup.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	nowFn   func() time.Time
}

// Option configures a new Cache.
type Option func(*Cache)

// WithClock injects a clock, used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.nowFn = now
		}
	}
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		nowFn:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key for the given TTL. A non-positive TTL stores an
// already-expired entry, which the next read removes.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	now := c.nowFn()
	c.mu.Lock()
	c.entries[key] = entry{value: value, createdAt: now, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

// SetUntilMidnightUTC stores value until the next 00:00:00 UTC strictly after
// now. Daily bars cached this way live for at most one calendar day.
func (c *Cache) SetUntilMidnightUTC(key string, value any) {
	now := c.nowFn()
	c.mu.Lock()
	c.entries[key] = entry{value: value, createdAt: now, expiresAt: NextMidnightUTC(now)}
	c.mu.Unlock()
}

// Get returns the cached value for key. An expired entry is deleted and
// reported as a miss; callers cannot distinguish expiry from absence.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.nowFn().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Has reports whether key holds a live entry.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePattern removes every key matching the regular expression and
// returns how many entries were dropped.
func (c *Cache) InvalidatePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if re.MatchString(key) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Cleanup eagerly sweeps expired entries and returns how many were removed.
func (c *Cache) Cleanup() int {
	now := c.nowFn()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// NextMidnightUTC returns the next 00:00:00 UTC strictly after now.
func NextMidnightUTC(now time.Time) time.Time {
	utc := now.UTC()
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, 1)
}
