package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// MemoryCache is an in-memory LRU cache with a fixed TTL per entry.
//
// Expired entries are removed lazily when they are looked up. When a new key
// is inserted at capacity, the least recently accessed entry is evicted.
type MemoryCache struct {
	mu     sync.Mutex
	lru    *simplelru.LRU[string, *Entry]
	policy Policy
	now    Clock
	stats  Stats
}

// Stats counts cache outcomes since construction.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now as the cache's time source.
func WithClock(clock Clock) MemoryOption {
	return func(c *MemoryCache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache(policy Policy, opts ...MemoryOption) *MemoryCache {
	// simplelru only rejects non-positive sizes, which maxEntries rules out.
	lru, _ := simplelru.NewLRU[string, *Entry](policy.maxEntries(), nil)

	c := &MemoryCache{
		lru:    lru,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a live entry and records the hit. Returns (Entry{}, false) on
// miss or expiry; an expired entry is deleted as a side effect.
func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		c.stats.Misses++
		return Entry{}, false
	}

	now := c.now()
	if entry.Age(now) >= c.policy.TTL {
		c.lru.Remove(key)
		c.stats.Expirations++
		c.stats.Misses++
		return Entry{}, false
	}

	entry.AccessCount++
	entry.LastAccess = now
	c.stats.Hits++
	return entry.snapshot(), true
}

// Peek returns an entry without recording an access or checking expiry.
func (c *MemoryCache) Peek(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Peek(key)
	if !ok {
		return Entry{}, false
	}
	return entry.snapshot(), true
}

// Set stores data under key. It is a no-op when the policy disables caching.
func (c *MemoryCache) Set(_ context.Context, key string, data json.RawMessage) error {
	if !c.policy.ShouldCache() {
		return nil
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := &Entry{
		Data:        bytes.Clone(data),
		Timestamp:   now,
		AccessCount: 1,
		LastAccess:  now,
	}
	if evicted := c.lru.Add(key, entry); evicted {
		c.stats.Evictions++
	}
	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
	return nil
}

// ClearCommand removes the bare command key and every command:args key.
func (c *MemoryCache) ClearCommand(_ context.Context, command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.lru.Keys() {
		if belongsTo(key, command) {
			c.lru.Remove(key)
		}
	}
	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.lru.Purge()
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, including ones not yet found expired.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a copy of the cache counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (e *Entry) snapshot() Entry {
	out := *e
	out.Data = bytes.Clone(e.Data)
	return out
}

var _ Cache = (*MemoryCache)(nil)
