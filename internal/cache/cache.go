// Package cache provides a two-tier TTL result cache with modification-time
// invalidation.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Tier selects the TTL class of a cached value. The fast tier absorbs
// rapid repeat queries like period-switch clicks; the base tier absorbs
// the cost of full multi-project scans.
type Tier int

const (
	TierFast Tier = iota
	TierBase
)

// Config holds cache policy.
type Config struct {
	FastTTL  time.Duration
	BaseTTL  time.Duration
	Capacity int
}

// DefaultConfig returns the policy used when the caller supplies zeroes.
func DefaultConfig() Config {
	return Config{
		FastTTL:  10 * time.Second,
		BaseTTL:  45 * time.Second,
		Capacity: 256,
	}
}

type entry struct {
	data          any
	createdAt     time.Time
	sourceModTime time.Time
	seq           uint64
}

// Cache is a keyed store with per-tier TTLs. An entry is valid only while
// it is unexpired AND its recorded source modification time still matches
// the caller-supplied current value; either failing invalidates it.
//
// All mutation goes through Get/Set/Invalidate/Clear; no consumer sees the
// internal maps.
type Cache struct {
	mu      sync.Mutex
	cfg     Config
	tiers   [2]map[string]*entry
	nextSeq uint64
	clock   func() time.Time
}

// New builds a cache. Zero config fields fall back to defaults.
func New(cfg Config) *Cache {
	def := DefaultConfig()
	if cfg.FastTTL <= 0 {
		cfg.FastTTL = def.FastTTL
	}
	if cfg.BaseTTL <= 0 {
		cfg.BaseTTL = def.BaseTTL
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	c := &Cache{cfg: cfg, clock: time.Now}
	c.tiers[TierFast] = make(map[string]*entry)
	c.tiers[TierBase] = make(map[string]*entry)
	return c
}

// SetClock injects a time source for tests.
func (c *Cache) SetClock(clock func() time.Time) {
	c.mu.Lock()
	c.clock = clock
	c.mu.Unlock()
}

func (c *Cache) ttl(tier Tier) time.Duration {
	if tier == TierFast {
		return c.cfg.FastTTL
	}
	return c.cfg.BaseTTL
}

// Get returns the cached data for key if still valid against
// currentSourceModTime. A base-tier hit repopulates the fast tier so an
// immediately following request hits fast.
func (c *Cache) Get(key string, currentSourceModTime time.Time) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()

	if e, ok := c.lookup(TierFast, key, now, currentSourceModTime); ok {
		return e.data, true
	}
	if e, ok := c.lookup(TierBase, key, now, currentSourceModTime); ok {
		c.put(TierFast, key, e.data, e.sourceModTime, now)
		return e.data, true
	}
	return nil, false
}

func (c *Cache) lookup(tier Tier, key string, now time.Time, modTime time.Time) (*entry, bool) {
	e, ok := c.tiers[tier][key]
	if !ok {
		return nil, false
	}
	if now.Sub(e.createdAt) >= c.ttl(tier) || !e.sourceModTime.Equal(modTime) {
		delete(c.tiers[tier], key)
		return nil, false
	}
	return e, true
}

// Set stores data under key in the given tier.
func (c *Cache) Set(key string, data any, sourceModTime time.Time, tier Tier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(tier, key, data, sourceModTime, c.clock())
}

func (c *Cache) put(tier Tier, key string, data any, sourceModTime, now time.Time) {
	c.nextSeq++
	c.tiers[tier][key] = &entry{
		data:          data,
		createdAt:     now,
		sourceModTime: sourceModTime,
		seq:           c.nextSeq,
	}
	c.evictOverCapacity()
}

// evictOverCapacity drops oldest-inserted entries until the total count is
// within the ceiling. Boundedness is the requirement, not exact ordering.
func (c *Cache) evictOverCapacity() {
	for c.tiers[TierFast] != nil && len(c.tiers[TierFast])+len(c.tiers[TierBase]) > c.cfg.Capacity {
		var (
			oldTier Tier
			oldKey  string
			oldSeq  uint64
			found   bool
		)
		for _, tier := range []Tier{TierFast, TierBase} {
			for k, e := range c.tiers[tier] {
				if !found || e.seq < oldSeq {
					found = true
					oldTier, oldKey, oldSeq = tier, k, e.seq
				}
			}
		}
		if !found {
			return
		}
		delete(c.tiers[oldTier], oldKey)
	}
}

// Invalidate removes every entry whose key contains pattern, across both
// tiers, and returns the number removed. This supports targeted flushes
// like a single project's path without discarding unrelated periods.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, tier := range []Tier{TierFast, TierBase} {
		for k := range c.tiers[tier] {
			if strings.Contains(k, pattern) {
				delete(c.tiers[tier], k)
				removed++
			}
		}
	}
	return removed
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers[TierFast] = make(map[string]*entry)
	c.tiers[TierBase] = make(map[string]*entry)
}

// Len returns the total entry count across tiers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tiers[TierFast]) + len(c.tiers[TierBase])
}
