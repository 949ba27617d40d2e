package cache

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(cfg Config) (*Cache, *fakeClock) {
	c := New(cfg)
	clk := &fakeClock{now: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)}
	c.SetClock(clk.Now)
	return c, clk
}

func TestGet_HitWithinTTLAndUnchangedSource(t *testing.T) {
	c, clk := newTestCache(Config{FastTTL: 10 * time.Second, BaseTTL: 45 * time.Second})
	mod := time.Date(2024, 3, 20, 11, 0, 0, 0, time.UTC)

	c.Set("stats:week", "cached", mod, TierBase)

	clk.Advance(5 * time.Second)
	got, ok := c.Get("stats:week", mod)
	if !ok || got != "cached" {
		t.Fatalf("Get = %v/%v, want cached/true", got, ok)
	}
}

func TestGet_MissAfterTTLExpiry(t *testing.T) {
	c, clk := newTestCache(Config{FastTTL: 10 * time.Second, BaseTTL: 45 * time.Second})
	mod := time.Now()

	c.Set("stats:week", "cached", mod, TierBase)
	clk.Advance(46 * time.Second)

	if _, ok := c.Get("stats:week", mod); ok {
		t.Error("expected miss after base TTL expiry")
	}
}

func TestGet_MissAfterSourceModTimeChange(t *testing.T) {
	c, _ := newTestCache(Config{FastTTL: 10 * time.Second, BaseTTL: 45 * time.Second})
	mod := time.Date(2024, 3, 20, 11, 0, 0, 0, time.UTC)

	c.Set("stats:week", "cached", mod, TierBase)

	if _, ok := c.Get("stats:week", mod.Add(time.Second)); ok {
		t.Error("expected miss when source mtime moved")
	}
	// The stale entry must be gone even for the original mtime now.
	if _, ok := c.Get("stats:week", mod); ok {
		t.Error("stale entry should have been dropped on mismatch")
	}
}

func TestGet_BaseHitPopulatesFast(t *testing.T) {
	c, clk := newTestCache(Config{FastTTL: 10 * time.Second, BaseTTL: 45 * time.Second})
	mod := time.Date(2024, 3, 20, 11, 0, 0, 0, time.UTC)

	c.Set("chart:month", 42, mod, TierBase)

	if _, ok := c.tiers[TierFast]["chart:month"]; ok {
		t.Fatal("fast tier should be empty before first Get")
	}

	if _, ok := c.Get("chart:month", mod); !ok {
		t.Fatal("expected base hit")
	}

	e, ok := c.tiers[TierFast]["chart:month"]
	if !ok {
		t.Fatal("base hit should have populated the fast tier")
	}
	if e.data != 42 {
		t.Errorf("promoted data = %v, want 42", e.data)
	}

	// Promoted copy serves within the fast TTL.
	clk.Advance(9 * time.Second)
	got, ok := c.Get("chart:month", mod)
	if !ok || got != 42 {
		t.Errorf("expected fast-tier hit after promotion, got %v/%v", got, ok)
	}
}

func TestInvalidate_PatternMatchesSubstring(t *testing.T) {
	c, _ := newTestCache(Config{})
	mod := time.Now()

	c.Set("projects:list", 1, mod, TierBase)
	c.Set("logs:/home/u/.claude/projects/alpha", 2, mod, TierBase)
	c.Set("logs:/home/u/.claude/projects/beta", 3, mod, TierFast)
	c.Set("chart:week", 4, mod, TierFast)

	if n := c.Invalidate("projects/alpha"); n != 1 {
		t.Errorf("Invalidate(projects/alpha) removed %d, want 1", n)
	}
	if _, ok := c.Get("logs:/home/u/.claude/projects/alpha", mod); ok {
		t.Error("alpha logs should be gone")
	}
	if _, ok := c.Get("logs:/home/u/.claude/projects/beta", mod); !ok {
		t.Error("beta logs should survive")
	}
	if _, ok := c.Get("chart:week", mod); !ok {
		t.Error("unrelated chart entry should survive")
	}

	if n := c.Invalidate("projects:list"); n != 1 {
		t.Errorf("Invalidate(projects:list) removed %d, want 1", n)
	}
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(Config{})
	mod := time.Now()

	c.Set("a", 1, mod, TierFast)
	c.Set("b", 2, mod, TierBase)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestCapacity_EvictsOldest(t *testing.T) {
	c, _ := newTestCache(Config{Capacity: 3})
	mod := time.Now()

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, mod, TierBase)
	}

	if c.Len() > 3 {
		t.Errorf("Len = %d, want <= 3", c.Len())
	}
	// The most recent insert must survive.
	if _, ok := c.Get("k4", mod); !ok {
		t.Error("newest entry evicted")
	}
	// The oldest must be gone.
	if _, ok := c.Get("k0", mod); ok {
		t.Error("oldest entry should have been evicted")
	}
}

func TestNew_ZeroConfigUsesDefaults(t *testing.T) {
	c := New(Config{})
	if c.cfg.FastTTL != 10*time.Second || c.cfg.BaseTTL != 45*time.Second {
		t.Errorf("TTLs = %v/%v", c.cfg.FastTTL, c.cfg.BaseTTL)
	}
	if c.cfg.Capacity != 256 {
		t.Errorf("Capacity = %d", c.cfg.Capacity)
	}
}
