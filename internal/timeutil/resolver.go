// Package timeutil converts UTC timestamps into zone-local bucket keys.
package timeutil

import (
	"sync/atomic"
	"time"

	"github.com/mveitas/cclens/internal/logger"
)

// Resolver maps UTC instants to date keys and hours in one target zone.
// When the configured zone cannot be loaded it degrades to treating each
// timestamp's own wall clock as already local; that silently changes
// bucketing, so every degraded conversion is counted and the construction
// failure is logged.
type Resolver struct {
	loc       *time.Location
	fallbacks atomic.Int64
}

// NewResolver builds a resolver for an IANA zone name. An empty zone means
// the system zone. An invalid zone yields a fallback resolver.
func NewResolver(zone string) *Resolver {
	if zone == "" {
		return &Resolver{loc: time.Local}
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		logger.Warn("invalid timezone, falling back to timestamp-local bucketing",
			"zone", zone, "err", err)
		return &Resolver{}
	}
	return &Resolver{loc: loc}
}

// Location returns the resolver's zone, or time.Local when degraded.
func (r *Resolver) Location() *time.Location {
	if r.loc == nil {
		return time.Local
	}
	return r.loc
}

// Degraded reports whether the resolver is running on the fallback path.
func (r *Resolver) Degraded() bool {
	return r.loc == nil
}

// FallbackCount returns how many conversions used the fallback path.
func (r *Resolver) FallbackCount() int64 {
	return r.fallbacks.Load()
}

// DateKey returns the zero-padded YYYY-MM-DD key for t's local calendar
// day. All instants within one local day map to the same key, including
// across DST transitions.
func (r *Resolver) DateKey(t time.Time) string {
	return r.localize(t).Format("2006-01-02")
}

// MonthKey returns the YYYY-MM key for t's local calendar month.
func (r *Resolver) MonthKey(t time.Time) string {
	return r.localize(t).Format("2006-01")
}

// Hour returns t's local hour of day, 0-23.
func (r *Resolver) Hour(t time.Time) int {
	return r.localize(t).Hour()
}

// Local returns t converted into the resolver's zone.
func (r *Resolver) Local(t time.Time) time.Time {
	return r.localize(t)
}

func (r *Resolver) localize(t time.Time) time.Time {
	if r.loc == nil {
		// Fallback: take the timestamp's own wall clock as local time.
		r.fallbacks.Add(1)
		return t
	}
	return t.In(r.loc)
}
