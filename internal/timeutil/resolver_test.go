package timeutil

import (
	"testing"
	"time"
)

func TestDateKey_ZoneConversion(t *testing.T) {
	r := NewResolver("UTC")

	ts := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	if got := r.DateKey(ts); got != "2024-01-01" {
		t.Errorf("DateKey = %q, want 2024-01-01", got)
	}

	// Same instant lands on the next day in Tokyo.
	tokyo := NewResolver("Asia/Tokyo")
	if got := tokyo.DateKey(ts); got != "2024-01-02" {
		t.Errorf("Tokyo DateKey = %q, want 2024-01-02", got)
	}
}

func TestDateKey_ZeroPadded(t *testing.T) {
	r := NewResolver("UTC")
	ts := time.Date(2024, 3, 5, 4, 0, 0, 0, time.UTC)
	if got := r.DateKey(ts); got != "2024-03-05" {
		t.Errorf("DateKey = %q, want 2024-03-05", got)
	}
}

func TestDateKey_AcrossDST(t *testing.T) {
	r := NewResolver("America/New_York")

	// US spring-forward 2024: 2024-03-10 02:00 EST -> 03:00 EDT.
	// Both instants below are within the same local calendar day.
	before := time.Date(2024, 3, 10, 6, 30, 0, 0, time.UTC) // 01:30 EST
	after := time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)  // 03:30 EDT

	if r.DateKey(before) != r.DateKey(after) {
		t.Errorf("DST transition split one local day: %q vs %q",
			r.DateKey(before), r.DateKey(after))
	}
	if got := r.DateKey(before); got != "2024-03-10" {
		t.Errorf("DateKey = %q, want 2024-03-10", got)
	}
}

func TestHour(t *testing.T) {
	r := NewResolver("UTC")
	ts := time.Date(2024, 6, 1, 17, 45, 0, 0, time.UTC)
	if got := r.Hour(ts); got != 17 {
		t.Errorf("Hour = %d, want 17", got)
	}

	tokyo := NewResolver("Asia/Tokyo")
	if got := tokyo.Hour(ts); got != 2 { // 17:45 UTC = 02:45 JST next day
		t.Errorf("Tokyo Hour = %d, want 2", got)
	}
}

func TestInvalidZone_FallbackCounted(t *testing.T) {
	r := NewResolver("Not/AZone")
	if !r.Degraded() {
		t.Fatal("expected degraded resolver for invalid zone")
	}

	ts := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	// Fallback treats the timestamp's own wall clock as local.
	if got := r.DateKey(ts); got != "2024-01-01" {
		t.Errorf("fallback DateKey = %q, want 2024-01-01", got)
	}
	if got := r.Hour(ts); got != 23 {
		t.Errorf("fallback Hour = %d, want 23", got)
	}

	if got := r.FallbackCount(); got != 2 {
		t.Errorf("FallbackCount = %d, want 2", got)
	}
}

func TestEmptyZone_UsesSystemZone(t *testing.T) {
	r := NewResolver("")
	if r.Degraded() {
		t.Fatal("empty zone should use the system zone, not the fallback")
	}
	if r.Location() != time.Local {
		t.Errorf("Location = %v, want time.Local", r.Location())
	}
	if r.FallbackCount() != 0 {
		t.Error("system-zone resolver should not count fallbacks")
	}
}

func TestMonthKey(t *testing.T) {
	r := NewResolver("UTC")
	ts := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	if got := r.MonthKey(ts); got != "2024-12" {
		t.Errorf("MonthKey = %q, want 2024-12", got)
	}
}
