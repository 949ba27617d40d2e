package refresh

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRecordSnapshotAndDelta(t *testing.T) {
	s := New(Config{Root: "."}, nil)

	first := Snapshot{Entries: 10, Tokens: 1_000, CostUSD: 0.5}
	s.record(first, time.Now())

	s.mu.RLock()
	if len(s.events) != 1 || s.events[0].Type != "snapshot" {
		t.Fatalf("after first record events = %+v, want one snapshot event", s.events)
	}
	s.mu.RUnlock()

	// An unchanged snapshot publishes nothing.
	s.record(first, time.Now())
	s.mu.RLock()
	if len(s.events) != 1 {
		t.Fatalf("unchanged snapshot published an event: %+v", s.events)
	}
	s.mu.RUnlock()

	s.record(Snapshot{Entries: 12, Tokens: 1_500, CostUSD: 0.75}, time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	ev := s.events[1]
	if ev.Type != "usage_delta" {
		t.Fatalf("event type = %q, want usage_delta", ev.Type)
	}
	if ev.Delta.Entries != 2 || ev.Delta.Tokens != 500 || ev.Delta.CostUSD != 0.25 {
		t.Fatalf("delta = %+v, want {2 500 0.25}", ev.Delta)
	}
	if s.refreshCount != 3 {
		t.Fatalf("refresh count = %d, want 3", s.refreshCount)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Root: ".", EventsBuffer: 2}, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestTriggerCoalescesWhileRefreshRuns(t *testing.T) {
	s := New(Config{Root: "."}, nil)

	started := make(chan struct{})
	proceed := make(chan struct{})
	var inflight, runs atomic.Int32
	s.refreshFn = func(string) {
		if inflight.Add(1) > 1 {
			t.Error("more than one refresh in flight")
		}
		runs.Add(1)
		started <- struct{}{}
		<-proceed
		inflight.Add(-1)
	}

	s.Trigger("first")
	<-started

	// Triggers landing mid-refresh all coalesce into a single follow-up.
	for i := 0; i < 5; i++ {
		s.Trigger("burst")
	}
	proceed <- struct{}{}

	<-started
	proceed <- struct{}{}

	// Give any stray extra cycle a chance to start before asserting.
	select {
	case <-started:
		t.Fatal("unexpected third refresh cycle")
	case <-time.After(100 * time.Millisecond):
	}
	if got := runs.Load(); got != 2 {
		t.Fatalf("refresh runs = %d, want 2", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	s := New(Config{Root: "."}, nil)

	if s.cfg.Interval != 30*time.Second {
		t.Errorf("interval = %v, want 30s", s.cfg.Interval)
	}
	if s.cfg.Debounce != 1500*time.Millisecond {
		t.Errorf("debounce = %v, want 1.5s", s.cfg.Debounce)
	}
	if s.cfg.Addr == "" {
		t.Error("expected default addr")
	}
	if s.cfg.EventsBuffer != 200 {
		t.Errorf("events buffer = %d, want 200", s.cfg.EventsBuffer)
	}
}
