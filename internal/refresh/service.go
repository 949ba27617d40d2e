// Package refresh keeps query results warm while logs change underneath.
// It watches the log root for writes, debounces bursts into single refresh
// cycles, and serves a small local HTTP API with status and live events.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mveitas/cclens/internal/logger"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/query"
)

// Config controls the refresh service runtime behavior.
type Config struct {
	Root         string
	Addr         string
	Interval     time.Duration // fallback poll when watches miss events
	Debounce     time.Duration // quiet window after the last file event
	EventsBuffer int
}

// Snapshot is a compact usage state for status and event payloads.
type Snapshot struct {
	At          time.Time `json:"at"`
	Projects    int       `json:"projects"`
	Entries     int       `json:"entries"`
	Tokens      int64     `json:"tokens"`
	CostUSD     float64   `json:"cost_usd"`
	ActiveHours int       `json:"active_hours"`
	Estimated   bool      `json:"estimated,omitempty"`
}

// Delta captures snapshot deltas between refreshes.
type Delta struct {
	Entries int     `json:"entries"`
	Tokens  int64   `json:"tokens"`
	CostUSD float64 `json:"cost_usd"`
}

func (d Delta) isZero() bool {
	return d.Entries == 0 && d.Tokens == 0 && d.CostUSD == 0
}

// Event is emitted whenever a refresh changes the usage snapshot.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastRefreshAt   time.Time `json:"last_refresh_at"`
	RefreshCount    int64     `json:"refresh_count"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	Root            string    `json:"root"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service runs the watcher, the fallback poller, and the HTTP API.
type Service struct {
	cfg    Config
	engine *query.Engine

	// refreshing guards the single in-flight refresh; pending coalesces
	// triggers that arrive while one is running.
	refreshing atomic.Bool
	pending    atomic.Bool
	refreshFn  func(reason string)

	mu            sync.RWMutex
	startedAt     time.Time
	lastRefreshAt time.Time
	refreshCount  int64
	lastError     string
	hasSnapshot   bool
	snapshot      Snapshot
	nextEventID   int64
	events        []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a refresh service bound to the given engine.
func New(cfg Config, engine *query.Engine) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 1500 * time.Millisecond
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8799"
	}

	s := &Service{
		cfg:       cfg,
		engine:    engine,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	s.refreshFn = s.refreshOnce
	return s
}

// Run starts the HTTP endpoints, the file watcher, and the fallback poll,
// and blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if err := s.startWatcher(watchCtx); err != nil {
		// The poll ticker still refreshes without watches; degrade, don't die.
		logger.Warn("file watcher unavailable, polling only", "err", err)
	}

	// Seed the snapshot so status is useful immediately.
	s.Trigger("startup")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.Trigger("poll")
		case err := <-errCh:
			return fmt.Errorf("refresh http server: %w", err)
		}
	}
}

// Trigger requests a refresh. At most one runs at a time; triggers that
// land during a running refresh coalesce into a single follow-up cycle.
func (s *Service) Trigger(reason string) {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.pending.Store(true)
		return
	}
	go func() {
		for {
			s.refreshFn(reason)
			if !s.pending.CompareAndSwap(true, false) {
				break
			}
			reason = "coalesced"
		}
		s.refreshing.Store(false)

		// A trigger may have slipped in between the pending check and the
		// flag release; pick it up rather than dropping it.
		if s.pending.CompareAndSwap(true, false) {
			s.Trigger("coalesced")
		}
	}()
}

func (s *Service) refreshOnce(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s.engine.Invalidate("projects:")
	s.engine.Invalidate("stats:")
	s.engine.Invalidate("chart:")

	now := time.Now()
	projects, err := s.engine.Projects(ctx)
	if err == nil {
		var summary model.PeriodSummary
		summary, err = s.engine.PeriodStats(ctx, model.PeriodAll)
		if err == nil {
			s.record(Snapshot{
				At:          now,
				Projects:    len(projects),
				Entries:     summary.Entries,
				Tokens:      summary.TotalTokens,
				CostUSD:     summary.CostUSD,
				ActiveHours: summary.ActiveHours,
				Estimated:   summary.Estimated,
			}, now)
			logger.Debug("refresh complete", "reason", reason, "projects", len(projects))
			return
		}
	}

	s.mu.Lock()
	s.lastError = err.Error()
	s.lastRefreshAt = now
	s.refreshCount++
	s.mu.Unlock()
	logger.Warn("refresh failed", "reason", reason, "err", err)
}

func (s *Service) record(snap Snapshot, now time.Time) {
	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastRefreshAt = now
	s.refreshCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap}
		publish = true
	} else {
		delta := Delta{
			Entries: snap.Entries - prev.Entries,
			Tokens:  snap.Tokens - prev.Tokens,
			CostUSD: snap.CostUSD - prev.CostUSD,
		}
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{ID: s.nextEventID, Type: "usage_delta", Timestamp: now, Snapshot: snap, Delta: delta}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastRefreshAt:   s.lastRefreshAt,
		RefreshCount:    s.refreshCount,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		Root:            s.cfg.Root,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send the current snapshot immediately.
	writeSSE(w, Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// startWatcher watches the log root and each project directory for JSONL
// writes, debouncing event bursts into a single trigger after a quiet
// window. New project directories are added to the watch as they appear.
func (s *Service) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	root := s.cfg.Root
	if err := watcher.Add(root); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", root, err)
	}
	dirs, err := os.ReadDir(root)
	if err == nil {
		for _, d := range dirs {
			if d.IsDir() {
				if err := watcher.Add(filepath.Join(root, d.Name())); err != nil {
					logger.Debug("cannot watch project dir", "dir", d.Name(), "err", err)
				}
			}
		}
	}

	go s.watchLoop(ctx, watcher)
	return nil
}

func (s *Service) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Debug("cannot watch new dir", "dir", event.Name, "err", err)
					}
				}
			}
			if !relevantEvent(event) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(s.cfg.Debounce, func() {
				s.Trigger("fsnotify")
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", "err", err)
		}
	}
}

// relevantEvent reports whether a file event can change query results.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
		return event.Op&fsnotify.Remove != 0
	}
	return filepath.Ext(event.Name) == ".jsonl" ||
		event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
}
