package query

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mveitas/cclens/internal/config"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/store"
)

func usageLine(ts string, in, out int64, cost float64) string {
	return fmt.Sprintf(`{"type":"assistant","timestamp":%q,"costUSD":%g,"message":{"usage":{"input_tokens":%d,"output_tokens":%d}}}`,
		ts, cost, in, out)
}

func writeUsageFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var data []byte
	for _, line := range lines {
		data = append(data, line...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// testRoot builds two projects spanning today, yesterday, last month and
// last year relative to the fixed test clock. Costs are exact binary
// fractions so both stat paths sum them identically.
func testRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	projA := filepath.Join(root, "alpha")
	projB := filepath.Join(root, "beta")
	for _, dir := range []string{projA, projB} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	writeUsageFile(t, projA, "chat.jsonl",
		usageLine("2024-03-20T10:00:00Z", 100, 200, 0.25),
		usageLine("2024-03-19T23:00:00Z", 50, 50, 0.5),
	)
	writeUsageFile(t, projB, "log.jsonl",
		usageLine("2024-02-10T08:00:00Z", 10, 10, 0.125),
		usageLine("2023-06-01T12:00:00Z", 1000, 2000, 1.0),
	)
	return root
}

func testConfig(root string) config.Config {
	cfg := config.DefaultConfig()
	cfg.General.RootPath = root
	cfg.General.Timezone = "UTC"
	cfg.General.ExchangeRate = 1.0
	return cfg
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "entries.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

var testNow = time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, root string, st *store.Store) *Engine {
	t.Helper()
	e := New(testConfig(root), st)
	e.SetClock(func() time.Time { return testNow })
	return e
}

func TestPeriodStats_FastAndFallbackAgree(t *testing.T) {
	root := testRoot(t)
	fast := newEngine(t, root, openStore(t))
	slow := newEngine(t, root, nil)

	for _, period := range model.ValidPeriods {
		got, err := fast.PeriodStats(context.Background(), period)
		if err != nil {
			t.Fatalf("fast PeriodStats(%s): %v", period, err)
		}
		want, err := slow.PeriodStats(context.Background(), period)
		if err != nil {
			t.Fatalf("fallback PeriodStats(%s): %v", period, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("period %s: fast path %+v != fallback %+v", period, got, want)
		}
	}
}

func TestPeriodStats_Totals(t *testing.T) {
	e := newEngine(t, testRoot(t), nil)

	today, err := e.PeriodStats(context.Background(), model.PeriodToday)
	if err != nil {
		t.Fatal(err)
	}
	if today.TotalTokens != 300 {
		t.Errorf("today tokens = %d, want 300", today.TotalTokens)
	}
	if today.CostUSD != 0.25 {
		t.Errorf("today cost = %v, want 0.25", today.CostUSD)
	}
	if today.ActiveHours != 1 {
		t.Errorf("today active hours = %d, want 1", today.ActiveHours)
	}

	all, err := e.PeriodStats(context.Background(), model.PeriodAll)
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalTokens != 3420 {
		t.Errorf("all tokens = %d, want 3420", all.TotalTokens)
	}
	if all.CostUSD != 1.875 {
		t.Errorf("all cost = %v, want 1.875", all.CostUSD)
	}
	if all.ProjectCount != 2 {
		t.Errorf("all projects = %d, want 2", all.ProjectCount)
	}
	if all.ActiveHours != 4 {
		t.Errorf("all active hours = %d, want 4", all.ActiveHours)
	}
}

func TestChartData_FastAndFallbackAgree(t *testing.T) {
	root := testRoot(t)
	fast := newEngine(t, root, openStore(t))
	slow := newEngine(t, root, nil)

	for _, period := range []model.Period{model.PeriodToday, model.PeriodWeek, model.PeriodAll} {
		got, err := fast.ChartData(context.Background(), period)
		if err != nil {
			t.Fatalf("fast ChartData(%s): %v", period, err)
		}
		want, err := slow.ChartData(context.Background(), period)
		if err != nil {
			t.Fatalf("fallback ChartData(%s): %v", period, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("period %s: fast path and fallback disagree\nfast: %+v\nfallback: %+v", period, got, want)
		}
	}
}

func TestChartData_TodayShape(t *testing.T) {
	e := newEngine(t, testRoot(t), nil)

	data, err := e.ChartData(context.Background(), model.PeriodToday)
	if err != nil {
		t.Fatal(err)
	}
	if data.Granularity != model.GranularityHourly {
		t.Fatalf("granularity = %s, want hourly", data.Granularity)
	}
	if len(data.Points) != 24 {
		t.Fatalf("points = %d, want 24", len(data.Points))
	}
	if data.Labels[0] != "00" || data.Labels[23] != "23" {
		t.Errorf("labels = %q..%q, want 00..23", data.Labels[0], data.Labels[23])
	}
	if data.Points[10].TotalTokens != 300 {
		t.Errorf("hour 10 tokens = %d, want 300", data.Points[10].TotalTokens)
	}
	if data.Comparison == nil || data.ComparisonWindow == nil {
		t.Fatal("expected yesterday comparison")
	}
	if data.Comparison.TotalTokens != 100 {
		t.Errorf("comparison tokens = %d, want 100", data.Comparison.TotalTokens)
	}
}

type failingSource struct{}

func (failingSource) name() string { return "failing" }

func (failingSource) periodStats(context.Context, []model.ProjectInfo, model.Period, time.Time) (model.PeriodSummary, error) {
	return model.PeriodSummary{}, errors.New("boom")
}

func (failingSource) chartData(context.Context, []model.ProjectInfo, model.Period, time.Time) (model.ChartData, error) {
	return model.ChartData{}, errors.New("boom")
}

func TestFastPathFailureFallsBack(t *testing.T) {
	root := testRoot(t)

	broken := newEngine(t, root, nil)
	broken.fast = failingSource{}
	slow := newEngine(t, root, nil)

	got, err := broken.PeriodStats(context.Background(), model.PeriodWeek)
	if err != nil {
		t.Fatalf("expected transparent fallback, got error: %v", err)
	}
	want, err := slow.PeriodStats(context.Background(), model.PeriodWeek)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fallback result %+v != scan-only result %+v", got, want)
	}

	// The failure is per-query: the chart query tries the fast path again
	// and falls back again, still without surfacing an error.
	if _, err := broken.ChartData(context.Background(), model.PeriodWeek); err != nil {
		t.Fatalf("chart fallback: %v", err)
	}
}

func TestPeriodStats_RecomputesAfterFileChange(t *testing.T) {
	root := testRoot(t)
	e := New(testConfig(root), nil)
	now := testNow
	e.SetClock(func() time.Time { return now })

	first, err := e.PeriodStats(context.Background(), model.PeriodAll)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(root, "alpha", "chat.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(usageLine("2024-03-20T11:00:00Z", 5, 5, 0.0625) + "\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()
	bumped := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(path, bumped, bumped); err != nil {
		t.Fatal(err)
	}

	// Within the fast TTL the stale project scan keeps serving the old
	// answer; past it the scan reruns, the mtime moves, and every
	// dependent result recomputes.
	now = now.Add(11 * time.Second)

	second, err := e.PeriodStats(context.Background(), model.PeriodAll)
	if err != nil {
		t.Fatal(err)
	}
	if second.TotalTokens != first.TotalTokens+10 {
		t.Errorf("after append tokens = %d, want %d", second.TotalTokens, first.TotalTokens+10)
	}
}

func TestProjectEntries(t *testing.T) {
	root := testRoot(t)
	e := newEngine(t, root, nil)

	entries, err := e.ProjectEntries(context.Background(), filepath.Join(root, "alpha"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for _, entry := range entries {
		if entry.Project != "alpha" {
			t.Errorf("entry project = %q, want alpha", entry.Project)
		}
	}

	if _, err := e.ProjectEntries(context.Background(), filepath.Join(root, "missing")); err == nil {
		t.Fatal("expected error for unknown project path")
	}
}

func TestProjects_Cached(t *testing.T) {
	root := testRoot(t)
	e := newEngine(t, root, nil)

	first, err := e.Projects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 {
		t.Fatalf("projects = %d, want 2", len(first))
	}

	// A project added inside the TTL window is invisible until expiry.
	extra := filepath.Join(root, "gamma")
	if err := os.MkdirAll(extra, 0o755); err != nil {
		t.Fatal(err)
	}
	writeUsageFile(t, extra, "x.jsonl", usageLine("2024-03-20T12:00:00Z", 1, 1, 0.5))

	second, err := e.Projects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 2 {
		t.Errorf("projects after add within TTL = %d, want 2 (cached)", len(second))
	}
}

func TestWeekly_TrailingFourWeeks(t *testing.T) {
	root := testRoot(t)
	e := newEngine(t, root, nil)

	buckets, err := e.Weekly(context.Background())
	if err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("buckets = %d, want 4", len(buckets))
	}

	// testNow is Wed 2024-03-20; the current week starts Sunday 03-17 and
	// holds both March entries. Everything older sits outside the window.
	current := buckets[3]
	if got := current.WeekStart.Format("2006-01-02"); got != "2024-03-17" {
		t.Errorf("current week start = %s, want 2024-03-17", got)
	}
	if current.TotalTokens != 400 || current.Entries != 2 {
		t.Errorf("current week = %d tokens / %d entries, want 400 / 2", current.TotalTokens, current.Entries)
	}
	if current.CostUSD != 0.75 {
		t.Errorf("current week cost = %v, want 0.75", current.CostUSD)
	}
	for _, b := range buckets[:3] {
		if b.Entries != 0 {
			t.Errorf("week of %s has %d entries, want 0", b.WeekStart.Format("2006-01-02"), b.Entries)
		}
	}
}
