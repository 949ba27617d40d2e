package query

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mveitas/cclens/internal/aggregate"
	"github.com/mveitas/cclens/internal/cache"
	"github.com/mveitas/cclens/internal/config"
	"github.com/mveitas/cclens/internal/logger"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/source"
	"github.com/mveitas/cclens/internal/store"
	"github.com/mveitas/cclens/internal/timeutil"
)

// Engine is the query facade. It scans projects, caches results, collapses
// concurrent identical queries, and routes each computation through the
// SQLite fast path with a transparent fallback to in-process aggregation.
// A fast-path failure degrades that one query, never the engine: the next
// query tries the fast path again.
type Engine struct {
	cfg      config.Config
	res      *timeutil.Resolver
	cache    *cache.Cache
	fast     statsSource // nil when the store is unavailable
	fallback statsSource
	scan     *scanSource
	group    singleflight.Group
	clock    func() time.Time
}

// New builds an engine for the given configuration. st may be nil, in which
// case every query runs on the fallback path.
func New(cfg config.Config, st *store.Store) *Engine {
	res := timeutil.NewResolver(cfg.General.Timezone)
	opts := aggregate.Options{
		Resolver:     res,
		ExchangeRate: cfg.General.ExchangeRate,
		Rates:        cfg.Estimate,
	}

	scan := &scanSource{opts: opts}
	e := &Engine{
		cfg: cfg,
		res: res,
		cache: cache.New(cache.Config{
			FastTTL:  time.Duration(cfg.Cache.FastTTLSeconds) * time.Second,
			BaseTTL:  time.Duration(cfg.Cache.BaseTTLSeconds) * time.Second,
			Capacity: cfg.Cache.Capacity,
		}),
		fallback: scan,
		scan:     scan,
		clock:    time.Now,
	}
	if st != nil {
		e.fast = &sqlSource{
			st:           st,
			res:          res,
			zone:         cfg.General.Timezone,
			rates:        cfg.Estimate,
			exchangeRate: cfg.General.ExchangeRate,
		}
	}
	return e
}

// SetClock overrides the engine's time source for tests.
func (e *Engine) SetClock(clock func() time.Time) {
	e.clock = clock
	e.cache.SetClock(clock)
}

// Resolver exposes the engine's timezone resolver for rendering.
func (e *Engine) Resolver() *timeutil.Resolver {
	return e.res
}

// Projects returns the scanned project list, cached briefly under the fast
// TTL so bursts of queries share one directory walk.
func (e *Engine) Projects(ctx context.Context) ([]model.ProjectInfo, error) {
	const key = "projects:list"
	if v, ok := e.cache.Get(key, time.Time{}); ok {
		return v.([]model.ProjectInfo), nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		projects, err := source.ScanProjects(e.cfg.Root())
		if err != nil {
			return nil, err
		}
		e.cache.Set(key, projects, time.Time{}, cache.TierFast)
		return projects, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.ProjectInfo), nil
}

// ProjectEntries parses and returns all entries for one project, cached by
// the newest modification time among the project's files.
func (e *Engine) ProjectEntries(ctx context.Context, projectPath string) ([]model.LogEntry, error) {
	projects, err := e.Projects(ctx)
	if err != nil {
		return nil, err
	}

	var project *model.ProjectInfo
	for i := range projects {
		if projects[i].Path == projectPath {
			project = &projects[i]
			break
		}
	}
	if project == nil {
		return nil, fmt.Errorf("unknown project: %s", projectPath)
	}

	key := "logs:" + projectPath
	if v, ok := e.cache.Get(key, project.LastModified); ok {
		return v.([]model.LogEntry), nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		jobs := jobsFor([]model.ProjectInfo{*project})
		entries := collectEntries(jobs, parseAll(jobs))
		e.cache.Set(key, entries, project.LastModified, cache.TierBase)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.LogEntry), nil
}

// PeriodStats returns the rollup summary for one period.
func (e *Engine) PeriodStats(ctx context.Context, period model.Period) (model.PeriodSummary, error) {
	projects, err := e.Projects(ctx)
	if err != nil {
		return model.PeriodSummary{}, err
	}
	maxMod := source.MaxModTime(projects)

	key := "stats:" + string(period)
	if v, ok := e.cache.Get(key, maxMod); ok {
		return v.(model.PeriodSummary), nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		summary, err := e.withFallback(ctx, projects, period,
			func(s statsSource) (any, error) {
				return s.periodStats(ctx, projects, period, e.clock())
			})
		if err != nil {
			return nil, err
		}
		e.cache.Set(key, summary, maxMod, cache.TierBase)
		return summary, nil
	})
	if err != nil {
		return model.PeriodSummary{}, err
	}
	return v.(model.PeriodSummary), nil
}

// ChartData returns the chart-shaped result for one period.
func (e *Engine) ChartData(ctx context.Context, period model.Period) (model.ChartData, error) {
	projects, err := e.Projects(ctx)
	if err != nil {
		return model.ChartData{}, err
	}
	maxMod := source.MaxModTime(projects)

	key := "chart:" + string(period)
	if v, ok := e.cache.Get(key, maxMod); ok {
		return v.(model.ChartData), nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		data, err := e.withFallback(ctx, projects, period,
			func(s statsSource) (any, error) {
				return s.chartData(ctx, projects, period, e.clock())
			})
		if err != nil {
			return nil, err
		}
		e.cache.Set(key, data, maxMod, cache.TierBase)
		return data, nil
	})
	if err != nil {
		return model.ChartData{}, err
	}
	return v.(model.ChartData), nil
}

// Weekly returns the trailing retained weeks as Sunday-start buckets,
// cached alongside the other rollups. Weekly buckets depend on local week
// boundaries that the store does not index, so they always compute on the
// scan path.
func (e *Engine) Weekly(ctx context.Context) ([]model.WeeklyBucket, error) {
	projects, err := e.Projects(ctx)
	if err != nil {
		return nil, err
	}
	maxMod := source.MaxModTime(projects)

	const key = "stats:weekly"
	if v, ok := e.cache.Get(key, maxMod); ok {
		return v.([]model.WeeklyBucket), nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		entries, err := e.scan.load(ctx, projects)
		if err != nil {
			return nil, err
		}
		buckets := aggregate.Weekly(entries, e.scan.opts, e.clock())
		e.cache.Set(key, buckets, maxMod, cache.TierBase)
		return buckets, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.WeeklyBucket), nil
}

// withFallback runs the computation on the fast path when available,
// falling back to the scan path on any error. Context cancellation is
// terminal either way.
func (e *Engine) withFallback(ctx context.Context, projects []model.ProjectInfo, period model.Period, compute func(statsSource) (any, error)) (any, error) {
	if e.fast != nil {
		v, err := compute(e.fast)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		logger.Warn("fast path failed, falling back to full scan",
			"period", period, "err", err)
	}
	return compute(e.fallback)
}

// Invalidate drops cache entries whose keys contain pattern and returns the
// number removed.
func (e *Engine) Invalidate(pattern string) int {
	return e.cache.Invalidate(pattern)
}

// ClearCache drops every cached result.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}
