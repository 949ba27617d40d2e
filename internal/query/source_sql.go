package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/mveitas/cclens/internal/aggregate"
	"github.com/mveitas/cclens/internal/config"
	"github.com/mveitas/cclens/internal/logger"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/store"
	"github.com/mveitas/cclens/internal/timeutil"
)

// sqlSource answers queries from the SQLite entry store. Before each query
// it reconciles the store with the scanned files: only files whose mtime or
// size changed since the last ingest are re-parsed, so steady-state queries
// touch no log files at all.
type sqlSource struct {
	st           *store.Store
	res          *timeutil.Resolver
	zone         string
	rates        config.EstimateRates
	exchangeRate float64
}

func (s *sqlSource) name() string { return "sql" }

// sync brings the store up to date with the current scan. Local bucket keys
// are computed at ingest time, so a zone change invalidates every stored
// row and forces a full re-ingest.
func (s *sqlSource) sync(ctx context.Context, projects []model.ProjectInfo) error {
	storedZone, err := s.st.Zone()
	if err != nil {
		return fmt.Errorf("reading store zone: %w", err)
	}
	if storedZone != s.zone {
		logger.Info("timezone changed, rebuilding entry store",
			"old", storedZone, "new", s.zone)
		if err := s.st.Reset(); err != nil {
			return fmt.Errorf("resetting store: %w", err)
		}
		if err := s.st.SetZone(s.zone); err != nil {
			return fmt.Errorf("recording store zone: %w", err)
		}
	}

	tracked, err := s.st.TrackedFiles()
	if err != nil {
		return fmt.Errorf("listing tracked files: %w", err)
	}

	jobs := jobsFor(projects)
	seen := make(map[string]struct{}, len(jobs))
	var changed []parseJob
	for _, job := range jobs {
		seen[job.ref.Path] = struct{}{}
		fi, ok := tracked[job.ref.Path]
		if !ok || fi.MtimeNs != job.ref.ModTime.UnixNano() || fi.SizeBytes != job.ref.SizeBytes {
			changed = append(changed, job)
		}
	}

	if len(changed) > 0 {
		results := parseAll(changed)
		if err := ctx.Err(); err != nil {
			return err
		}
		for i, res := range results {
			if res.Err != nil && len(res.Entries) == 0 {
				// Leave the tracker row alone so the file is retried
				// on the next sync.
				logger.Debug("skipping unreadable file during ingest",
					"path", changed[i].ref.Path, "err", res.Err)
				continue
			}
			if res.Err != nil {
				logger.Debug("ingesting partial file",
					"path", changed[i].ref.Path, "entries", len(res.Entries), "err", res.Err)
			}
			if err := s.st.ReplaceFileEntries(changed[i].ref, res.Entries, s.res); err != nil {
				return fmt.Errorf("ingesting %s: %w", changed[i].ref.Path, err)
			}
		}
	}

	for path := range tracked {
		if _, ok := seen[path]; !ok {
			if err := s.st.DeleteFile(path); err != nil {
				return fmt.Errorf("pruning %s: %w", path, err)
			}
		}
	}

	return nil
}

func (s *sqlSource) periodStats(ctx context.Context, projects []model.ProjectInfo, period model.Period, now time.Time) (model.PeriodSummary, error) {
	if err := s.sync(ctx, projects); err != nil {
		return model.PeriodSummary{}, err
	}

	since, until := aggregate.PeriodRange(period, now, s.res)
	row, err := s.st.Summary(since, until, period == model.PeriodToday)
	if err != nil {
		return model.PeriodSummary{}, fmt.Errorf("querying summary: %w", err)
	}
	return s.summaryFromRow(row, period), nil
}

func (s *sqlSource) summaryFromRow(row store.SummaryRow, period model.Period) model.PeriodSummary {
	summary := model.PeriodSummary{
		Period:       period,
		TotalTokens:  row.InputTokens + row.OutputTokens,
		InputTokens:  row.InputTokens,
		OutputTokens: row.OutputTokens,
		CostUSD:      row.CostUSD,
		Entries:      row.Entries,
		Messages:     row.Messages,
		ActiveHours:  row.ActiveHours,
		ProjectCount: row.ProjectCount,
	}
	if !row.HasCost && summary.TotalTokens > 0 {
		summary.Estimated = true
		summary.CostUSD = s.rates.EstimateCost(summary.InputTokens, summary.OutputTokens)
	}
	summary.CostLocal = summary.CostUSD * s.exchangeRate
	return summary
}

func (s *sqlSource) chartData(ctx context.Context, projects []model.ProjectInfo, period model.Period, now time.Time) (model.ChartData, error) {
	if err := s.sync(ctx, projects); err != nil {
		return model.ChartData{}, err
	}

	since, until := aggregate.PeriodRange(period, now, s.res)
	row, err := s.st.Summary(since, until, period == model.PeriodToday)
	if err != nil {
		return model.ChartData{}, fmt.Errorf("querying summary: %w", err)
	}
	summary := s.summaryFromRow(row, period)

	var (
		granularity model.Granularity
		points      []model.ChartPoint
	)
	if period == model.PeriodToday {
		granularity = model.GranularityHourly
		rows, err := s.st.HourlyRows(since, until)
		if err != nil {
			return model.ChartData{}, fmt.Errorf("querying hourly rows: %w", err)
		}
		points = fillHourly(s.pointsByKey(rows, summary.Estimated))
	} else {
		dailyRows, err := s.st.DailyRows(since, until)
		if err != nil {
			return model.ChartData{}, fmt.Errorf("querying daily rows: %w", err)
		}
		granularity = aggregate.SelectGranularity(period, spanDays(dailyRows))
		if granularity == model.GranularityMonthly {
			monthlyRows, err := s.st.MonthlyRows(since, until)
			if err != nil {
				return model.ChartData{}, fmt.Errorf("querying monthly rows: %w", err)
			}
			points = fillMonthly(s.pointsByKey(monthlyRows, summary.Estimated), since, until, s.res.Location())
		} else {
			points = fillDaily(s.pointsByKey(dailyRows, summary.Estimated), since, until, s.res.Location())
		}
	}

	projectRows, err := s.st.ProjectRows(since, until)
	if err != nil {
		return model.ChartData{}, fmt.Errorf("querying project rows: %w", err)
	}

	data := model.ChartData{
		Period:           period,
		Granularity:      granularity,
		Points:           points,
		Labels:           labelsOf(points),
		ProjectBreakdown: s.projectBuckets(projectRows),
		Summary:          summary,
	}

	if window, ok := aggregate.ComparisonWindow(period, now, s.res); ok {
		prevRow, err := s.st.Summary(window.Start, window.End, period == model.PeriodToday)
		if err != nil {
			return model.ChartData{}, fmt.Errorf("querying comparison summary: %w", err)
		}
		comp := s.summaryFromRow(prevRow, period)
		data.Comparison = &comp
		data.ComparisonWindow = &window
	}

	return data, nil
}

func (s *sqlSource) pointsByKey(rows []store.BucketRow, estimated bool) map[string]model.ChartPoint {
	points := make(map[string]model.ChartPoint, len(rows))
	for _, row := range rows {
		tokens := row.InputTokens + row.OutputTokens
		points[row.Key] = pointFrom(row.Key, row.InputTokens, row.OutputTokens, row.CostUSD,
			row.Entries, estimated && tokens > 0, s.rates, s.exchangeRate)
	}
	return points
}

// projectBuckets converts project rows into the shared bucket shape, sorted
// by cost then tokens descending to match the aggregate package.
func (s *sqlSource) projectBuckets(rows []store.BucketRow) []model.ProjectBucket {
	buckets := lo.Map(rows, func(row store.BucketRow, _ int) model.ProjectBucket {
		return model.ProjectBucket{
			Project: row.Key,
			BucketSums: model.BucketSums{
				TotalTokens:  row.InputTokens + row.OutputTokens,
				InputTokens:  row.InputTokens,
				OutputTokens: row.OutputTokens,
				CostUSD:      row.CostUSD,
				CostLocal:    row.CostUSD * s.exchangeRate,
				Entries:      row.Entries,
			},
		}
	})
	sortProjectBuckets(buckets)
	return buckets
}

func sortProjectBuckets(buckets []model.ProjectBucket) {
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].CostUSD != buckets[j].CostUSD {
			return buckets[i].CostUSD > buckets[j].CostUSD
		}
		return buckets[i].TotalTokens > buckets[j].TotalTokens
	})
}

// spanDays returns the inclusive day count between the first and last daily
// keys, which arrive sorted ascending.
func spanDays(rows []store.BucketRow) int {
	if len(rows) == 0 {
		return 0
	}
	first, err1 := time.Parse("2006-01-02", rows[0].Key)
	last, err2 := time.Parse("2006-01-02", rows[len(rows)-1].Key)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(last.Sub(first).Hours()/24) + 1
}
