package query

import (
	"context"
	"fmt"
	"time"

	"github.com/mveitas/cclens/internal/aggregate"
	"github.com/mveitas/cclens/internal/model"
)

// statsSource computes statistics from scanned project files. The engine
// holds two implementations with identical semantics: the SQLite-backed
// fast path and the parse-everything fallback. Either one must be able to
// answer any query on its own.
type statsSource interface {
	name() string
	periodStats(ctx context.Context, projects []model.ProjectInfo, period model.Period, now time.Time) (model.PeriodSummary, error)
	chartData(ctx context.Context, projects []model.ProjectInfo, period model.Period, now time.Time) (model.ChartData, error)
}

// scanSource answers queries by parsing every log file in-process and
// folding the entries with the aggregate package. It is the slow path and
// the reference semantics: the fast path must agree with it.
type scanSource struct {
	opts aggregate.Options
}

func (s *scanSource) name() string { return "scan" }

func (s *scanSource) load(ctx context.Context, projects []model.ProjectInfo) ([]model.LogEntry, error) {
	jobs := jobsFor(projects)
	results := parseAll(jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collectEntries(jobs, results), nil
}

func (s *scanSource) periodStats(ctx context.Context, projects []model.ProjectInfo, period model.Period, now time.Time) (model.PeriodSummary, error) {
	entries, err := s.load(ctx, projects)
	if err != nil {
		return model.PeriodSummary{}, err
	}

	since, until := aggregate.PeriodRange(period, now, s.opts.Resolver)
	filtered := aggregate.FilterByTime(entries, since, until)
	return aggregate.Summarize(filtered, s.opts, period, period == model.PeriodToday), nil
}

func (s *scanSource) chartData(ctx context.Context, projects []model.ProjectInfo, period model.Period, now time.Time) (model.ChartData, error) {
	entries, err := s.load(ctx, projects)
	if err != nil {
		return model.ChartData{}, err
	}

	res := s.opts.Resolver
	since, until := aggregate.PeriodRange(period, now, res)
	filtered := aggregate.FilterByTime(entries, since, until)
	summary := aggregate.Summarize(filtered, s.opts, period, period == model.PeriodToday)
	granularity := aggregate.SelectGranularity(period, aggregate.DataRangeDays(filtered, res))

	var points []model.ChartPoint
	switch granularity {
	case model.GranularityHourly:
		raw := make(map[string]model.ChartPoint, 24)
		for _, b := range aggregate.Hourly(filtered, s.opts) {
			if b.Entries == 0 {
				continue
			}
			raw[fmtHour(b.Hour)] = s.point(fmtHour(b.Hour), b.BucketSums, summary.Estimated)
		}
		points = fillHourly(raw)
	case model.GranularityMonthly:
		raw := make(map[string]model.ChartPoint)
		for key, b := range aggregate.Monthly(filtered, s.opts) {
			raw[key] = s.point(key, b.BucketSums, summary.Estimated)
		}
		points = fillMonthly(raw, since, until, res.Location())
	default:
		raw := make(map[string]model.ChartPoint)
		for key, b := range aggregate.Daily(filtered, s.opts) {
			raw[key] = s.point(key, b.BucketSums, summary.Estimated)
		}
		points = fillDaily(raw, since, until, res.Location())
	}

	data := model.ChartData{
		Period:           period,
		Granularity:      granularity,
		Points:           points,
		Labels:           labelsOf(points),
		ProjectBreakdown: aggregate.ByProject(filtered, s.opts),
		Summary:          summary,
	}

	if window, ok := aggregate.ComparisonWindow(period, now, res); ok {
		prev := aggregate.FilterByTime(entries, window.Start, window.End)
		comp := aggregate.Summarize(prev, s.opts, period, period == model.PeriodToday)
		data.Comparison = &comp
		data.ComparisonWindow = &window
	}

	return data, nil
}

func (s *scanSource) point(label string, sums model.BucketSums, estimated bool) model.ChartPoint {
	return pointFrom(label, sums.InputTokens, sums.OutputTokens, sums.CostUSD, sums.Entries,
		estimated && sums.TotalTokens > 0, s.opts.Rates, s.opts.ExchangeRate)
}

func fmtHour(h int) string {
	return fmt.Sprintf("%02d", h)
}
