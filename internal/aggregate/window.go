package aggregate

import (
	"time"

	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/timeutil"
)

// PeriodRange returns the [since, until) bounds for a period at the given
// wall-clock instant. "all" returns open bounds. Day boundaries are local
// to the resolver's zone.
func PeriodRange(period model.Period, now time.Time, res *timeutil.Resolver) (time.Time, time.Time) {
	local := res.Local(now)
	loc := local.Location()
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch period {
	case model.PeriodToday:
		return midnight, midnight.AddDate(0, 0, 1)
	case model.PeriodWeek:
		start := WeekStart(now, res)
		return start, start.AddDate(0, 0, 7)
	case model.PeriodMonth:
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	case model.PeriodYear:
		start := time.Date(local.Year(), 1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	default: // all
		return time.Time{}, time.Time{}
	}
}

// ComparisonWindow derives the preceding period's date range for trend
// comparisons. ok is false when the period has no defined predecessor;
// callers must treat that as "no comparison available", never as zero.
func ComparisonWindow(period model.Period, now time.Time, res *timeutil.Resolver) (model.ComparisonWindow, bool) {
	local := res.Local(now)
	loc := local.Location()
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch period {
	case model.PeriodToday:
		start := midnight.AddDate(0, 0, -1)
		return model.ComparisonWindow{Start: start, End: midnight, Label: "yesterday"}, true
	case model.PeriodWeek:
		thisWeek := WeekStart(now, res)
		start := thisWeek.AddDate(0, 0, -7)
		return model.ComparisonWindow{Start: start, End: thisWeek, Label: "last week"}, true
	case model.PeriodMonth:
		thisMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		start := thisMonth.AddDate(0, -1, 0)
		return model.ComparisonWindow{Start: start, End: thisMonth, Label: "last month"}, true
	case model.PeriodYear, model.PeriodAll:
		thisYear := time.Date(local.Year(), 1, 1, 0, 0, 0, 0, loc)
		start := thisYear.AddDate(-1, 0, 0)
		return model.ComparisonWindow{Start: start, End: thisYear, Label: "last year"}, true
	default:
		return model.ComparisonWindow{}, false
	}
}
