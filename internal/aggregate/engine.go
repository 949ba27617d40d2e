// Package aggregate folds usage entries into time-bucketed statistics.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/mveitas/cclens/internal/config"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/timeutil"
)

// Options carries the conversion context every fold needs. Components never
// read ambient settings; callers pass this explicitly.
type Options struct {
	Resolver     *timeutil.Resolver
	ExchangeRate float64
	Rates        config.EstimateRates
}

// Daily folds entries into per-local-day buckets keyed by YYYY-MM-DD.
// Each bucket also tracks the set of local hours touched, which feeds the
// active-hours computation.
func Daily(entries []model.LogEntry, opts Options) map[string]*model.DailyBucket {
	buckets := make(map[string]*model.DailyBucket)

	for _, e := range entries {
		key := opts.Resolver.DateKey(e.Timestamp)
		b, ok := buckets[key]
		if !ok {
			b = &model.DailyBucket{Date: key, Hours: make(map[int]struct{})}
			buckets[key] = b
		}
		b.Add(e, opts.ExchangeRate)
		b.Hours[opts.Resolver.Hour(e.Timestamp)] = struct{}{}
	}

	return buckets
}

// Hourly folds entries into 24 hour-of-day buckets, zero-filled so hours
// with no data still appear. Used for the intraday "today" view.
func Hourly(entries []model.LogEntry, opts Options) []model.HourlyBucket {
	buckets := make([]model.HourlyBucket, 24)
	for i := range buckets {
		buckets[i].Hour = i
	}

	for _, e := range entries {
		h := opts.Resolver.Hour(e.Timestamp)
		buckets[h].Add(e, opts.ExchangeRate)
	}

	return buckets
}

// Monthly folds entries into per-local-month buckets keyed by YYYY-MM.
func Monthly(entries []model.LogEntry, opts Options) map[string]*model.MonthlyBucket {
	buckets := make(map[string]*model.MonthlyBucket)

	for _, e := range entries {
		key := opts.Resolver.MonthKey(e.Timestamp)
		b, ok := buckets[key]
		if !ok {
			b = &model.MonthlyBucket{Month: key}
			buckets[key] = b
		}
		b.Add(e, opts.ExchangeRate)
	}

	return buckets
}

// retainedWeeks is how many trailing calendar weeks the weekly view keeps.
const retainedWeeks = 4

// Weekly folds entries into the last four calendar weeks ending at the week
// containing now. Weeks start Sunday in the resolver's zone; buckets are
// returned oldest first and zero-filled.
func Weekly(entries []model.LogEntry, opts Options, now time.Time) []model.WeeklyBucket {
	current := WeekStart(now, opts.Resolver)
	oldest := current.AddDate(0, 0, -7*(retainedWeeks-1))

	buckets := make([]model.WeeklyBucket, retainedWeeks)
	for i := range buckets {
		buckets[i].WeekStart = oldest.AddDate(0, 0, 7*i)
	}

	for _, e := range entries {
		ws := WeekStart(e.Timestamp, opts.Resolver)
		if ws.Before(oldest) || ws.After(current) {
			continue
		}
		// Wall-clock weeks around a DST transition run 167 or 169 hours,
		// so the quotient must round rather than truncate.
		idx := int(math.Round(ws.Sub(oldest).Hours() / (24 * 7)))
		if idx < 0 || idx >= retainedWeeks {
			continue
		}
		buckets[idx].Add(e, opts.ExchangeRate)
	}

	return buckets
}

// WeekStart returns local midnight of the Sunday beginning t's week.
func WeekStart(t time.Time, res *timeutil.Resolver) time.Time {
	local := res.Local(t)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	return start.AddDate(0, 0, -int(start.Weekday()))
}

// ByProject folds entries into per-project buckets, sorted by cost then
// tokens descending.
func ByProject(entries []model.LogEntry, opts Options) []model.ProjectBucket {
	buckets := make(map[string]*model.ProjectBucket)

	for _, e := range entries {
		b, ok := buckets[e.Project]
		if !ok {
			b = &model.ProjectBucket{Project: e.Project}
			buckets[e.Project] = b
		}
		b.Add(e, opts.ExchangeRate)
	}

	result := lo.Map(lo.Values(buckets), func(b *model.ProjectBucket, _ int) model.ProjectBucket {
		return *b
	})
	sort.Slice(result, func(i, j int) bool {
		if result[i].CostUSD != result[j].CostUSD {
			return result[i].CostUSD > result[j].CostUSD
		}
		return result[i].TotalTokens > result[j].TotalTokens
	})
	return result
}

// Summarize rolls all entries into a single period summary. singleDay
// selects the active-hours formula: distinct local hours for a one-day
// period, distinct (date, hour) pairs otherwise — reused hours on different
// days count separately.
func Summarize(entries []model.LogEntry, opts Options, period model.Period, singleDay bool) model.PeriodSummary {
	summary := model.PeriodSummary{Period: period}

	hours := make(map[string]struct{})
	projects := make(map[string]struct{})
	hasRecordedCost := false

	for _, e := range entries {
		if e.Kind != "" {
			summary.Messages++
		}
		if e.Billable() {
			summary.Entries++
			if e.Usage != nil {
				summary.TotalTokens += e.Usage.Total()
				summary.InputTokens += e.Usage.InputTokens
				summary.OutputTokens += e.Usage.OutputTokens
			}
			if e.CostUSD != nil {
				hasRecordedCost = true
				summary.CostUSD += *e.CostUSD
			}
		}

		h := opts.Resolver.Hour(e.Timestamp)
		if singleDay {
			hours[hourKey("", h)] = struct{}{}
		} else {
			hours[hourKey(opts.Resolver.DateKey(e.Timestamp), h)] = struct{}{}
		}
		if e.Project != "" {
			projects[e.Project] = struct{}{}
		}
	}

	summary.ActiveHours = len(hours)
	summary.ProjectCount = len(projects)

	// Never report zero cost just because the log carried no costUSD:
	// estimate from the token rate table and flag it.
	if !hasRecordedCost && summary.TotalTokens > 0 {
		summary.Estimated = true
		summary.CostUSD = opts.Rates.EstimateCost(summary.InputTokens, summary.OutputTokens)
	}
	summary.CostLocal = summary.CostUSD * opts.ExchangeRate

	return summary
}

func hourKey(date string, hour int) string {
	return fmt.Sprintf("%s#%02d", date, hour)
}

// FilterByTime returns entries whose timestamp falls within [since, until).
// Zero bounds are open.
func FilterByTime(entries []model.LogEntry, since, until time.Time) []model.LogEntry {
	if since.IsZero() && until.IsZero() {
		return entries
	}
	return lo.Filter(entries, func(e model.LogEntry, _ int) bool {
		if !since.IsZero() && e.Timestamp.Before(since) {
			return false
		}
		if !until.IsZero() && !e.Timestamp.Before(until) {
			return false
		}
		return true
	})
}
