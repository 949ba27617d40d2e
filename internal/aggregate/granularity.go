package aggregate

import (
	"math"
	"time"

	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/timeutil"
)

// SelectGranularity decides the bucket size for a period. Fixed periods map
// directly; "all" is data-driven so multi-year histories don't emit
// thousands of daily points while short histories stay fine-grained.
func SelectGranularity(period model.Period, dataRangeDays int) model.Granularity {
	switch period {
	case model.PeriodToday:
		return model.GranularityHourly
	case model.PeriodWeek, model.PeriodMonth:
		return model.GranularityDaily
	case model.PeriodYear:
		return model.GranularityMonthly
	case model.PeriodAll:
		if dataRangeDays <= 365 {
			return model.GranularityDaily
		}
		return model.GranularityMonthly
	default:
		return model.GranularityDaily
	}
}

// DataRangeDays returns the inclusive day span between the earliest and
// latest local dates in the data, zero for no entries.
func DataRangeDays(entries []model.LogEntry, res *timeutil.Resolver) int {
	if len(entries) == 0 {
		return 0
	}

	first := entries[0].Timestamp
	last := entries[0].Timestamp
	for _, e := range entries[1:] {
		if e.Timestamp.Before(first) {
			first = e.Timestamp
		}
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}

	loc := res.Location()
	a := res.Local(first)
	b := res.Local(last)
	start := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
	end := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, loc)

	// Round so DST-shortened or -lengthened days don't skew the count.
	return int(math.Round(end.Sub(start).Hours()/24)) + 1
}
