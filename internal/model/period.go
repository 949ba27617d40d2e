package model

// Period is a named relative time window requested by a caller.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ValidPeriods lists every period the engine accepts, in display order.
var ValidPeriods = []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}

// ParsePeriod maps a string onto a known period, defaulting to "all".
func ParsePeriod(s string) Period {
	for _, p := range ValidPeriods {
		if string(p) == s {
			return p
		}
	}
	return PeriodAll
}

// Granularity is the bucket size chosen to represent a period.
type Granularity string

const (
	GranularityHourly  Granularity = "hourly"
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)
