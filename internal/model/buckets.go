package model

import "time"

// BucketSums holds the running sums shared by every bucket shape.
type BucketSums struct {
	TotalTokens  int64
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	CostLocal    float64
	Entries      int
}

// Add folds one entry's contribution into the sums. Entries without usage
// or cost still bump the entry count.
func (b *BucketSums) Add(e LogEntry, exchangeRate float64) {
	b.Entries++
	if e.Usage != nil {
		b.TotalTokens += e.Usage.Total()
		b.InputTokens += e.Usage.InputTokens
		b.OutputTokens += e.Usage.OutputTokens
	}
	if e.CostUSD != nil {
		b.CostUSD += *e.CostUSD
		b.CostLocal += *e.CostUSD * exchangeRate
	}
}

// DailyBucket accumulates entries for one local calendar day.
type DailyBucket struct {
	Date string // YYYY-MM-DD in the resolver's zone
	BucketSums
	Hours map[int]struct{} // local hours with at least one entry
}

// HourlyBucket accumulates entries for one local hour of day (0-23).
type HourlyBucket struct {
	Hour int
	BucketSums
}

// WeeklyBucket accumulates entries for one calendar week starting Sunday.
type WeeklyBucket struct {
	WeekStart time.Time
	BucketSums
}

// MonthlyBucket accumulates entries for one local calendar month.
type MonthlyBucket struct {
	Month string // YYYY-MM
	BucketSums
}

// ProjectBucket accumulates entries for one project.
type ProjectBucket struct {
	Project string
	BucketSums
}

// PeriodSummary is the single-period rollup returned to callers.
// Estimated is set when no entry in the period carried a recorded cost and
// CostUSD was derived from the per-1K-token rate table instead.
type PeriodSummary struct {
	Period       Period
	TotalTokens  int64
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	CostLocal    float64
	Entries      int
	Messages     int
	ActiveHours  int
	ProjectCount int
	Estimated    bool
}
