package model

import "time"

// ChartPoint is one bucket on the usage chart.
type ChartPoint struct {
	Label        string
	TotalTokens  int64
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	CostLocal    float64
	Entries      int
}

// ComparisonWindow is the preceding period's date range for trend display.
type ComparisonWindow struct {
	Start time.Time
	End   time.Time
	Label string
}

// ChartData is the full chart-shaped result for one period. Comparison is
// nil when the period has no defined predecessor, which callers must treat
// as "no comparison available" rather than zero.
type ChartData struct {
	Period           Period
	Granularity      Granularity
	Points           []ChartPoint
	Labels           []string
	ProjectBreakdown []ProjectBucket
	Summary          PeriodSummary
	Comparison       *PeriodSummary
	ComparisonWindow *ComparisonWindow
}
