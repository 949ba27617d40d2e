package store

import (
	"fmt"
	"math"
	"time"
)

// SummaryRow is the raw SQL rollup for one time range. Cost estimation and
// currency conversion happen in the query layer, not here.
type SummaryRow struct {
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	HasCost      bool
	Entries      int
	Messages     int
	ActiveHours  int
	ProjectCount int
}

// BucketRow is one grouped aggregation row. Key is a local date
// (YYYY-MM-DD), month (YYYY-MM), zero-padded hour, or project name
// depending on the grouping column.
type BucketRow struct {
	Key          string
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	HasCost      bool
	Entries      int
}

func bounds(since, until time.Time) (int64, int64) {
	lower, upper := int64(math.MinInt64), int64(math.MaxInt64)
	if !since.IsZero() {
		lower = since.UnixNano()
	}
	if !until.IsZero() {
		upper = until.UnixNano()
	}
	return lower, upper
}

// Summary computes the period rollup in SQL. singleDay selects the
// distinct-hour active-hours formula instead of distinct (date, hour)
// pairs.
func (s *Store) Summary(since, until time.Time, singleDay bool) (SummaryRow, error) {
	lower, upper := bounds(since, until)

	var row SummaryRow
	var hasCost int
	err := s.db.QueryRow(`SELECT
		COALESCE(SUM(input_tokens), 0),
		COALESCE(SUM(output_tokens), 0),
		COALESCE(SUM(cost_usd), 0),
		COALESCE(MAX(has_cost), 0),
		COALESCE(SUM(CASE WHEN has_usage = 1 OR has_cost = 1 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN kind != '' THEN 1 ELSE 0 END), 0)
		FROM entries WHERE ts_unix_ns >= ? AND ts_unix_ns < ?`,
		lower, upper,
	).Scan(&row.InputTokens, &row.OutputTokens, &row.CostUSD, &hasCost,
		&row.Entries, &row.Messages)
	if err != nil {
		return SummaryRow{}, fmt.Errorf("summary query: %w", err)
	}
	row.HasCost = hasCost != 0

	hourExpr := "local_date || '#' || local_hour"
	if singleDay {
		hourExpr = "local_hour"
	}
	err = s.db.QueryRow(
		"SELECT COUNT(DISTINCT "+hourExpr+") FROM entries WHERE ts_unix_ns >= ? AND ts_unix_ns < ?",
		lower, upper,
	).Scan(&row.ActiveHours)
	if err != nil {
		return SummaryRow{}, fmt.Errorf("active hours query: %w", err)
	}

	err = s.db.QueryRow(
		"SELECT COUNT(DISTINCT project) FROM entries WHERE ts_unix_ns >= ? AND ts_unix_ns < ? AND project != ''",
		lower, upper,
	).Scan(&row.ProjectCount)
	if err != nil {
		return SummaryRow{}, fmt.Errorf("project count query: %w", err)
	}

	return row, nil
}

// DailyRows returns per-local-day sums ordered by date.
func (s *Store) DailyRows(since, until time.Time) ([]BucketRow, error) {
	return s.groupedRows("local_date", since, until)
}

// HourlyRows returns per-hour-of-day sums keyed by zero-padded hour.
func (s *Store) HourlyRows(since, until time.Time) ([]BucketRow, error) {
	return s.groupedRows("printf('%02d', local_hour)", since, until)
}

// MonthlyRows returns per-local-month sums ordered by month.
func (s *Store) MonthlyRows(since, until time.Time) ([]BucketRow, error) {
	return s.groupedRows("local_month", since, until)
}

// ProjectRows returns per-project sums.
func (s *Store) ProjectRows(since, until time.Time) ([]BucketRow, error) {
	return s.groupedRows("project", since, until)
}

// groupedRows runs one grouped aggregation. keyExpr comes only from the
// fixed set above, never from caller input.
func (s *Store) groupedRows(keyExpr string, since, until time.Time) ([]BucketRow, error) {
	lower, upper := bounds(since, until)

	rows, err := s.db.Query(`SELECT `+keyExpr+` AS k,
		COALESCE(SUM(input_tokens), 0),
		COALESCE(SUM(output_tokens), 0),
		COALESCE(SUM(cost_usd), 0),
		COALESCE(MAX(has_cost), 0),
		COUNT(*)
		FROM entries WHERE ts_unix_ns >= ? AND ts_unix_ns < ?
		GROUP BY k ORDER BY k`,
		lower, upper)
	if err != nil {
		return nil, fmt.Errorf("grouped query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []BucketRow
	for rows.Next() {
		var r BucketRow
		var hasCost int
		if err := rows.Scan(&r.Key, &r.InputTokens, &r.OutputTokens, &r.CostUSD, &hasCost, &r.Entries); err != nil {
			return nil, err
		}
		r.HasCost = hasCost != 0
		result = append(result, r)
	}
	return result, rows.Err()
}
