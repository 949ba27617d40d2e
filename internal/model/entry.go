// Package model defines domain types for cclens usage entries and statistics.
package model

import "time"

// TokenUsage holds the token counts reported for one API response.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// LogEntry is one parsed usage event from a JSONL log line.
// Usage and CostUSD are nil when the underlying record carried neither;
// such entries still count toward message totals but never toward sums.
type LogEntry struct {
	Timestamp time.Time
	Project   string
	Kind      string // "user", "assistant", or other record type tags
	Usage     *TokenUsage
	CostUSD   *float64
}

// TotalTokens returns the entry's token contribution, zero without usage.
func (e LogEntry) TotalTokens() int64 {
	if e.Usage == nil {
		return 0
	}
	return e.Usage.Total()
}

// Billable reports whether the entry contributes to token or cost sums.
func (e LogEntry) Billable() bool {
	return e.Usage != nil || e.CostUSD != nil
}

// Cost returns the entry's USD cost, zero when absent.
func (e LogEntry) Cost() float64 {
	if e.CostUSD == nil {
		return 0
	}
	return *e.CostUSD
}

// FileRef identifies one JSONL file on disk. SizeBytes drives the
// streaming-vs-bulk read decision; ModTime feeds cache invalidation.
type FileRef struct {
	Path      string
	SizeBytes int64
	ModTime   time.Time
}

// ProjectInfo describes one directory under the scan root. It is rebuilt
// on every scan call and never persisted.
type ProjectInfo struct {
	Name         string
	Path         string
	Files        []FileRef
	LastModified time.Time
}
