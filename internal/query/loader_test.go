package query

import (
	"errors"
	"testing"
	"time"

	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/source"
)

func TestCollectEntries_KeepsPartialFileResults(t *testing.T) {
	jobs := []parseJob{
		{ref: model.FileRef{Path: "/logs/a.jsonl"}, project: "a"},
		{ref: model.FileRef{Path: "/logs/b.jsonl"}, project: "b"},
	}
	partial := source.ParseResult{
		Entries: []model.LogEntry{
			{Timestamp: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Project: "a"},
			{Timestamp: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), Project: "a"},
		},
		Err: errors.New("bufio.Scanner: token too long"),
	}
	clean := source.ParseResult{
		Entries: []model.LogEntry{
			{Timestamp: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), Project: "b"},
		},
	}

	entries := collectEntries(jobs, []source.ParseResult{partial, clean})
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3 (partial results kept)", len(entries))
	}
	if entries[0].Project != "a" || entries[2].Project != "b" {
		t.Errorf("entry order lost: %+v", entries)
	}
}
