// Package source discovers and parses JSONL usage-log files.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/mveitas/cclens/internal/model"
)

// BulkReadLimit is the file size above which parsing switches from a
// whole-file read to a line-by-line stream with constant memory.
const BulkReadLimit = 10 << 20 // 10 MB

// maxLineBytes bounds a single JSONL line on the streaming path.
const maxLineBytes = 2 * 1024 * 1024

// ParseResult holds the output of parsing a single JSONL file.
type ParseResult struct {
	Entries    []model.LogEntry
	LineErrors []LineError
	// Skipped counts well-formed lines dropped for lacking a usable
	// timestamp. These are typically non-usage control records, so they
	// are not errors.
	Skipped int
	Err     error
}

// ParseFile reads one JSONL file and returns its validated entries.
// Files larger than BulkReadLimit are streamed; smaller files are read in
// one call and split. Both paths yield identical entries for identical
// content. Output order follows file order, which is not guaranteed to be
// timestamp-sorted.
func ParseFile(ref model.FileRef, project string) ParseResult {
	if ref.SizeBytes > BulkReadLimit {
		return parseStreaming(ref.Path, project)
	}
	return parseBulk(ref.Path, project)
}

func parseBulk(path, project string) ParseResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{Err: err}
	}

	var res ParseResult
	lineNo := 0
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		lineNo++
		decodeLine(line, lineNo, project, &res)
	}
	return res
}

func parseStreaming(path, project string) ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var res ParseResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		decodeLine(scanner.Bytes(), lineNo, project, &res)
	}
	if err := scanner.Err(); err != nil {
		res.Err = err
	}
	return res
}

// decodeLine parses one line into the result. Decode failures are recorded
// and skipped; timestamp-less lines are silently dropped.
func decodeLine(line []byte, lineNo int, project string, res *ParseResult) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var raw rawLine
	if err := json.Unmarshal(line, &raw); err != nil {
		res.LineErrors = append(res.LineErrors, LineError{Line: lineNo, Err: err})
		return
	}

	if raw.Timestamp == "" {
		res.Skipped++
		return
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil {
		res.Skipped++
		return
	}

	entry := model.LogEntry{
		Timestamp: ts.UTC(),
		Project:   project,
		Kind:      raw.Type,
		CostUSD:   raw.CostUSD,
	}
	if raw.Message != nil && raw.Message.Usage != nil {
		entry.Usage = &model.TokenUsage{
			InputTokens:  raw.Message.Usage.InputTokens,
			OutputTokens: raw.Message.Usage.OutputTokens,
		}
	}

	res.Entries = append(res.Entries, entry)
}
