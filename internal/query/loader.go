// Package query is the single entry point consumers call for period
// statistics and chart data. It arbitrates between the SQLite fast path
// and the in-process parse-and-aggregate fallback.
package query

import (
	"runtime"
	"sync"

	"github.com/mveitas/cclens/internal/logger"
	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/source"
)

// parseJob pairs one file with the project name the scanner assigned it.
type parseJob struct {
	ref     model.FileRef
	project string
}

// jobsFor flattens scanned projects into parse jobs.
func jobsFor(projects []model.ProjectInfo) []parseJob {
	var jobs []parseJob
	for _, p := range projects {
		for _, f := range p.Files {
			jobs = append(jobs, parseJob{ref: f, project: p.Name})
		}
	}
	return jobs
}

// parseAll parses every job with a bounded worker pool and returns results
// in job order.
func parseAll(jobs []parseJob) []source.ParseResult {
	if len(jobs) == 0 {
		return nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	work := make(chan int, len(jobs))
	results := make([]source.ParseResult, len(jobs))
	var wg sync.WaitGroup

	for i := range jobs {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(jobs[idx].ref, jobs[idx].project)
			}
		}()
	}
	wg.Wait()

	return results
}

// collectEntries flattens parse results, logging but never failing on
// per-file or per-line problems: an unreadable file is an empty
// contribution, a bad line is a counter. A file that failed midstream
// still contributes the entries parsed before the failure.
func collectEntries(jobs []parseJob, results []source.ParseResult) []model.LogEntry {
	var entries []model.LogEntry
	lineErrors := 0
	fileErrors := 0

	for i, res := range results {
		if res.Err != nil {
			fileErrors++
			logger.Debug("file parse failed", "path", jobs[i].ref.Path,
				"kept_entries", len(res.Entries), "err", res.Err)
		}
		lineErrors += len(res.LineErrors)
		entries = append(entries, res.Entries...)
	}

	if lineErrors > 0 || fileErrors > 0 {
		logger.Warn("parse completed with problems",
			"files", len(jobs), "file_errors", fileErrors, "line_errors", lineErrors)
	}
	return entries
}
