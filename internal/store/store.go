// Package store provides the SQLite-backed fast query path over ingested
// usage entries.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/mveitas/cclens/internal/model"
	"github.com/mveitas/cclens/internal/timeutil"
)

// Store wraps the entry database. Local date and hour keys are computed at
// ingest time with the configured zone; the zone is recorded in meta so a
// zone change can be detected and the database rebuilt (see Zone/Reset).
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FileInfo holds the tracked mtime and size for one ingested file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// TrackedFiles returns file_path -> FileInfo for every ingested file.
func (s *Store) TrackedFiles() (map[string]FileInfo, error) {
	rows, err := s.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// Zone returns the zone name the stored local keys were computed with,
// empty when nothing has been ingested yet.
func (s *Store) Zone() (string, error) {
	var zone string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'zone'").Scan(&zone)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return zone, err
}

// SetZone records the zone used for local bucket keys.
func (s *Store) SetZone(zone string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('zone', ?)", zone)
	return err
}

// Reset drops all ingested entries and tracking state. Used when the
// configured zone no longer matches the stored local keys.
func (s *Store) Reset() error {
	for _, stmt := range []string{
		"DELETE FROM entries",
		"DELETE FROM file_tracker",
		"DELETE FROM meta",
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("resetting store: %w", err)
		}
	}
	return nil
}

// ReplaceFileEntries swaps one file's rows for freshly parsed entries and
// updates its tracker record, all in one transaction.
func (s *Store) ReplaceFileEntries(ref model.FileRef, entries []model.LogEntry, res *timeutil.Resolver) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM entries WHERE file_path = ?", ref.Path); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO entries
		(file_path, project, kind, ts_unix_ns, local_date, local_hour, local_month,
		 input_tokens, output_tokens, has_usage, cost_usd, has_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		var in, out int64
		hasUsage := 0
		if e.Usage != nil {
			in, out = e.Usage.InputTokens, e.Usage.OutputTokens
			hasUsage = 1
		}
		var cost float64
		hasCost := 0
		if e.CostUSD != nil {
			cost = *e.CostUSD
			hasCost = 1
		}

		_, err := stmt.Exec(
			ref.Path, e.Project, e.Kind, e.Timestamp.UnixNano(),
			res.DateKey(e.Timestamp), res.Hour(e.Timestamp), res.MonthKey(e.Timestamp),
			in, out, hasUsage, cost, hasCost,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, ref.Path, ref.ModTime.UnixNano(), ref.SizeBytes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteFile removes a vanished file's rows and tracker record.
func (s *Store) DeleteFile(path string) error {
	if _, err := s.db.Exec("DELETE FROM entries WHERE file_path = ?", path); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", path)
	return err
}

// EntryCount returns the number of ingested entry rows.
func (s *Store) EntryCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}
