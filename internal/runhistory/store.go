// Package runhistory persists one row per Cartographer.Analyze call to
// sqlite, so a caller can later ask "how has this project's resolved
// graph changed over time" without keeping every run in memory.
package runhistory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Snapshot is one recorded Analyze call.
type Snapshot struct {
	Project         string
	Entry           string
	Timestamp       time.Time
	Duration        time.Duration
	FileCount       int
	DependencyCount int
	DynamicCount    int
	UnresolvedCount int
	Error           string
}

// Store wraps a single sqlite connection, serialized behind a mutex:
// one writer at a time, retried past transient lock contention.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates (or reuses) the sqlite database at path and ensures the
// snapshots table exists.
func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
  project TEXT NOT NULL DEFAULT 'default',
  entry TEXT NOT NULL DEFAULT '',
  ts_utc TEXT NOT NULL,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  file_count INTEGER NOT NULL DEFAULT 0,
  dependency_count INTEGER NOT NULL DEFAULT 0,
  dynamic_count INTEGER NOT NULL DEFAULT 0,
  unresolved_count INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (project, ts_utc)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_project ON snapshots(project);
`)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot inserts one run snapshot, defaulting Project to
// "default" and Timestamp to now if unset.
func (s *Store) SaveSnapshot(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := strings.TrimSpace(snap.Project)
	if project == "" {
		project = "default"
	}
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return s.withRetry("save snapshot", func() error {
		_, err := s.db.Exec(`
INSERT INTO snapshots (
  project, entry, ts_utc, duration_ms, file_count, dependency_count,
  dynamic_count, unresolved_count, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project, ts_utc) DO UPDATE SET
  entry=excluded.entry,
  duration_ms=excluded.duration_ms,
  file_count=excluded.file_count,
  dependency_count=excluded.dependency_count,
  dynamic_count=excluded.dynamic_count,
  unresolved_count=excluded.unresolved_count,
  error=excluded.error
`,
			project, snap.Entry, ts.Format(time.RFC3339Nano), snap.Duration.Milliseconds(),
			snap.FileCount, snap.DependencyCount, snap.DynamicCount, snap.UnresolvedCount, snap.Error,
		)
		return err
	})
}

// LoadSnapshots returns every snapshot for project at or after since,
// oldest first. A zero since returns the full history.
func (s *Store) LoadSnapshots(project string, since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project = strings.TrimSpace(project)
	if project == "" {
		project = "default"
	}

	query := `
SELECT project, entry, ts_utc, duration_ms, file_count, dependency_count, dynamic_count, unresolved_count, error
FROM snapshots WHERE project = ?`
	args := []any{project}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC"

	var rows *sql.Rows
	err := s.withRetry("load snapshots", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Snapshot, 0)
	for rows.Next() {
		var (
			snap       Snapshot
			tsRaw      string
			durationMs int64
		)
		if err := rows.Scan(&snap.Project, &snap.Entry, &tsRaw, &durationMs,
			&snap.FileCount, &snap.DependencyCount, &snap.DynamicCount, &snap.UnresolvedCount, &snap.Error); err != nil {
			return nil, err
		}
		snap.Timestamp, _ = time.Parse(time.RFC3339Nano, tsRaw)
		snap.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Trend reports the unresolved-count delta between the oldest and
// newest snapshot for project since the given time, or (0, false) if
// fewer than two snapshots exist in that window.
func (s *Store) Trend(project string, since time.Time) (delta int, ok bool) {
	snaps, err := s.LoadSnapshots(project, since)
	if err != nil || len(snaps) < 2 {
		return 0, false
	}
	first, last := snaps[0], snaps[len(snaps)-1]
	return last.UnresolvedCount - first.UnresolvedCount, true
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
