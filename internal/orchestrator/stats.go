package orchestrator

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BuildStats accumulates per-run build statistics behind its own mutex,
// kept separate from CompilationPlan's mutex per spec's "statistics and
// the error list are each behind their own mutex."
type BuildStats struct {
	mu sync.Mutex

	RunID       string
	FilesBuilt  int
	FilesFailed int
	Duration    time.Duration
}

// NewBuildStats seeds a BuildStats for the given run.
func NewBuildStats(runID string) *BuildStats {
	return &BuildStats{RunID: runID}
}

func (s *BuildStats) RecordSuccess(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesBuilt++
	s.Duration += d
}

func (s *BuildStats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesFailed++
}

// Snapshot returns a copy of the current counters, safe to read without
// holding the live mutex.
func (s *BuildStats) Snapshot() BuildStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildStats{RunID: s.RunID, FilesBuilt: s.FilesBuilt, FilesFailed: s.FilesFailed, Duration: s.Duration}
}

// StatsStore persists BuildStats snapshots to an on-disk sqlite database.
// This is a diagnostics aid only -- the scheduler never reads it back to
// make scheduling decisions.
type StatsStore struct {
	db *sql.DB
}

// OpenStatsStore opens (creating if absent) a sqlite-backed stats store
// at path, using the pure-Go modernc.org/sqlite driver (no cgo).
func OpenStatsStore(path string) (*StatsStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	const schema = `
CREATE TABLE IF NOT EXISTS build_runs (
	run_id       TEXT PRIMARY KEY,
	files_built  INTEGER NOT NULL,
	files_failed INTEGER NOT NULL,
	duration_ns  INTEGER NOT NULL,
	recorded_at  INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &StatsStore{db: db}, nil
}

func (s *StatsStore) Close() error {
	return s.db.Close()
}

// Record inserts (or replaces) the given snapshot's row.
func (s *StatsStore) Record(ctx context.Context, snap BuildStats) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO build_runs (run_id, files_built, files_failed, duration_ns, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		snap.RunID, snap.FilesBuilt, snap.FilesFailed, snap.Duration.Nanoseconds(), time.Now().Unix(),
	)
	return err
}

// Runs returns every recorded run ID, most recently recorded first.
func (s *StatsStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM build_runs ORDER BY recorded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
