package orchestrator

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildStatsRecordsUnderOwnMutex(t *testing.T) {
	s := NewBuildStats("run-1")
	s.RecordSuccess(10 * time.Millisecond)
	s.RecordSuccess(5 * time.Millisecond)
	s.RecordFailure()

	snap := s.Snapshot()
	if snap.FilesBuilt != 2 || snap.FilesFailed != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Duration != 15*time.Millisecond {
		t.Fatalf("expected accumulated duration, got %v", snap.Duration)
	}
}

func TestStatsStoreRoundTripsThroughSqlite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")
	store, err := OpenStatsStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStatsStore: %v", err)
	}
	defer store.Close()

	s := NewBuildStats("run-42")
	s.RecordSuccess(time.Second)
	if err := store.Record(context.Background(), s.Snapshot()); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := store.Runs(context.Background())
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0] != "run-42" {
		t.Fatalf("expected [run-42], got %v", runs)
	}
}
