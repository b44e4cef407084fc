package runhistory

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSaveAndLoadSnapshots(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snaps := []Snapshot{
		{Project: "web", Entry: "./main", Timestamp: base, FileCount: 3, UnresolvedCount: 2},
		{Project: "web", Entry: "./main", Timestamp: base.Add(time.Hour), FileCount: 4, UnresolvedCount: 0},
	}
	for _, snap := range snaps {
		if err := s.SaveSnapshot(snap); err != nil {
			t.Fatal(err)
		}
	}

	loaded, err := s.LoadSnapshots("web", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(loaded))
	}
	if loaded[0].FileCount != 3 || loaded[1].FileCount != 4 {
		t.Errorf("got %+v", loaded)
	}
}

func TestSaveSnapshotDefaultsProjectAndTimestamp(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SaveSnapshot(Snapshot{Entry: "./main"}); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadSnapshots("", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(loaded))
	}
	if loaded[0].Project != "default" {
		t.Errorf("got project %q, want default", loaded[0].Project)
	}
	if loaded[0].Timestamp.IsZero() {
		t.Error("expected a defaulted timestamp")
	}
}

func TestSaveSnapshotUpsertsOnConflict(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.SaveSnapshot(Snapshot{Project: "web", Timestamp: ts, FileCount: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot(Snapshot{Project: "web", Timestamp: ts, FileCount: 9}); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadSnapshots("web", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d rows, want 1 after upsert", len(loaded))
	}
	if loaded[0].FileCount != 9 {
		t.Errorf("got FileCount=%d, want 9", loaded[0].FileCount)
	}
}

func TestTrendComputesUnresolvedDelta(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.SaveSnapshot(Snapshot{Project: "web", Timestamp: base, UnresolvedCount: 5}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot(Snapshot{Project: "web", Timestamp: base.Add(time.Hour), UnresolvedCount: 2}); err != nil {
		t.Fatal(err)
	}

	delta, ok := s.Trend("web", time.Time{})
	if !ok {
		t.Fatal("expected a trend with two snapshots")
	}
	if delta != -3 {
		t.Errorf("got delta=%d, want -3", delta)
	}
}

func TestTrendNeedsAtLeastTwoSnapshots(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SaveSnapshot(Snapshot{Project: "web"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Trend("web", time.Time{}); ok {
		t.Fatal("expected no trend with a single snapshot")
	}
}
