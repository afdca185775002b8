package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/nodelog/internal/ir"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		if i == 0 {
			mustAppend(t, s, ev("users/1", "", ir.KindCreated, 1))
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("events survived reopen: got %d, want 1", count)
	}

	for _, index := range []string{"idx_events_ts", "idx_events_node", "idx_events_graph", "idx_events_collection"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			index,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q not found: %v", index, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_RecordsVersions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	v, err := s.Meta(ctx, "schema_version")
	if err != nil {
		t.Fatalf("Meta() failed: %v", err)
	}
	if v != ir.SchemaVersion {
		t.Errorf("schema_version = %q, want %q", v, ir.SchemaVersion)
	}

	missing, err := s.Meta(ctx, "nope")
	if err != nil || missing != "" {
		t.Errorf("Meta(missing) = %q, %v; want empty, nil", missing, err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDialect(t *testing.T) {
	s := createTestStore(t)
	if got := s.Dialect().Name(); got != "sqlite" {
		t.Errorf("Dialect().Name() = %q, want sqlite", got)
	}
}
