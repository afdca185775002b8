package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
	"github.com/roach88/nodelog/internal/querysql"
	"github.com/roach88/nodelog/internal/scope"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ev builds an event with the given identity and no payload.
func ev(nodeID, graph string, kind ir.EventKind, ts int64) ir.Event {
	return ir.Event{NodeID: nodeID, Graph: graph, Kind: kind, Timestamp: ts}
}

// mustAppend appends events in order and fails the test on error.
func mustAppend(t *testing.T, s *Store, events ...ir.Event) {
	t.Helper()
	for _, e := range events {
		if _, _, err := s.Append(context.Background(), e); err != nil {
			t.Fatalf("Append(%s %s @%d) failed: %v", e.NodeID, e.Kind, e.Timestamp, err)
		}
	}
}

// compile builds the statement the engine would run for path.
func compile(t *testing.T, path string, mode queryir.Mode, until int64, limit, skip *int) querysql.Statement {
	t.Helper()
	sc, err := scope.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", path, err)
	}
	pattern := scope.SearchPattern(sc, path)

	d := querysql.SQLite{}
	filters, err := querysql.BuildFilters(d, sc, pattern)
	if err != nil {
		t.Fatalf("BuildFilters failed: %v", err)
	}
	inits, err := querysql.BuildInitializers(d, sc, pattern)
	if err != nil {
		t.Fatalf("BuildInitializers failed: %v", err)
	}
	lim, err := querysql.BuildLimitClause(limit, skip)
	if err != nil {
		t.Fatalf("BuildLimitClause failed: %v", err)
	}

	stmt, err := querysql.NewSQLCompiler(d).Compile(querysql.Plan{
		Mode:         mode,
		Until:        until,
		Filters:      filters,
		Initializers: inits,
		Limit:        lim,
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return stmt
}

func nodeIDs(events []ir.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.NodeID
	}
	return ids
}
