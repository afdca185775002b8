package querysql

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/nodelog/internal/scope"
)

// Dialect isolates the backend-specific SQL fragments.
type Dialect interface {
	// Name identifies the dialect in logs and errors.
	Name() string

	// GlobMatch returns a predicate matching column against the glob bound
	// to param.
	GlobMatch(column, param string) string

	// GlobParam converts a node glob into the value bound for GlobMatch.
	GlobParam(pattern string) (any, error)

	// NodeSetSource returns a SELECT yielding one row per id in the set
	// bound to param.
	NodeSetSource(param string) string

	// NodeSetParam converts an id set into the value bound for NodeSetSource.
	NodeSetParam(ids []string) (any, error)

	// Collate returns the collation clause giving byte-wise text ordering.
	Collate() string
}

// SQLite is the dialect of github.com/mattn/go-sqlite3.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) GlobMatch(column, param string) string {
	return fmt.Sprintf("%s GLOB @%s", column, param)
}

// GlobParam rewrites the [!...] negation, which GLOB does not understand,
// into [^...].
func (SQLite) GlobParam(pattern string) (any, error) {
	return scope.SQLiteGlob(pattern)
}

func (SQLite) NodeSetSource(param string) string {
	return fmt.Sprintf("SELECT value FROM json_each(@%s)", param)
}

func (SQLite) NodeSetParam(ids []string) (any, error) {
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode node set: %w", err)
	}
	return string(data), nil
}

func (SQLite) Collate() string { return "COLLATE BINARY" }

// Postgres is the dialect of github.com/jackc/pgx/v5.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) GlobMatch(column, param string) string {
	return fmt.Sprintf("%s ~ @%s", column, param)
}

func (Postgres) GlobParam(pattern string) (any, error) {
	return scope.GlobRegexp(pattern)
}

func (Postgres) NodeSetSource(param string) string {
	return fmt.Sprintf("SELECT unnest(CAST(@%s AS text[]))", param)
}

func (Postgres) NodeSetParam(ids []string) (any, error) {
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func (Postgres) Collate() string { return `COLLATE "C"` }
