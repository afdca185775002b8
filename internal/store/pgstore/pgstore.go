// Package pgstore is the PostgreSQL node event log.
//
// It stores the same events table as the SQLite store and answers the same
// compiled statements, built with querysql.Postgres. Reads run in a
// REPEATABLE READ read-only transaction.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/querysql"
)

// Store is a PostgreSQL-backed node event log.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := New(pool)
	if err := s.EnsureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Dialect returns querysql.Postgres.
func (s *Store) Dialect() querysql.Dialect {
	return querysql.Postgres{}
}

// EnsureTable creates the events table and its indexes if they don't exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			seq        BIGSERIAL PRIMARY KEY,
			id         TEXT   NOT NULL UNIQUE,
			node_id    TEXT   NOT NULL,
			collection TEXT   NOT NULL,
			graph      TEXT   NOT NULL DEFAULT '',
			kind       TEXT   NOT NULL CHECK (kind IN ('created', 'updated', 'deleted')),
			ts         BIGINT NOT NULL,
			payload    TEXT   NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_events_node ON events(node_id COLLATE "C", ts, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_events_graph ON events(graph, node_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_collection ON events(collection, node_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure table: %w", err)
		}
	}
	return nil
}

// Append validates e, checks it against its node's history and appends it.
// Semantics match the SQLite store: idempotent on content ID, errors wrap
// ir.ErrInvalidEvent or ir.ErrLifecycle.
func (s *Store) Append(ctx context.Context, e ir.Event) (ir.Event, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stored, inserted, err := appendTx(ctx, tx, e)
	if err != nil {
		return ir.Event{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ir.Event{}, false, fmt.Errorf("append: commit: %w", err)
	}
	return stored, inserted, nil
}

// AppendBatch appends events in order inside one transaction.
func (s *Store) AppendBatch(ctx context.Context, events []ir.Event) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("append batch: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	count := 0
	for i, e := range events {
		_, inserted, err := appendTx(ctx, tx, e)
		if err != nil {
			return 0, fmt.Errorf("append batch: event %d: %w", i, err)
		}
		if inserted {
			count++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("append batch: commit: %w", err)
	}
	return count, nil
}

func appendTx(ctx context.Context, tx pgx.Tx, e ir.Event) (ir.Event, bool, error) {
	prepared, err := ir.PrepareEvent(e)
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: %w", err)
	}

	// Serializes writers of the same node until commit.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, prepared.NodeID); err != nil {
		return ir.Event{}, false, fmt.Errorf("append: lock node: %w", err)
	}

	existing, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+querysql.EventColumns+` FROM events WHERE id = $1`, prepared.ID))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return ir.Event{}, false, fmt.Errorf("append: lookup id: %w", err)
	}

	var last *ir.Event
	prev, err := scanEvent(tx.QueryRow(ctx, `
		SELECT `+querysql.EventColumns+` FROM events
		WHERE node_id = $1
		ORDER BY ts DESC, seq DESC
		LIMIT 1`, prepared.NodeID))
	switch {
	case err == nil:
		last = &prev
	case !errors.Is(err, pgx.ErrNoRows):
		return ir.Event{}, false, fmt.Errorf("append: read last event of %s: %w", prepared.NodeID, err)
	}

	if err := ir.CheckTransition(last, prepared); err != nil {
		return ir.Event{}, false, fmt.Errorf("append: %w", err)
	}

	payloadJSON, err := ir.MarshalCanonical(prepared.Payload)
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: marshal payload: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO events (id, node_id, collection, graph, kind, ts, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`,
		prepared.ID, prepared.NodeID, prepared.Collection, prepared.Graph,
		string(prepared.Kind), prepared.Timestamp, string(payloadJSON),
	).Scan(&prepared.Seq)
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: insert: %w", err)
	}
	return prepared, true, nil
}

// ReadEvents executes a compiled statement. Named parameters are bound
// with pgx.NamedArgs. Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEvents(ctx context.Context, stmt querysql.Statement) ([]ir.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("read events: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, stmt.SQL, pgx.NamedArgs(stmt.Params))
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// ReadAll returns every event in log order (seq ASC).
func (s *Store) ReadAll(ctx context.Context) ([]ir.Event, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+querysql.EventColumns+` FROM events ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query all events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("read all events: %w", err)
	}
	return events, nil
}

func collectEvents(rows pgx.Rows) ([]ir.Event, error) {
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (ir.Event, error) {
	var e ir.Event
	var kind, payloadJSON string

	if err := row.Scan(
		&e.Seq, &e.ID, &e.NodeID, &e.Collection, &e.Graph, &kind, &e.Timestamp, &payloadJSON,
	); err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}

	e.Kind = ir.EventKind(kind)

	payload, err := ir.DecodePayload([]byte(payloadJSON))
	if err != nil {
		return ir.Event{}, err
	}
	e.Payload = payload
	return e, nil
}
