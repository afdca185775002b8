package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/querysql"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ReadEvents executes a compiled statement and returns the events it
// selects, in statement order.
//
// The read runs inside a read-only transaction so that a statement with
// CTEs sees one WAL snapshot. Returns an empty slice (not nil) if nothing
// matches.
func (s *Store) ReadEvents(ctx context.Context, stmt querysql.Statement) ([]ir.Event, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("read events: begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, stmt.SQL, stmt.Args()...)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// ReadAll returns every event in log order (seq ASC). Used by export.
func (s *Store) ReadAll(ctx context.Context) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+querysql.EventColumns+`
		FROM events
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("read all events: %w", err)
	}
	return events, nil
}

// ReadNode returns the full history of one node ordered by (ts, seq).
func (s *Store) ReadNode(ctx context.Context, nodeID string) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+querysql.EventColumns+`
		FROM events
		WHERE node_id = ?
		ORDER BY ts ASC, seq ASC
	`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("query node %s: %w", nodeID, err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("read node %s: %w", nodeID, err)
	}
	return events, nil
}

func collectEvents(rows *sql.Rows) ([]ir.Event, error) {
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

// scanEvent scans one row in querysql.EventColumns order.
func scanEvent(row rowScanner) (ir.Event, error) {
	var e ir.Event
	var kind, payloadJSON string

	if err := row.Scan(
		&e.Seq, &e.ID, &e.NodeID, &e.Collection, &e.Graph, &kind, &e.Timestamp, &payloadJSON,
	); err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}

	e.Kind = ir.EventKind(kind)

	payload, err := unmarshalPayload(payloadJSON)
	if err != nil {
		return ir.Event{}, err
	}
	e.Payload = payload

	return e, nil
}
