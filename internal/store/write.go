package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/querysql"
)

// Append validates e, checks it against its node's history and appends it.
//
// The returned event carries the derived fields (ID, Collection, Seq).
// Appending an event whose content ID is already stored is a no-op that
// returns the stored event with inserted=false.
//
// Errors wrap ir.ErrInvalidEvent or ir.ErrLifecycle for rejected events.
func (s *Store) Append(ctx context.Context, e ir.Event) (stored ir.Event, inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stored, inserted, err = appendTx(ctx, tx, e)
	if err != nil {
		return ir.Event{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return ir.Event{}, false, fmt.Errorf("append: commit: %w", err)
	}
	return stored, inserted, nil
}

// AppendBatch appends events in order inside one transaction. Either all
// events are applied or none are. Returns the number of newly inserted
// events.
func (s *Store) AppendBatch(ctx context.Context, events []ir.Event) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append batch: begin tx: %w", err)
	}
	defer tx.Rollback()

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

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append batch: commit: %w", err)
	}
	return count, nil
}

func appendTx(ctx context.Context, tx *sql.Tx, e ir.Event) (ir.Event, bool, error) {
	prepared, err := ir.PrepareEvent(e)
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: %w", err)
	}

	existing, err := scanEvent(tx.QueryRowContext(ctx,
		`SELECT `+querysql.EventColumns+` FROM events WHERE id = ?`, prepared.ID))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return ir.Event{}, false, fmt.Errorf("append: lookup id: %w", err)
	}

	last, err := lastEvent(ctx, tx, prepared.NodeID)
	if err != nil {
		return ir.Event{}, false, err
	}
	if err := ir.CheckTransition(last, prepared); err != nil {
		return ir.Event{}, false, fmt.Errorf("append: %w", err)
	}

	payloadJSON, err := marshalPayload(prepared.Payload)
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO events (id, node_id, collection, graph, kind, ts, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		prepared.ID,
		prepared.NodeID,
		prepared.Collection,
		prepared.Graph,
		string(prepared.Kind),
		prepared.Timestamp,
		payloadJSON,
	)
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: insert: %w", err)
	}

	prepared.Seq, err = result.LastInsertId()
	if err != nil {
		return ir.Event{}, false, fmt.Errorf("append: last insert id: %w", err)
	}
	return prepared, true, nil
}

// lastEvent returns the most recent event of a node, or nil if it has none.
func lastEvent(ctx context.Context, tx *sql.Tx, nodeID string) (*ir.Event, error) {
	e, err := scanEvent(tx.QueryRowContext(ctx, `
		SELECT `+querysql.EventColumns+` FROM events
		WHERE node_id = ?
		ORDER BY ts DESC, seq DESC
		LIMIT 1
	`, nodeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("append: read last event of %s: %w", nodeID, err)
	}
	return &e, nil
}
