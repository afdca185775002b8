package store

import (
	"context"
	"fmt"
)

// Stats summarizes the log.
type Stats struct {
	Events        int64 `json:"events"`
	Nodes         int64 `json:"nodes"`
	LastSeq       int64 `json:"last_seq"`
	LastTimestamp int64 `json:"last_timestamp"`
}

// Stats returns event and node counts and the highest seq and timestamp.
// All fields are zero for an empty log.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT node_id), COALESCE(MAX(seq), 0), COALESCE(MAX(ts), 0)
		FROM events
	`).Scan(&st.Events, &st.Nodes, &st.LastSeq, &st.LastTimestamp)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// Scopes lists the graph and collection names present in the log.
type Scopes struct {
	Graphs      []string `json:"graphs"`
	Collections []string `json:"collections"`
}

// ListScopes returns the distinct graphs and collections, each in byte
// order. Events outside any graph do not contribute a graph name.
func (s *Store) ListScopes(ctx context.Context) (Scopes, error) {
	graphs, err := s.distinct(ctx, `
		SELECT DISTINCT graph FROM events
		WHERE graph <> ''
		ORDER BY graph COLLATE BINARY ASC
	`)
	if err != nil {
		return Scopes{}, fmt.Errorf("list graphs: %w", err)
	}

	collections, err := s.distinct(ctx, `
		SELECT DISTINCT collection FROM events
		ORDER BY collection COLLATE BINARY ASC
	`)
	if err != nil {
		return Scopes{}, fmt.Errorf("list collections: %w", err)
	}

	return Scopes{Graphs: graphs, Collections: collections}, nil
}

func (s *Store) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return names, nil
}
