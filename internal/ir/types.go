package ir

import "fmt"

// EventKind is the lifecycle transition recorded by an event.
type EventKind string

const (
	// KindCreated brings a node to life (first event, or re-creation after deletion).
	KindCreated EventKind = "created"

	// KindUpdated records a new state for a live node.
	KindUpdated EventKind = "updated"

	// KindDeleted is a tombstone. The node is not live after it.
	KindDeleted EventKind = "deleted"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case KindCreated, KindUpdated, KindDeleted:
		return true
	default:
		return false
	}
}

// ParseEventKind converts a string into an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("invalid event kind %q: must be created, updated or deleted", s)
	}
	return k, nil
}

// Event is an immutable fact appended to the node log.
//
// For a fixed NodeID, events are totally ordered by Timestamp with ties
// broken by Seq (the log insertion order assigned by the store).
type Event struct {
	ID         string         `json:"id"`
	Seq        int64          `json:"seq"`
	NodeID     string         `json:"node_id"`
	Collection string         `json:"collection"`
	Graph      string         `json:"graph,omitempty"`
	Kind       EventKind      `json:"kind"`
	Timestamp  int64          `json:"timestamp"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// IsTombstone reports whether the event marks its node as not live.
func (e Event) IsTombstone() bool {
	return e.Kind == KindDeleted
}

// GroupedNode is one node of a grouped reconstruction.
//
// Events holds up to groupLimit most recent events, newest first.
type GroupedNode struct {
	NodeID string  `json:"node_id"`
	Events []Event `json:"events"`
}

// Latest returns the most recent retained event.
func (g GroupedNode) Latest() Event {
	if len(g.Events) == 0 {
		return Event{}
	}
	return g.Events[0]
}

// Total is the single element of a counts-only result.
type Total struct {
	Total int `json:"total"`
}
