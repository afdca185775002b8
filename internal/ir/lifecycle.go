package ir

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEvent is returned for an event that is malformed on its own.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrLifecycle is returned for an event that is well formed but not a
	// legal next step for its node.
	ErrLifecycle = errors.New("lifecycle violation")
)

// PrepareEvent validates e and fills its derived fields: Collection, the
// normalized Payload and the content-addressed ID. Seq is left untouched.
func PrepareEvent(e Event) (Event, error) {
	collection, _, err := SplitNodeID(e.NodeID)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if !e.Kind.Valid() {
		return Event{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	if e.Graph != "" && !ValidName(e.Graph) {
		return Event{}, fmt.Errorf("%w: invalid graph name %q", ErrInvalidEvent, e.Graph)
	}
	if e.Timestamp < 0 {
		return Event{}, fmt.Errorf("%w: negative timestamp %d", ErrInvalidEvent, e.Timestamp)
	}

	payload, err := NormalizePayload(e.Payload)
	if err != nil {
		return Event{}, fmt.Errorf("%w: payload: %v", ErrInvalidEvent, err)
	}

	id, err := EventID(e.NodeID, e.Graph, e.Kind, e.Timestamp, payload)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	e.Collection = collection
	e.Payload = payload
	e.ID = id
	return e, nil
}

// CheckTransition reports whether next may follow last in its node's
// history. last is nil for a node with no events.
//
//	absent   -> created
//	live     -> updated | deleted
//	deleted  -> created
//
// Timestamps never decrease within a node and a node never moves between
// graphs.
func CheckTransition(last *Event, next Event) error {
	if last == nil {
		if next.Kind != KindCreated {
			return fmt.Errorf("%w: %s: first event must be created, got %s", ErrLifecycle, next.NodeID, next.Kind)
		}
		return nil
	}

	if next.Timestamp < last.Timestamp {
		return fmt.Errorf("%w: %s: timestamp %d precedes %d", ErrLifecycle, next.NodeID, next.Timestamp, last.Timestamp)
	}
	if next.Graph != last.Graph {
		return fmt.Errorf("%w: %s: graph %q differs from %q", ErrLifecycle, next.NodeID, next.Graph, last.Graph)
	}

	switch {
	case last.IsTombstone() && next.Kind != KindCreated:
		return fmt.Errorf("%w: %s: %s after deleted", ErrLifecycle, next.NodeID, next.Kind)
	case !last.IsTombstone() && next.Kind == KindCreated:
		return fmt.Errorf("%w: %s: created while live", ErrLifecycle, next.NodeID)
	}
	return nil
}
