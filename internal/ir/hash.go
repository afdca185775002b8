package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainEvent is the domain prefix for event identity.
// The version suffix allows a future algorithm migration.
const DomainEvent = "nodelog/event/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of an event.
//
// Seq is excluded: it is assigned by the store on append, and appending the
// same fact twice must yield the same ID so the second append is a no-op.
func EventID(nodeID, graph string, kind EventKind, ts int64, payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	obj := map[string]any{
		"node_id":   nodeID,
		"graph":     graph,
		"kind":      string(kind),
		"timestamp": ts,
		"payload":   payload,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEvent, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(nodeID, graph string, kind EventKind, ts int64, payload map[string]any) string {
	id, err := EventID(nodeID, graph, kind, ts, payload)
	if err != nil {
		panic(err)
	}
	return id
}
