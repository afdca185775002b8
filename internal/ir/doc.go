// Package ir provides the canonical types of the node event log.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Events are immutable; deletion is itself an event
//   - Event IDs are content addressed (RFC 8785 canonical JSON + SHA-256)
//   - Payload numbers are integers; floats with a fractional part are rejected
//   - All JSON tags use snake_case
package ir
