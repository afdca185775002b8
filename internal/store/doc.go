// Package store provides SQLite-backed durable storage for the node event log.
//
// The log is a single append-only events table. Every row is immutable;
// deletion is itself an event (kind "deleted").
//
// # Critical Patterns
//
// Content-addressed identity:
//   - events.id is computed by ir.EventID over canonical JSON
//   - re-appending an identical event is a no-op
//
// Per-node lifecycle:
//   - Append enforces created -> updated* -> deleted -> created ...
//   - timestamps never decrease within a node
//
// Deterministic reads:
//   - ReadEvents executes statements compiled by internal/querysql, which
//     always carry ORDER BY with a seq tiebreak
//   - read helpers return empty slices, never nil
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// The PostgreSQL variant lives in the pgstore subpackage.
package store
