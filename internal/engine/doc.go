// Package engine implements point-in-time reconstruction over the node
// event log.
//
// A query flows through a fixed pipeline:
//
//	path -> scope -> search pattern -> filters + initializers -> limit
//	     -> compiled statement -> one LogReader read -> collapse
//
// The engine never writes. It depends only on the LogReader contract, so
// the SQLite and PostgreSQL stores are interchangeable.
//
// Three result shapes are produced:
//   - ungrouped: events with ts <= until, ascending (ts, seq), tombstones
//     included
//   - grouped by node: per node the groupLimit most recent events, newest
//     first, nodes whose newest event is a tombstone excluded
//   - countsOnly: the number of live nodes, as [{"total": n}]
//
// Pagination bounds raw events when ungrouped and distinct nodes when
// grouped. It is ignored by countsOnly.
package engine
