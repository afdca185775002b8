// Package queryir describes a show query independently of how it is executed.
//
// A show query is the triple (path, as-of timestamp, Options). Options select
// one of three result modes:
//
//	ModeEvents   raw ungrouped history, ascending by (timestamp, seq)
//	ModeGrouped  one entry per live node holding its GroupLimit most recent events
//	ModeCount    a single {total} with the number of live nodes
//
// Validate rejects option combinations that have no defined meaning and warns
// about options that are accepted but ignored. Pagination (limit/skip) is
// validated by the clause builder in querysql, where it is composed.
package queryir
