// Package querysql builds the parameterized SQL that reads a scope of the
// node log up to an as-of timestamp.
//
// The pipeline is a set of independent clause builders whose outputs are
// always present, possibly empty:
//
//	BuildFilters       the scope predicate (empty for Database)
//	BuildInitializers  a CTE materializing the NodeBrace id set (empty otherwise)
//	BuildLimitClause   the LIMIT/OFFSET window (empty when no limit)
//
// Compile composes them into a single Statement.
//
// CRITICAL: values are always bound as named parameters (@name), never
// interpolated. Every statement carries a deterministic ORDER BY with a
// binary-collation tiebreak on text keys.
//
// Backend differences (glob matching, set materialization, collation) are
// isolated behind Dialect. SQLite and PostgreSQL are provided.
package querysql
