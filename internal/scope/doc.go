// Package scope classifies node-log paths into the subset of nodes they
// address.
//
// A path selects exactly one scope variant, by prefix, in fixed priority
// order:
//
//	/g/<name>/...      Graph       nodes belonging to a named graph
//	/c/<name>/...      Collection  nodes of a named collection
//	/ng/<glob>         NodeGlob    node ids matching a wildcard pattern
//	/n/{id1,id2,...}   NodeBrace   an explicit brace-enumerated id set
//	anything else      Database    every node
//
// Scope is a sealed interface. Consumers switch exhaustively over the five
// variants and treat anything else as a programming error.
//
// Capabilities are expressed as interfaces: every variant except Database is
// Filterable (its node set is described by a predicate), and only NodeBrace
// is Initializable (its id set must be materialized before filtering).
package scope
