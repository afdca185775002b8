package querysql

import (
	"database/sql"
	"fmt"
	"reflect"
	"slices"
)

// Bound parameter names.
const (
	ParamGraph      = "scope_graph"
	ParamCollection = "scope_collection"
	ParamGlob       = "scope_glob"
	ParamNodeIDs    = "scope_node_ids"
	ParamUntil      = "until"
	ParamLimit      = "limit"
	ParamSkip       = "skip"
)

// Clause is a query fragment with its bound parameters.
//
// The empty clause has Query == "" and no params. Builders always return a
// Clause, never a nil pointer, so composition needs no presence checks.
type Clause struct {
	Query  string
	Params map[string]any
}

// IsEmpty reports whether the clause contributes nothing.
func (c Clause) IsEmpty() bool {
	return c.Query == ""
}

func emptyClause() Clause {
	return Clause{Params: map[string]any{}}
}

// Statement is a complete parameterized query.
type Statement struct {
	SQL    string
	Params map[string]any
}

// Args returns the params as sql.Named values in name order, for
// database/sql drivers that bind named parameters.
func (s Statement) Args() []any {
	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	slices.Sort(names)

	args := make([]any, len(names))
	for i, name := range names {
		args[i] = sql.Named(name, s.Params[name])
	}
	return args
}

// mergeParams copies src into dst. A name bound twice must carry the same
// value.
func mergeParams(dst, src map[string]any) error {
	for k, v := range src {
		if prev, ok := dst[k]; ok && !reflect.DeepEqual(prev, v) {
			return fmt.Errorf("parameter @%s bound to conflicting values", k)
		}
		dst[k] = v
	}
	return nil
}
