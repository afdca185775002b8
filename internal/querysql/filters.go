package querysql

import (
	"errors"
	"fmt"

	"github.com/roach88/nodelog/internal/scope"
)

// ErrUnsupportedScope is returned for a scope variant the builders do not
// know. It indicates a programming error, not bad user input.
var ErrUnsupportedScope = errors.New("unsupported scope")

// nodeSetCTE is the name of the CTE produced by BuildInitializers.
const nodeSetCTE = "scope_nodes"

// BuildFilters returns the predicate restricting events to scope s.
//
//	Database    empty
//	Graph       graph = @scope_graph
//	Collection  collection = @scope_collection
//	NodeGlob    dialect glob match on node_id
//	NodeBrace   membership in the set materialized by BuildInitializers
//
// searchPattern is the output of scope.SearchPattern for the same path.
func BuildFilters(d Dialect, s scope.Scope, searchPattern string) (Clause, error) {
	switch s.(type) {
	case scope.Database:
		return emptyClause(), nil

	case scope.Graph:
		return Clause{
			Query:  "graph = @" + ParamGraph,
			Params: map[string]any{ParamGraph: searchPattern},
		}, nil

	case scope.Collection:
		return Clause{
			Query:  "collection = @" + ParamCollection,
			Params: map[string]any{ParamCollection: searchPattern},
		}, nil

	case scope.NodeGlob:
		glob, err := d.GlobParam(searchPattern)
		if err != nil {
			return Clause{}, &scope.PathError{Path: scope.PrefixNodeGlob + searchPattern, Reason: err.Error()}
		}
		return Clause{
			Query:  d.GlobMatch("node_id", ParamGlob),
			Params: map[string]any{ParamGlob: glob},
		}, nil

	case scope.NodeBrace:
		return Clause{
			Query:  fmt.Sprintf("node_id IN (SELECT id FROM %s)", nodeSetCTE),
			Params: map[string]any{},
		}, nil

	default:
		return Clause{}, fmt.Errorf("%w: %T", ErrUnsupportedScope, s)
	}
}
