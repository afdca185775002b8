package querysql

import (
	"fmt"

	"github.com/roach88/nodelog/internal/scope"
)

// BuildInitializers returns the setup clause scope s needs before filtering.
//
// Only NodeBrace needs one: its brace pattern is expanded, every id is
// validated, and the resulting set is bound as @scope_node_ids inside a
// "scope_nodes(id)" CTE that the NodeBrace filter tests membership against.
// Every other scope returns an empty clause.
func BuildInitializers(d Dialect, s scope.Scope, searchPattern string) (Clause, error) {
	switch s.(type) {
	case scope.Database, scope.Graph, scope.Collection, scope.NodeGlob:
		return emptyClause(), nil

	case scope.NodeBrace:
		ids, err := scope.ExpandNodeIDs(searchPattern)
		if err != nil {
			return Clause{}, &scope.PathError{Path: scope.PrefixNodeBrace + searchPattern, Reason: err.Error()}
		}
		set, err := d.NodeSetParam(ids)
		if err != nil {
			return Clause{}, err
		}
		return Clause{
			Query:  fmt.Sprintf("%s(id) AS (%s)", nodeSetCTE, d.NodeSetSource(ParamNodeIDs)),
			Params: map[string]any{ParamNodeIDs: set},
		}, nil

	default:
		return Clause{}, fmt.Errorf("%w: %T", ErrUnsupportedScope, s)
	}
}
