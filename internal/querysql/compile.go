package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/nodelog/internal/queryir"
)

// EventColumns is the projection read by every statement. Scanners in the
// store packages depend on this order.
const EventColumns = "seq, id, node_id, collection, graph, kind, ts, payload"

// Plan is the composed input of Compile.
type Plan struct {
	Mode         queryir.Mode
	Until        int64
	Filters      Clause
	Initializers Clause
	Limit        Clause
}

// SQLCompiler compiles plans into statements for one dialect.
type SQLCompiler struct {
	Dialect Dialect
}

// NewSQLCompiler creates a compiler for d.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: d}
}

// Compile converts a plan to a parameterized statement.
//
// ModeEvents reads matching events ordered by (ts, seq) and applies the
// limit to raw events.
//
// ModeGrouped reads matching events ordered by (node_id, ts, seq). When a
// limit is present it bounds distinct nodes: a "page" CTE selects the node
// ids in the window first.
//
// ModeCount reads like ModeGrouped without a window.
//
// MANDATORY: every statement includes ORDER BY with a deterministic
// tiebreak. All values are parameterized.
func (c *SQLCompiler) Compile(p Plan) (Statement, error) {
	if c.Dialect == nil {
		return Statement{}, fmt.Errorf("compile: no dialect")
	}

	params := map[string]any{ParamUntil: p.Until}
	for _, cl := range []Clause{p.Filters, p.Initializers} {
		if err := mergeParams(params, cl.Params); err != nil {
			return Statement{}, err
		}
	}

	var ctes []string
	if !p.Initializers.IsEmpty() {
		ctes = append(ctes, p.Initializers.Query)
	}

	where := c.wherePredicate(p.Filters)

	var body string
	switch p.Mode {
	case queryir.ModeEvents:
		body = fmt.Sprintf("SELECT %s FROM events WHERE %s ORDER BY %s",
			EventColumns, where, c.eventOrderKey())
		if !p.Limit.IsEmpty() {
			body += " " + p.Limit.Query
			if err := mergeParams(params, p.Limit.Params); err != nil {
				return Statement{}, err
			}
		}

	case queryir.ModeGrouped, queryir.ModeCount:
		if p.Mode == queryir.ModeGrouped && !p.Limit.IsEmpty() {
			ctes = append(ctes, fmt.Sprintf(
				"page(node_id) AS (SELECT node_id FROM events WHERE %s GROUP BY node_id ORDER BY node_id %s ASC %s)",
				where, c.Dialect.Collate(), p.Limit.Query))
			if err := mergeParams(params, p.Limit.Params); err != nil {
				return Statement{}, err
			}
			where += " AND node_id IN (SELECT node_id FROM page)"
		}
		body = fmt.Sprintf("SELECT %s FROM events WHERE %s ORDER BY %s",
			EventColumns, where, c.nodeOrderKey())

	default:
		return Statement{}, fmt.Errorf("compile: unsupported mode %q", p.Mode)
	}

	sql := body
	if len(ctes) > 0 {
		sql = "WITH " + strings.Join(ctes, ", ") + " " + body
	}

	return Statement{SQL: sql, Params: params}, nil
}

// wherePredicate combines the as-of bound with the scope filter.
func (c *SQLCompiler) wherePredicate(filters Clause) string {
	where := "ts <= @" + ParamUntil
	if !filters.IsEmpty() {
		where += " AND (" + filters.Query + ")"
	}
	return where
}

// eventOrderKey orders raw history. seq is unique, so the order is total.
func (c *SQLCompiler) eventOrderKey() string {
	return "ts ASC, seq ASC"
}

// nodeOrderKey orders grouped reads by node, then history within a node.
func (c *SQLCompiler) nodeOrderKey() string {
	return fmt.Sprintf("node_id %s ASC, ts ASC, seq ASC", c.Dialect.Collate())
}
