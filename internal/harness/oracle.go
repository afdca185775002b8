package harness

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
	"github.com/roach88/nodelog/internal/querysql"
	"github.com/roach88/nodelog/internal/scope"
)

// Oracle computes show results directly from an in-memory copy of the log.
//
// It shares path parsing with the engine but none of the query pipeline:
// no clause builders, no SQL, no GroupByNode. A disagreement between the
// Oracle and the engine is a bug in one of them.
type Oracle struct {
	events []ir.Event
}

// NewOracle creates an Oracle over events as stored (Seq assigned).
func NewOracle(events []ir.Event) *Oracle {
	return &Oracle{events: slices.Clone(events)}
}

// Query returns what Engine.Query should return for path as of until.
// opts.Until is ignored.
func (o *Oracle) Query(path string, until int64, opts queryir.Options) (engine.Result, error) {
	if _, err := queryir.Validate(opts); err != nil {
		return engine.Result{}, err
	}
	sc, err := scope.Resolve(path)
	if err != nil {
		return engine.Result{}, err
	}
	if err := checkWindow(opts.Limit, opts.Skip); err != nil {
		return engine.Result{}, err
	}

	var visible []ir.Event
	for _, e := range o.events {
		if e.Timestamp > until {
			continue
		}
		ok, err := inScope(sc, e)
		if err != nil {
			return engine.Result{}, err
		}
		if ok {
			visible = append(visible, e)
		}
	}

	res := engine.Result{Mode: opts.Mode(), Scope: scope.Kind(sc), Until: until}
	switch res.Mode {
	case queryir.ModeEvents:
		sort.SliceStable(visible, func(i, j int) bool {
			if visible[i].Timestamp != visible[j].Timestamp {
				return visible[i].Timestamp < visible[j].Timestamp
			}
			return visible[i].Seq < visible[j].Seq
		})
		res.Events = window(visible, opts.Limit, opts.Skip)

	case queryir.ModeGrouped:
		histories := byNode(visible)
		ids := window(sortedKeys(histories), opts.Limit, opts.Skip)
		res.Nodes = []ir.GroupedNode{}
		for _, id := range ids {
			h := histories[id]
			if h[0].IsTombstone() {
				continue
			}
			n := min(opts.EffectiveGroupLimit(), len(h))
			res.Nodes = append(res.Nodes, ir.GroupedNode{NodeID: id, Events: h[:n]})
		}

	case queryir.ModeCount:
		for _, h := range byNode(visible) {
			if !h[0].IsTombstone() {
				res.Total++
			}
		}
	}
	return res, nil
}

func inScope(sc scope.Scope, e ir.Event) (bool, error) {
	switch s := sc.(type) {
	case scope.Database:
		return true, nil
	case scope.Graph:
		return e.Graph == s.Name, nil
	case scope.Collection:
		return e.Collection == s.Name, nil
	case scope.NodeGlob:
		return scope.MatchGlob(s.Pattern, e.NodeID)
	case scope.NodeBrace:
		return slices.Contains(s.IDs, e.NodeID), nil
	default:
		return false, fmt.Errorf("oracle: scope %T: %w", sc, querysql.ErrUnsupportedScope)
	}
}

// byNode returns each node's history, newest first.
func byNode(events []ir.Event) map[string][]ir.Event {
	out := make(map[string][]ir.Event)
	for _, e := range events {
		out[e.NodeID] = append(out[e.NodeID], e)
	}
	for _, h := range out {
		sort.SliceStable(h, func(i, j int) bool {
			if h[i].Timestamp != h[j].Timestamp {
				return h[i].Timestamp > h[j].Timestamp
			}
			return h[i].Seq > h[j].Seq
		})
	}
	return out
}

func sortedKeys(m map[string][]ir.Event) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkWindow(limit, skip *int) error {
	switch {
	case skip != nil && limit == nil:
		return fmt.Errorf("oracle: skip without limit: %w", querysql.ErrInvalidPagination)
	case limit != nil && *limit < 0, skip != nil && *skip < 0:
		return fmt.Errorf("oracle: negative window: %w", querysql.ErrInvalidPagination)
	}
	return nil
}

func window[T any](items []T, limit, skip *int) []T {
	out := []T{}
	start := 0
	if skip != nil {
		start = *skip
	}
	if start >= len(items) {
		return out
	}
	end := len(items)
	if limit != nil && start+*limit < end {
		end = start + *limit
	}
	return append(out, items[start:end]...)
}
