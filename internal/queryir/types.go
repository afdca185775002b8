package queryir

// GroupBy selects how events are partitioned.
type GroupBy string

const (
	// GroupByNone returns raw events.
	GroupByNone GroupBy = ""

	// GroupByNode partitions events per node id.
	GroupByNode GroupBy = "node"
)

// DefaultGroupLimit is the "current state" case: one event per node.
const DefaultGroupLimit = 1

// Mode is the result shape of a query.
type Mode string

const (
	ModeEvents  Mode = "events"
	ModeGrouped Mode = "grouped"
	ModeCount   Mode = "count"
)

// Options are the recognized query options.
//
// Pointer fields distinguish "absent" from zero.
type Options struct {
	// Until is the as-of bound (inclusive). Nil means now.
	Until *int64 `json:"until,omitempty"`

	// GroupBy is "" or "node".
	GroupBy GroupBy `json:"groupBy,omitempty"`

	// GroupLimit is the number of most recent events kept per node.
	// Meaningful only with GroupBy; 0 means DefaultGroupLimit.
	GroupLimit int `json:"groupLimit,omitempty"`

	// CountsOnly returns only the live-node count.
	CountsOnly bool `json:"countsOnly,omitempty"`

	// Limit bounds raw events (ungrouped) or distinct nodes (grouped).
	Limit *int `json:"limit,omitempty"`

	// Skip offsets the window. Requires Limit.
	Skip *int `json:"skip,omitempty"`
}

// Mode returns the result mode selected by the options.
// CountsOnly takes precedence over GroupBy.
func (o Options) Mode() Mode {
	switch {
	case o.CountsOnly:
		return ModeCount
	case o.GroupBy == GroupByNode:
		return ModeGrouped
	default:
		return ModeEvents
	}
}

// EffectiveGroupLimit returns GroupLimit with the default applied.
func (o Options) EffectiveGroupLimit() int {
	if o.GroupLimit <= 0 {
		return DefaultGroupLimit
	}
	return o.GroupLimit
}

// Int returns a pointer to v. Convenience for building Options literals.
func Int(v int) *int {
	return &v
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
