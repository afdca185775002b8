package engine

import (
	"cmp"
	"slices"

	"github.com/roach88/nodelog/internal/ir"
)

// GroupByNode collapses events into per-node state.
//
// Each node keeps its groupLimit most recent events, newest first, where
// recency is (Timestamp, Seq). A node whose newest retained event is a
// tombstone is dropped. Nodes are returned in byte order of NodeID.
//
// The input need not be sorted. groupLimit < 1 is treated as 1.
func GroupByNode(events []ir.Event, groupLimit int) []ir.GroupedNode {
	if groupLimit < 1 {
		groupLimit = 1
	}

	nodes := []ir.GroupedNode{}
	for _, history := range partition(events) {
		newest := history[len(history)-1]
		if newest.IsTombstone() {
			continue
		}

		keep := min(groupLimit, len(history))
		retained := make([]ir.Event, 0, keep)
		for i := len(history) - 1; i >= len(history)-keep; i-- {
			retained = append(retained, history[i])
		}
		nodes = append(nodes, ir.GroupedNode{NodeID: newest.NodeID, Events: retained})
	}
	return nodes
}

// CountLive returns the number of nodes whose newest event is not a
// tombstone.
func CountLive(events []ir.Event) int {
	count := 0
	for _, history := range partition(events) {
		if !history[len(history)-1].IsTombstone() {
			count++
		}
	}
	return count
}

// partition splits events into per-node histories ordered oldest first.
// Histories are returned in byte order of NodeID.
func partition(events []ir.Event) [][]ir.Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b ir.Event) int {
		if c := cmp.Compare(a.NodeID, b.NodeID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	var out [][]ir.Event
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].NodeID != sorted[start].NodeID {
			out = append(out, sorted[start:i])
			start = i
		}
	}
	return out
}
