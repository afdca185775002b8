package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
)

// Canonical converts the payload of r to plain maps and slices that
// ir.MarshalCanonical accepts.
//
// Event ids and collections are omitted: ids are content hashes that make
// golden files unreadable, and collections are implied by node ids.
func Canonical(r engine.Result) (any, error) {
	switch r.Mode {
	case queryir.ModeGrouped:
		nodes := make([]any, len(r.Nodes))
		for i, n := range r.Nodes {
			nodes[i] = map[string]any{
				"node_id": n.NodeID,
				"events":  canonicalEvents(n.Events),
			}
		}
		return nodes, nil
	case queryir.ModeCount:
		return []any{map[string]any{"total": int64(r.Total)}}, nil
	default:
		return canonicalEvents(r.Events), nil
	}
}

func canonicalEvents(events []ir.Event) []any {
	out := make([]any, len(events))
	for i, e := range events {
		m := map[string]any{
			"seq":       e.Seq,
			"node_id":   e.NodeID,
			"kind":      string(e.Kind),
			"timestamp": e.Timestamp,
		}
		if e.Graph != "" {
			m["graph"] = e.Graph
		}
		if len(e.Payload) > 0 {
			m["payload"] = e.Payload
		}
		out[i] = m
	}
	return out
}

// snapshotMap converts a run result into the golden document.
func snapshotMap(result *Result) map[string]any {
	snaps := make([]any, len(result.Snapshots))
	for i, s := range result.Snapshots {
		m := map[string]any{
			"at":    s.At,
			"query": s.Query,
		}
		if s.Error != "" {
			m["error"] = s.Error
		} else {
			m["output"] = s.Output
		}
		snaps[i] = m
	}
	return map[string]any{
		"fixture":   result.Name,
		"snapshots": snaps,
	}
}

// GoldenBytes renders result as indented canonical JSON with a trailing
// newline.
func GoldenBytes(result *Result) ([]byte, error) {
	raw, err := ir.MarshalCanonical(snapshotMap(result))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RunWithGolden runs f, fails t on any check failure, and compares the
// snapshots against testdata/golden/{f.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, f *Fixture) *Result {
	t.Helper()

	result, err := Run(context.Background(), f)
	if err != nil {
		t.Fatalf("run fixture %s: %v", f.Name, err)
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	AssertGolden(t, f.Name, result)
	return result
}

// AssertGolden compares result's snapshots against the golden file for
// name, without re-running.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	data, err := GoldenBytes(result)
	if err != nil {
		t.Fatalf("render golden %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
