package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/store"
	"github.com/roach88/nodelog/internal/testutil"
)

// Env is a fixture loaded into a fresh store, with an engine over it.
//
// Create with Setup and release with Teardown.
type Env struct {
	Fixture *Fixture
	Store   *store.Store
	Engine  *engine.Engine
	Oracle  *Oracle

	// Clock drives the engine's default "until". It starts at the largest
	// fixture timestamp.
	Clock *testutil.FixedClock

	// Events are the fixture events as stored, in append order.
	Events []ir.Event

	dir string
}

// Setup appends the fixture's events to a store in a new temp directory and
// builds an engine and an oracle over it.
func Setup(ctx context.Context, f *Fixture) (*Env, error) {
	dir, err := os.MkdirTemp("", "nodelog-fixture-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	st, err := store.Open(filepath.Join(dir, "fixture.db"))
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	env := &Env{Fixture: f, Store: st, dir: dir}

	var latest int64
	for i, fe := range f.Events {
		stored, _, err := st.Append(ctx, fe.Event())
		if err != nil {
			env.Teardown()
			return nil, fmt.Errorf("events[%d] %s %s@%d: %w", i, fe.Node, fe.Kind, fe.TS, err)
		}
		env.Events = append(env.Events, stored)
		latest = max(latest, stored.Timestamp)
	}

	env.Clock = testutil.NewFixedClock(latest)
	env.Engine = engine.New(st, engine.WithClock(env.Clock))
	env.Oracle = NewOracle(env.Events)
	return env, nil
}

// Teardown closes the store and removes the temp directory.
func (e *Env) Teardown() error {
	var err error
	if e.Store != nil {
		err = e.Store.Close()
	}
	if rmErr := os.RemoveAll(e.dir); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// Run sets up f, runs every milestone and tears down.
//
// At each milestone every check is run twice against the engine. The result
// must be identical both times, agree with the Oracle and meet the check's
// Expect. Count consistency (countsOnly total equals the number of grouped
// nodes) is checked for every distinct path of the milestone.
func Run(ctx context.Context, f *Fixture) (*Result, error) {
	env, err := Setup(ctx, f)
	if err != nil {
		return nil, err
	}
	defer env.Teardown()

	result := NewResult(f.Name)
	for _, m := range f.Milestones {
		checks := m.Checks
		if len(checks) == 0 {
			checks = DefaultChecks()
		}

		paths := []string{}
		seen := map[string]bool{}
		for _, c := range checks {
			result.Snapshots = append(result.Snapshots, env.runCheck(ctx, m.At, c, result))
			if !seen[c.Path] {
				seen[c.Path] = true
				paths = append(paths, c.Path)
			}
		}
		for _, p := range paths {
			env.checkCountConsistency(ctx, m.At, p, result)
		}
	}
	return result, nil
}

// runCheck runs c as of at and records any failure in result.
func (e *Env) runCheck(ctx context.Context, at int64, c Check, result *Result) Snapshot {
	label := fmt.Sprintf("@%d %s", at, c)
	snap := Snapshot{At: at, Query: c.String()}
	opts := c.Options(at)

	got, err := e.Engine.Query(ctx, c.Path, opts)
	want, oracleErr := e.Oracle.Query(c.Path, at, opts)

	if err != nil {
		snap.Error = string(engine.ErrorCodeOf(err))
		if oracleErr == nil {
			result.AddError(fmt.Sprintf("%s: engine failed but oracle succeeded: %v", label, err))
		}
		for _, msg := range checkExpectError(c.Expect, snap.Error) {
			result.AddError(label + ": " + msg)
		}
		return snap
	}
	if oracleErr != nil {
		result.AddError(fmt.Sprintf("%s: oracle failed but engine succeeded: %v", label, oracleErr))
	}

	out, err := Canonical(got)
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", label, err))
		return snap
	}
	snap.Output = out

	again, err := e.Engine.Query(ctx, c.Path, opts)
	if err != nil {
		result.AddError(fmt.Sprintf("%s: second run failed: %v", label, err))
	} else if msg := compareCanonical(got, again); msg != "" {
		result.AddError(fmt.Sprintf("%s: not idempotent: %s", label, msg))
	}

	if oracleErr == nil {
		if msg := compareCanonical(want, got); msg != "" {
			result.AddError(fmt.Sprintf("%s: differs from oracle: %s", label, msg))
		}
	}

	for _, msg := range checkExpect(c.Expect, got) {
		result.AddError(label + ": " + msg)
	}
	return snap
}

func (e *Env) checkCountConsistency(ctx context.Context, at int64, path string, result *Result) {
	grouped, err := e.Engine.Query(ctx, path, Check{Path: path, GroupBy: "node"}.Options(at))
	if err != nil {
		return
	}
	count, err := e.Engine.Query(ctx, path, Check{Path: path, CountsOnly: true}.Options(at))
	if err != nil {
		result.AddError(fmt.Sprintf("@%d %s: grouped succeeded but countsOnly failed: %v", at, path, err))
		return
	}
	if count.Total != len(grouped.Nodes) {
		result.AddError(fmt.Sprintf("@%d %s: countsOnly total %d != %d grouped nodes", at, path, count.Total, len(grouped.Nodes)))
	}
}
