package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
)

// Fixture is a recorded node log plus the points in time at which its
// reconstruction is checked.
type Fixture struct {
	// Name uniquely identifies this fixture. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this fixture exercises.
	Description string `yaml:"description,omitempty"`

	// Events are appended in order. Each must be a legal lifecycle
	// transition for its node.
	Events []FixtureEvent `yaml:"events"`

	// Milestones are the as-of timestamps at which queries are run.
	Milestones []Milestone `yaml:"milestones"`
}

// FixtureEvent is one event of a fixture log.
type FixtureEvent struct {
	Node    string         `yaml:"node"`
	Graph   string         `yaml:"graph,omitempty"`
	Kind    string         `yaml:"kind"`
	TS      int64          `yaml:"ts"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Event converts e to an unsaved ir.Event.
func (e FixtureEvent) Event() ir.Event {
	return ir.Event{
		NodeID:    e.Node,
		Graph:     e.Graph,
		Kind:      ir.EventKind(e.Kind),
		Timestamp: e.TS,
		Payload:   e.Payload,
	}
}

// Milestone runs Checks as of At. With no checks, DefaultChecks are run.
type Milestone struct {
	At     int64   `yaml:"at"`
	Checks []Check `yaml:"checks,omitempty"`
}

// Check is one show query and its optional expectation.
type Check struct {
	Path       string `yaml:"path"`
	GroupBy    string `yaml:"groupBy,omitempty"`
	GroupLimit int    `yaml:"groupLimit,omitempty"`
	CountsOnly bool   `yaml:"countsOnly,omitempty"`
	Limit      *int   `yaml:"limit,omitempty"`
	Skip       *int   `yaml:"skip,omitempty"`

	// Expect is checked in addition to the oracle comparison.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect states the expected outcome of a check.
type Expect struct {
	// Nodes is the node id of each result element, in order: one per event
	// for ungrouped queries, one per node for grouped queries.
	Nodes []string `yaml:"nodes,omitempty"`

	// Total is the expected countsOnly total.
	Total *int `yaml:"total,omitempty"`

	// Error is the expected engine error code, e.g. INVALID_PATH.
	Error string `yaml:"error,omitempty"`
}

// DefaultChecks are run at milestones that list none: the raw history,
// current state and live count of the whole log.
func DefaultChecks() []Check {
	return []Check{
		{Path: "/"},
		{Path: "/", GroupBy: string(queryir.GroupByNode)},
		{Path: "/", CountsOnly: true},
	}
}

// Options returns the query options of c as of at.
func (c Check) Options(at int64) queryir.Options {
	return queryir.Options{
		Until:      queryir.Int64(at),
		GroupBy:    queryir.GroupBy(c.GroupBy),
		GroupLimit: c.GroupLimit,
		CountsOnly: c.CountsOnly,
		Limit:      c.Limit,
		Skip:       c.Skip,
	}
}

// String is a compact label, used in errors and golden snapshots.
func (c Check) String() string {
	parts := []string{c.Path}
	if c.GroupBy != "" {
		parts = append(parts, "groupBy="+c.GroupBy)
	}
	if c.GroupLimit != 0 {
		parts = append(parts, "groupLimit="+strconv.Itoa(c.GroupLimit))
	}
	if c.CountsOnly {
		parts = append(parts, "countsOnly")
	}
	if c.Limit != nil {
		parts = append(parts, "limit="+strconv.Itoa(*c.Limit))
	}
	if c.Skip != nil {
		parts = append(parts, "skip="+strconv.Itoa(*c.Skip))
	}
	return strings.Join(parts, " ")
}

// LoadFixture reads and parses a fixture YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateFixture(&f); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &f, nil
}

// validateFixture checks required fields. Lifecycle order is checked by the
// store when the fixture is set up.
func validateFixture(f *Fixture) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(f.Events) == 0 {
		return fmt.Errorf("events must contain at least one event")
	}
	if len(f.Milestones) == 0 {
		return fmt.Errorf("milestones must contain at least one milestone")
	}

	for i, e := range f.Events {
		if e.Node == "" {
			return fmt.Errorf("events[%d]: node is required", i)
		}
		if _, err := ir.ParseEventKind(e.Kind); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
		if e.TS < 0 {
			return fmt.Errorf("events[%d]: ts must be non-negative", i)
		}
	}

	for i, m := range f.Milestones {
		if m.At < 0 {
			return fmt.Errorf("milestones[%d]: at must be non-negative", i)
		}
		for j, c := range m.Checks {
			if c.Path == "" {
				return fmt.Errorf("milestones[%d].checks[%d]: path is required", i, j)
			}
		}
	}
	return nil
}
