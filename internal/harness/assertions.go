package harness

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
)

// checkExpect compares a successful result against exp.
// Returns one message per mismatch.
func checkExpect(exp *Expect, got engine.Result) []string {
	if exp == nil {
		return nil
	}

	var errs []string
	if exp.Error != "" {
		errs = append(errs, fmt.Sprintf("expected error %s, got success", exp.Error))
	}

	if exp.Nodes != nil {
		actual := resultNodes(got)
		if !slices.Equal(exp.Nodes, actual) {
			errs = append(errs, fmt.Sprintf("nodes: expected %v, got %v", exp.Nodes, actual))
		}
	}

	if exp.Total != nil {
		if got.Mode != queryir.ModeCount {
			errs = append(errs, fmt.Sprintf("total expected but query mode is %s", got.Mode))
		} else if got.Total != *exp.Total {
			errs = append(errs, fmt.Sprintf("total: expected %d, got %d", *exp.Total, got.Total))
		}
	}
	return errs
}

// checkExpectError compares a failed query's code against exp.
func checkExpectError(exp *Expect, code string) []string {
	if exp == nil || exp.Error == "" {
		return []string{fmt.Sprintf("unexpected error %s", code)}
	}
	if exp.Error != code {
		return []string{fmt.Sprintf("expected error %s, got %s", exp.Error, code)}
	}
	return nil
}

// resultNodes lists the node id of each result element.
func resultNodes(r engine.Result) []string {
	ids := []string{}
	switch r.Mode {
	case queryir.ModeEvents:
		for _, e := range r.Events {
			ids = append(ids, e.NodeID)
		}
	case queryir.ModeGrouped:
		for _, n := range r.Nodes {
			ids = append(ids, n.NodeID)
		}
	}
	return ids
}

// compareCanonical returns "" if a and b serialize identically, or a
// description of the difference.
func compareCanonical(a, b engine.Result) string {
	ca, err := canonicalBytes(a)
	if err != nil {
		return err.Error()
	}
	cb, err := canonicalBytes(b)
	if err != nil {
		return err.Error()
	}
	if bytes.Equal(ca, cb) {
		return ""
	}
	return fmt.Sprintf("expected %s, got %s", ca, cb)
}

func canonicalBytes(r engine.Result) ([]byte, error) {
	v, err := Canonical(r)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(v)
}
