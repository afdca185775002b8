package scope

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/nodelog/internal/ir"
)

// Resolve classifies path into a scope.
//
// Prefixes are checked in priority order /g/, /c/, /ng/, /n/. Any other path
// starting with "/" resolves to Database. A path that does not start with
// "/" is rejected.
//
// Resolve is a pure function and safe for concurrent use.
func Resolve(path string) (Scope, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, pathErrorf(path, "must start with %q", PrefixDatabase)
	}

	switch {
	case strings.HasPrefix(path, PrefixGraph):
		name, err := firstSegment(path, PrefixGraph)
		if err != nil {
			return nil, err
		}
		return Graph{Name: name}, nil

	case strings.HasPrefix(path, PrefixCollection):
		name, err := firstSegment(path, PrefixCollection)
		if err != nil {
			return nil, err
		}
		return Collection{Name: name}, nil

	case strings.HasPrefix(path, PrefixNodeGlob):
		pattern := strings.TrimPrefix(path, PrefixNodeGlob)
		if err := ValidateGlob(pattern); err != nil {
			return nil, &PathError{Path: path, Reason: err.Error()}
		}
		return NodeGlob{Pattern: pattern}, nil

	case strings.HasPrefix(path, PrefixNodeBrace):
		pattern := strings.TrimPrefix(path, PrefixNodeBrace)
		ids, err := ExpandNodeIDs(pattern)
		if err != nil {
			return nil, &PathError{Path: path, Reason: err.Error()}
		}
		return NodeBrace{Pattern: pattern, IDs: ids}, nil

	default:
		return Database{}, nil
	}
}

// firstSegment returns the name following prefix. Trailing segments are
// ignored: /g/people/anything addresses graph "people".
func firstSegment(path, prefix string) (string, error) {
	rest := strings.TrimPrefix(path, prefix)
	name, _, _ := strings.Cut(rest, "/")
	if name == "" {
		return "", pathErrorf(path, "missing name after %q", prefix)
	}
	if !ir.ValidName(name) {
		return "", pathErrorf(path, "invalid name %q", name)
	}
	return name, nil
}

// ValidateGlob checks that pattern is a usable node glob.
func ValidateGlob(pattern string) error {
	if pattern == "" {
		return errEmptyPattern
	}
	if strings.ContainsAny(pattern, "{}") {
		return errGlobBraces
	}
	if strings.Contains(pattern, `\`) {
		return errGlobEscape
	}
	if !doublestar.ValidatePattern(pattern) {
		return errBadGlob
	}
	return nil
}

// ExpandNodeIDs expands a brace pattern and validates every resulting id.
// Duplicates are dropped, keeping the first occurrence.
func ExpandNodeIDs(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, errEmptyPattern
	}
	expanded, err := ExpandBraces(pattern)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(expanded))
	ids := make([]string, 0, len(expanded))
	for _, id := range expanded {
		if err := ir.ValidateNodeID(id); err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
