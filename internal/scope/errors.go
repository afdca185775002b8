package scope

import (
	"errors"
	"fmt"
)

// ErrInvalidPath is returned (wrapped in a *PathError) when a path carries a
// recognized prefix but its remainder cannot be parsed into the expected
// shape.
var ErrInvalidPath = errors.New("invalid path")

var (
	errEmptyPattern = errors.New("empty pattern")
	errGlobBraces   = errors.New("braces are not allowed in a node glob, use /n/ for id lists")
	errGlobEscape   = errors.New("backslash escapes are not allowed in a node glob")
	errBadGlob      = errors.New("malformed glob pattern")
)

// PathError describes why a path was rejected.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidPath) match.
func (e *PathError) Unwrap() error {
	return ErrInvalidPath
}

func pathErrorf(path, format string, args ...any) error {
	return &PathError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
