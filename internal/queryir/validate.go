package queryir

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned when option values have no defined meaning.
var ErrInvalidOptions = errors.New("invalid query options")

// ValidationResult carries the non-fatal findings of Validate.
type ValidationResult struct {
	// Warnings lists options that are accepted but ignored.
	Warnings []string
}

// Validate checks option values and combinations.
//
// Errors (wrapping ErrInvalidOptions):
//   - GroupBy other than "" or "node"
//   - negative GroupLimit
//
// Warnings:
//   - GroupLimit without GroupBy (ignored)
//   - Limit/Skip together with CountsOnly (ignored, the count is over all live nodes)
//   - GroupLimit with CountsOnly (ignored, distinct live nodes are counted)
//
// Validate is a pure function with no side effects.
func Validate(opts Options) (ValidationResult, error) {
	v := &validator{warnings: []string{}}

	switch opts.GroupBy {
	case GroupByNone, GroupByNode:
	default:
		return ValidationResult{}, fmt.Errorf("%w: groupBy %q must be empty or %q", ErrInvalidOptions, opts.GroupBy, GroupByNode)
	}

	if opts.GroupLimit < 0 {
		return ValidationResult{}, fmt.Errorf("%w: groupLimit %d must be a positive integer", ErrInvalidOptions, opts.GroupLimit)
	}

	if opts.GroupLimit > 0 && opts.GroupBy == GroupByNone && !opts.CountsOnly {
		v.addWarning("groupLimit %d ignored without groupBy", opts.GroupLimit)
	}

	if opts.CountsOnly {
		if opts.Limit != nil || opts.Skip != nil {
			v.addWarning("limit/skip ignored with countsOnly")
		}
		if opts.GroupLimit > 1 {
			v.addWarning("groupLimit %d ignored with countsOnly", opts.GroupLimit)
		}
	}

	return ValidationResult{Warnings: v.warnings}, nil
}

// validator accumulates warnings.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}
