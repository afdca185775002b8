package querysql

import (
	"errors"
	"fmt"
)

// ErrInvalidPagination is returned for limit/skip combinations with no
// defined window.
var ErrInvalidPagination = errors.New("invalid pagination")

// BuildLimitClause returns the result window.
//
//	no limit, no skip  empty clause
//	limit              LIMIT @limit
//	limit + skip       LIMIT @limit OFFSET @skip
//	skip without limit ErrInvalidPagination
//
// Negative values are rejected with ErrInvalidPagination.
func BuildLimitClause(limit, skip *int) (Clause, error) {
	if skip != nil && limit == nil {
		return Clause{}, fmt.Errorf("%w: skip requires limit", ErrInvalidPagination)
	}
	if limit == nil {
		return emptyClause(), nil
	}
	if *limit < 0 {
		return Clause{}, fmt.Errorf("%w: limit %d must be non-negative", ErrInvalidPagination, *limit)
	}
	if skip == nil {
		return Clause{
			Query:  "LIMIT @" + ParamLimit,
			Params: map[string]any{ParamLimit: int64(*limit)},
		}, nil
	}
	if *skip < 0 {
		return Clause{}, fmt.Errorf("%w: skip %d must be non-negative", ErrInvalidPagination, *skip)
	}
	return Clause{
		Query:  "LIMIT @" + ParamLimit + " OFFSET @" + ParamSkip,
		Params: map[string]any{ParamLimit: int64(*limit), ParamSkip: int64(*skip)},
	}, nil
}
