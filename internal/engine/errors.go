package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/nodelog/internal/queryir"
	"github.com/roach88/nodelog/internal/querysql"
	"github.com/roach88/nodelog/internal/scope"
)

// QueryError is the error returned by Engine.Query and Engine.Show.
//
// QueryError includes structured fields so transports can map it to a
// status code and a stable machine-readable code.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the path the query addressed.
	Path string

	// Err is the underlying cause. errors.Is sees through it.
	Err error
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeInvalidPath indicates a malformed path.
	ErrCodeInvalidPath ErrorCode = "INVALID_PATH"

	// ErrCodeInvalidPagination indicates a limit/skip combination with no
	// defined window.
	ErrCodeInvalidPagination ErrorCode = "INVALID_PAGINATION"

	// ErrCodeInvalidOptions indicates unusable groupBy/groupLimit values.
	ErrCodeInvalidOptions ErrorCode = "INVALID_OPTIONS"

	// ErrCodeUnsupportedScope indicates a scope variant the clause
	// builders do not handle. This is a programming error.
	ErrCodeUnsupportedScope ErrorCode = "UNSUPPORTED_SCOPE"

	// ErrCodeReadFailed indicates the log store failed. The store error is
	// propagated unchanged in Err.
	ErrCodeReadFailed ErrorCode = "READ_FAILED"

	// ErrCodeInternal indicates statement compilation failed.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// newQueryError classifies err by the sentinel it wraps.
func newQueryError(path string, err error) *QueryError {
	code := ErrCodeInternal
	switch {
	case errors.Is(err, scope.ErrInvalidPath):
		code = ErrCodeInvalidPath
	case errors.Is(err, querysql.ErrInvalidPagination):
		code = ErrCodeInvalidPagination
	case errors.Is(err, queryir.ErrInvalidOptions):
		code = ErrCodeInvalidOptions
	case errors.Is(err, querysql.ErrUnsupportedScope):
		code = ErrCodeUnsupportedScope
	}
	return &QueryError{Code: code, Message: err.Error(), Path: path, Err: err}
}

func newReadError(path string, err error) *QueryError {
	return &QueryError{
		Code:    ErrCodeReadFailed,
		Message: fmt.Sprintf("read log: %v", err),
		Path:    path,
		Err:     err,
	}
}

// ErrorCodeOf returns the code of the QueryError in err's chain, or "" if
// there is none. Uses errors.As to handle wrapped errors.
func ErrorCodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsUserError reports whether err was caused by the request rather than by
// the engine or the store.
func IsUserError(err error) bool {
	switch ErrorCodeOf(err) {
	case ErrCodeInvalidPath, ErrCodeInvalidPagination, ErrCodeInvalidOptions:
		return true
	default:
		return false
	}
}
