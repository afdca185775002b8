package httpapi

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/queryir"
)

// showRequest is the transport-independent form of a show call.
type showRequest struct {
	Path    string
	Options queryir.Options
}

// requestError is a request that could not be decoded.
type requestError struct {
	Code  engine.ErrorCode
	Field string
	Msg   string
}

func (e *requestError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// fieldCode is the error code reported for an undecodable field.
func fieldCode(field string) engine.ErrorCode {
	switch field {
	case "path":
		return engine.ErrCodeInvalidPath
	case "limit", "skip":
		return engine.ErrCodeInvalidPagination
	default:
		return engine.ErrCodeInvalidOptions
	}
}

func badField(field, format string, args ...any) *requestError {
	return &requestError{Code: fieldCode(field), Field: field, Msg: fmt.Sprintf(format, args...)}
}

// parseQuery decodes GET /show parameters. Empty values count as absent.
func parseQuery(q url.Values) (showRequest, *requestError) {
	req := showRequest{Path: q.Get("path")}
	opts := &req.Options

	if v := q.Get("until"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return showRequest{}, badField("until", "must be an integer timestamp")
		}
		opts.Until = &n
	}

	opts.GroupBy = queryir.GroupBy(q.Get("groupBy"))

	if v := q.Get("groupLimit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return showRequest{}, badField("groupLimit", "must be an integer")
		}
		opts.GroupLimit = n
	}

	if v := q.Get("countsOnly"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return showRequest{}, badField("countsOnly", "must be a boolean")
		}
		opts.CountsOnly = b
	}

	for _, f := range []struct {
		name string
		dst  **int
	}{{"limit", &opts.Limit}, {"skip", &opts.Skip}} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return showRequest{}, badField(f.name, "must be an integer")
		}
		*f.dst = &n
	}

	return req, nil
}

// parseBody decodes a POST /show JSON body. Null values count as absent.
func (s *Server) parseBody(r io.Reader) (showRequest, *requestError) {
	body, err := io.ReadAll(r)
	if err != nil {
		return showRequest{}, &requestError{Code: engine.ErrCodeInvalidOptions, Msg: fmt.Sprintf("read body: %v", err)}
	}

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return showRequest{}, &requestError{Code: engine.ErrCodeInvalidOptions, Msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if v.Type() != fastjson.TypeObject {
		return showRequest{}, &requestError{Code: engine.ErrCodeInvalidOptions, Msg: "body must be a JSON object"}
	}

	var req showRequest
	opts := &req.Options

	if f := field(v, "path"); f != nil {
		b, err := f.StringBytes()
		if err != nil {
			return showRequest{}, badField("path", "must be a string")
		}
		req.Path = string(b)
	}

	if f := field(v, "until"); f != nil {
		n, err := f.Int64()
		if err != nil {
			return showRequest{}, badField("until", "must be an integer timestamp")
		}
		opts.Until = &n
	}

	if f := field(v, "groupBy"); f != nil {
		b, err := f.StringBytes()
		if err != nil {
			return showRequest{}, badField("groupBy", "must be a string")
		}
		opts.GroupBy = queryir.GroupBy(b)
	}

	if f := field(v, "groupLimit"); f != nil {
		n, err := f.Int()
		if err != nil {
			return showRequest{}, badField("groupLimit", "must be an integer")
		}
		opts.GroupLimit = n
	}

	if f := field(v, "countsOnly"); f != nil {
		b, err := f.Bool()
		if err != nil {
			return showRequest{}, badField("countsOnly", "must be a boolean")
		}
		opts.CountsOnly = b
	}

	for _, name := range []string{"limit", "skip"} {
		f := field(v, name)
		if f == nil {
			continue
		}
		n, err := f.Int()
		if err != nil {
			return showRequest{}, badField(name, "must be an integer")
		}
		if name == "limit" {
			opts.Limit = &n
		} else {
			opts.Skip = &n
		}
	}

	return req, nil
}

// field returns the value of key, or nil when it is missing or null.
func field(v *fastjson.Value, key string) *fastjson.Value {
	f := v.Get(key)
	if f == nil || f.Type() == fastjson.TypeNull {
		return nil
	}
	return f
}
