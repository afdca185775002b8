package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
	"github.com/roach88/nodelog/internal/store"
	"github.com/roach88/nodelog/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	_, err = s.AppendBatch(ctx, []ir.Event{
		{NodeID: "users/1", Graph: "people", Kind: ir.KindCreated, Timestamp: 10, Payload: map[string]any{"name": "ada"}},
		{NodeID: "orders/a", Graph: "sales", Kind: ir.KindCreated, Timestamp: 15},
		{NodeID: "users/2", Graph: "people", Kind: ir.KindCreated, Timestamp: 20},
		{NodeID: "users/2", Graph: "people", Kind: ir.KindDeleted, Timestamp: 30},
		{NodeID: "users/1", Graph: "people", Kind: ir.KindUpdated, Timestamp: 40, Payload: map[string]any{"name": "ada l."}},
	})
	require.NoError(t, err)

	eng := engine.New(s, engine.WithClock(testutil.NewFixedClock(1000)))
	return New(eng, WithIDGenerator(testutil.NewFixedIDGenerator("req-1")))
}

func get(t *testing.T, h http.Handler, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/show?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/show", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestShow_QueryAndBodyAgree(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		params url.Values
		body   string
	}{
		{
			name:   "ungrouped collection",
			params: url.Values{"path": {"/c/users"}, "until": {"35"}},
			body:   `{"path":"/c/users","until":35}`,
		},
		{
			name:   "grouped database",
			params: url.Values{"path": {"/"}, "groupBy": {"node"}, "groupLimit": {"2"}},
			body:   `{"path":"/","groupBy":"node","groupLimit":2}`,
		},
		{
			name:   "counts only",
			params: url.Values{"path": {"/g/people"}, "countsOnly": {"true"}, "until": {"25"}},
			body:   `{"path":"/g/people","countsOnly":true,"until":25}`,
		},
		{
			name:   "paginated brace",
			params: url.Values{"path": {"/n/{users/1,users/2,orders/a}"}, "limit": {"2"}, "skip": {"1"}},
			body:   `{"path":"/n/{users/1,users/2,orders/a}","limit":2,"skip":1}`,
		},
		{
			name:   "null fields are absent",
			params: url.Values{"path": {"/ng/users/*"}},
			body:   `{"path":"/ng/users/*","until":null,"limit":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := get(t, srv, tt.params)
			p := post(t, srv, tt.body)

			require.Equal(t, http.StatusOK, g.Code, g.Body.String())
			require.Equal(t, http.StatusOK, p.Code, p.Body.String())
			assert.JSONEq(t, g.Body.String(), p.Body.String())
			assert.Equal(t, "application/json", g.Header().Get("Content-Type"))
		})
	}
}

func TestShow_Payloads(t *testing.T) {
	srv := newTestServer(t)

	t.Run("grouped drops deleted nodes", func(t *testing.T) {
		rec := get(t, srv, url.Values{"path": {"/g/people"}, "groupBy": {"node"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var nodes []ir.GroupedNode
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
		require.Len(t, nodes, 1)
		assert.Equal(t, "users/1", nodes[0].NodeID)
		assert.Equal(t, ir.KindUpdated, nodes[0].Latest().Kind)
	})

	t.Run("counts only", func(t *testing.T) {
		rec := post(t, srv, `{"path":"/","countsOnly":true}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"total":2}]`, rec.Body.String())
	})

	t.Run("empty is not an error", func(t *testing.T) {
		rec := get(t, srv, url.Values{"path": {"/c/invoices"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestShow_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name     string
		do       func() *httptest.ResponseRecorder
		wantCode engine.ErrorCode
	}{
		{"missing path", func() *httptest.ResponseRecorder {
			return get(t, srv, url.Values{})
		}, engine.ErrCodeInvalidPath},
		{"relative path", func() *httptest.ResponseRecorder {
			return get(t, srv, url.Values{"path": {"c/users"}})
		}, engine.ErrCodeInvalidPath},
		{"unbalanced brace", func() *httptest.ResponseRecorder {
			return post(t, srv, `{"path":"/n/{users/1"}`)
		}, engine.ErrCodeInvalidPath},
		{"negative limit", func() *httptest.ResponseRecorder {
			return get(t, srv, url.Values{"path": {"/"}, "limit": {"-1"}})
		}, engine.ErrCodeInvalidPagination},
		{"skip without limit", func() *httptest.ResponseRecorder {
			return post(t, srv, `{"path":"/","skip":2}`)
		}, engine.ErrCodeInvalidPagination},
		{"non-integer limit", func() *httptest.ResponseRecorder {
			return get(t, srv, url.Values{"path": {"/"}, "limit": {"ten"}})
		}, engine.ErrCodeInvalidPagination},
		{"bad groupBy", func() *httptest.ResponseRecorder {
			return get(t, srv, url.Values{"path": {"/"}, "groupBy": {"graph"}})
		}, engine.ErrCodeInvalidOptions},
		{"string until", func() *httptest.ResponseRecorder {
			return post(t, srv, `{"path":"/","until":"yesterday"}`)
		}, engine.ErrCodeInvalidOptions},
		{"path not a string", func() *httptest.ResponseRecorder {
			return post(t, srv, `{"path":42}`)
		}, engine.ErrCodeInvalidPath},
		{"malformed json", func() *httptest.ResponseRecorder {
			return post(t, srv, `{"path":`)
		}, engine.ErrCodeInvalidOptions},
		{"array body", func() *httptest.ResponseRecorder {
			return post(t, srv, `["/"]`)
		}, engine.ErrCodeInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.do()
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, string(tt.wantCode), decodeError(t, rec).Code)
		})
	}
}

type stubShower struct {
	err error
}

func (s stubShower) Show(context.Context, string, queryir.Options) (any, error) {
	return nil, s.err
}

func TestShow_ServerErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&engine.QueryError{Code: engine.ErrCodeReadFailed, Message: "disk gone", Err: errors.New("disk gone")}, http.StatusServiceUnavailable},
		{&engine.QueryError{Code: engine.ErrCodeUnsupportedScope, Message: "scope"}, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		srv := New(stubShower{err: tt.err})
		rec := get(t, srv, url.Values{"path": {"/"}})
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.NotEmpty(t, decodeError(t, rec).Error)
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, url.Values{"path": {"/"}})
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "upstream-7")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-7", rec.Header().Get(RequestIDHeader))
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","engine_version":"`+ir.EngineVersion+`"}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t)
	get(t, srv, url.Values{"path": {"/c/users"}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nodelog_queries_total")
	assert.Contains(t, rec.Body.String(), "nodelog_query_duration_seconds")
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/show", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
