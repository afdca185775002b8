// Package httpapi serves show queries over HTTP.
//
// Routes:
//
//	GET  /show     path and options as query parameters
//	POST /show     path and options as a JSON body
//	GET  /health   liveness and engine version
//	GET  /metrics  Prometheus exposition
//
// Both /show forms decode into the same (path, options) pair and call
// Shower.Show, so identical logical input yields identical output.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fastjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/roach88/nodelog/internal/engine"
	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
)

// RequestIDHeader is set on every response.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds POST /show bodies.
const maxBodyBytes = 1 << 20

// Shower runs show queries. Implemented by *engine.Engine.
type Shower interface {
	Show(ctx context.Context, path string, opts queryir.Options) (any, error)
}

// Server is the HTTP API server.
type Server struct {
	shower  Shower
	ids     IDGenerator
	mux     *http.ServeMux
	handler http.Handler
	parser  fastjson.ParserPool
}

// Option configures a Server.
type Option func(*Server)

// WithIDGenerator sets the request id source.
//
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Server) {
		s.ids = g
	}
}

// New creates a Server answering queries with sh.
func New(sh Shower, opts ...Option) *Server {
	s := &Server{
		shower: sh,
		ids:    UUIDv7Generator{},
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	s.handler = s.withRequestID(otelhttp.NewHandler(s.mux, "nodelog"))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /show", s.handleShowQuery)
	s.mux.HandleFunc("POST /show", s.handleShowBody)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) handleShowQuery(w http.ResponseWriter, r *http.Request) {
	req, err := parseQuery(r.URL.Query())
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.show(w, r, req)
}

func (s *Server) handleShowBody(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseBody(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeRequestError(w, err)
		return
	}
	s.show(w, r, req)
}

func (s *Server) show(w http.ResponseWriter, r *http.Request, req showRequest) {
	payload, err := s.shower.Show(r.Context(), req.Path, req.Options)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("show failed", "path", req.Path, "err", err, "request_id", w.Header().Get(RequestIDHeader))
		}
		writeError(w, status, string(engine.ErrorCodeOf(err)), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"engine_version": ir.EngineVersion,
	})
}

// withRequestID tags the response with a request id and logs the request.
// An inbound X-Request-ID is kept.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = s.ids.Generate()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// statusFor maps a query error to an HTTP status.
func statusFor(err error) int {
	switch {
	case engine.IsUserError(err):
		return http.StatusBadRequest
	case engine.ErrorCodeOf(err) == engine.ErrCodeReadFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func writeRequestError(w http.ResponseWriter, err *requestError) {
	writeError(w, http.StatusBadRequest, string(err.Code), err.Error())
}
