package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/nodelog/internal/ir"
	"github.com/roach88/nodelog/internal/queryir"
	"github.com/roach88/nodelog/internal/querysql"
	"github.com/roach88/nodelog/internal/scope"
	"github.com/roach88/nodelog/internal/telemetry"
)

// LogReader is the read side of a log store.
//
// ReadEvents must execute the statement in a single consistent snapshot
// and return events in statement order. Implemented by store.Store and
// pgstore.Store.
type LogReader interface {
	ReadEvents(ctx context.Context, stmt querysql.Statement) ([]ir.Event, error)
	Dialect() querysql.Dialect
}

// Engine answers point-in-time queries over a node event log.
//
// Thread-safety: Engine holds no per-query state and is safe for
// concurrent use. Each query performs exactly one LogReader read.
type Engine struct {
	reader   LogReader
	clock    Clock
	compiler *querysql.SQLCompiler
	tracer   trace.Tracer
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithClock sets the clock supplying the default "until".
//
// Default: WallClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine reading from r.
func New(r LogReader, opts ...Option) *Engine {
	e := &Engine{
		reader:   r,
		clock:    WallClock{},
		compiler: querysql.NewSQLCompiler(r.Dialect()),
		tracer:   otel.Tracer("nodelog/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one query. Exactly one of Events, Nodes or
// Total is meaningful, as selected by Mode.
type Result struct {
	Mode  queryir.Mode
	Scope string
	Until int64

	Events []ir.Event
	Nodes  []ir.GroupedNode
	Total  int

	// Warnings lists options that were accepted but ignored.
	Warnings []string
}

// Payload returns the transport shape of the result:
// []ir.Event, []ir.GroupedNode or a one-element []ir.Total.
func (r Result) Payload() any {
	switch r.Mode {
	case queryir.ModeGrouped:
		return r.Nodes
	case queryir.ModeCount:
		return []ir.Total{{Total: r.Total}}
	default:
		return r.Events
	}
}

// Show runs a query and returns its transport payload. It is the entry
// point shared by the HTTP handlers and the CLI.
func (e *Engine) Show(ctx context.Context, path string, opts queryir.Options) (any, error) {
	res, err := e.Query(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return res.Payload(), nil
}

// Query reconstructs the state of path as of opts.Until.
//
// Pipeline:
//  1. validate options
//  2. resolve the path into a scope and extract its search pattern
//  3. build filters, initializers and the limit clause
//  4. compile one statement and read it through the LogReader
//  5. collapse per node (grouped) or count live nodes (countsOnly)
//
// Errors are *QueryError. An empty result is not an error.
func (e *Engine) Query(ctx context.Context, path string, opts queryir.Options) (res Result, err error) {
	start := time.Now()
	mode := opts.Mode()
	scopeKind := "unknown"
	read := 0

	ctx, span := e.tracer.Start(ctx, "Engine.Query", trace.WithAttributes(
		attribute.String("nodelog.path", path),
		attribute.String("nodelog.mode", string(mode)),
	))
	defer func() {
		outcome := telemetry.OutcomeOK
		if err != nil {
			outcome = telemetry.OutcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, string(ErrorCodeOf(err)))
		}
		telemetry.ObserveQuery(scopeKind, string(mode), outcome, time.Since(start), read)
		span.End()
	}()

	validation, err := queryir.Validate(opts)
	if err != nil {
		return Result{}, newQueryError(path, err)
	}

	sc, err := scope.Resolve(path)
	if err != nil {
		return Result{}, newQueryError(path, err)
	}
	scopeKind = scope.Kind(sc)
	span.SetAttributes(attribute.String("nodelog.scope", scopeKind))

	stmt, until, err := e.plan(sc, path, opts)
	if err != nil {
		return Result{}, newQueryError(path, err)
	}
	span.SetAttributes(attribute.Int64("nodelog.until", until))

	events, err := e.reader.ReadEvents(ctx, stmt)
	if err != nil {
		return Result{}, newReadError(path, err)
	}
	read = len(events)

	res = Result{
		Mode:     mode,
		Scope:    scopeKind,
		Until:    until,
		Warnings: validation.Warnings,
	}
	switch mode {
	case queryir.ModeGrouped:
		res.Nodes = GroupByNode(events, opts.EffectiveGroupLimit())
	case queryir.ModeCount:
		res.Total = CountLive(events)
	default:
		res.Events = events
	}

	slog.Debug("query",
		"path", path,
		"scope", scopeKind,
		"mode", mode,
		"until", until,
		"read", len(events),
		"warnings", len(validation.Warnings),
	)
	for _, w := range validation.Warnings {
		slog.Warn("query option ignored", "path", path, "warning", w)
	}

	return res, nil
}

// plan builds the clauses for sc and compiles them into one statement.
func (e *Engine) plan(sc scope.Scope, path string, opts queryir.Options) (querysql.Statement, int64, error) {
	d := e.reader.Dialect()
	pattern := scope.SearchPattern(sc, path)

	filters, err := querysql.BuildFilters(d, sc, pattern)
	if err != nil {
		return querysql.Statement{}, 0, err
	}
	initializers, err := querysql.BuildInitializers(d, sc, pattern)
	if err != nil {
		return querysql.Statement{}, 0, err
	}

	// Pagination is validated in every mode; countsOnly then ignores it.
	limit, err := querysql.BuildLimitClause(opts.Limit, opts.Skip)
	if err != nil {
		return querysql.Statement{}, 0, err
	}

	until := e.clock.Now()
	if opts.Until != nil {
		until = *opts.Until
	}

	stmt, err := e.compiler.Compile(querysql.Plan{
		Mode:         opts.Mode(),
		Until:        until,
		Filters:      filters,
		Initializers: initializers,
		Limit:        limit,
	})
	if err != nil {
		return querysql.Statement{}, 0, err
	}
	return stmt, until, nil
}
