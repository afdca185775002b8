package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes recorded in nodelog_queries_total.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodelog_queries_total",
		Help: "Total show queries by scope kind, mode and outcome",
	}, []string{"scope", "mode", "outcome"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nodelog_query_duration_seconds",
		Help:    "Show query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"mode"})

	eventsRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodelog_events_read_total",
		Help: "Total events read from the log by show queries",
	})
)

// ObserveQuery records one finished query.
func ObserveQuery(scope, mode, outcome string, elapsed time.Duration, read int) {
	queriesTotal.WithLabelValues(scope, mode, outcome).Inc()
	queryDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if read > 0 {
		eventsRead.Add(float64(read))
	}
}
