// Package telemetry owns the process-wide tracing and metrics setup.
//
// Metrics register with the default Prometheus registry on import and are
// served by the HTTP transport at /metrics.
package telemetry
