// Package metrics holds the Prometheus instrumentation for the offset log
// and the relational projector. Every recording method is safe to call on a
// nil *Metrics — callers that don't care about metrics simply pass nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus collectors for one process.
type Metrics struct {
	logOperationsTotal   *prometheus.CounterVec
	logOperationDuration *prometheus.HistogramVec
	logCorruptionTotal   prometheus.Counter
	logSizeBytes         prometheus.Gauge

	projectorAppendsTotal      *prometheus.CounterVec
	projectorParseFailureTotal prometheus.Counter
	projectorQueriesTotal      *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	return &Metrics{
		logOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flumelog_log_operations_total",
				Help: "Total number of offset log operations",
			},
			[]string{"operation", "status"},
		),
		logOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flumelog_log_operation_duration_seconds",
				Help:    "Offset log operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		logCorruptionTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "flumelog_log_corruption_total",
				Help: "Total number of frames that failed to decode due to corruption",
			},
		),
		logSizeBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "flumelog_log_size_bytes",
				Help: "Current size of the offset log in bytes",
			},
		),
		projectorAppendsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flumelog_projector_appends_total",
				Help: "Total number of projector append calls",
			},
			[]string{"status"},
		),
		projectorParseFailureTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "flumelog_projector_parse_failures_total",
				Help: "Total number of payloads the projector could not parse",
			},
		),
		projectorQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flumelog_projector_queries_total",
				Help: "Total number of projector lookups",
			},
			[]string{"query", "status"},
		),
	}
}

// RecordLogOperation records one offset log operation.
func (m *Metrics) RecordLogOperation(operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.logOperationsTotal.WithLabelValues(operation, status).Inc()
	m.logOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCorruption increments the corrupt-frame counter.
func (m *Metrics) RecordCorruption() {
	if m == nil {
		return
	}
	m.logCorruptionTotal.Inc()
}

// SetLogSize reports the current log size in bytes.
func (m *Metrics) SetLogSize(size int64) {
	if m == nil {
		return
	}
	m.logSizeBytes.Set(float64(size))
}

// RecordProjectorAppend records one projector append attempt.
func (m *Metrics) RecordProjectorAppend(parsed bool) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !parsed {
		status = statusError
		m.projectorParseFailureTotal.Inc()
	}
	m.projectorAppendsTotal.WithLabelValues(status).Inc()
}

// RecordProjectorQuery records one projector lookup.
func (m *Metrics) RecordProjectorQuery(query string, success bool) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.projectorQueriesTotal.WithLabelValues(query, status).Inc()
}
