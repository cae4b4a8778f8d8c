// Package metric exposes pipeline counters and gauges over Prometheus.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all pipeline-level metrics
type Metrics struct {
	PipelineState      prometheus.Gauge
	MessagesReceived   prometheus.Counter
	ParseErrors        prometheus.Counter
	DeadLettered       prometheus.Counter
	RowsExtracted      prometheus.Counter
	RowsWritten        prometheus.Counter
	SinkErrors         prometheus.Counter
	ProcessingDuration prometheus.Histogram
	NATSConnected      prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		PipelineState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "logexport",
				Subsystem: "pipeline",
				Name:      "state",
				Help:      "Pipeline state (0=configuring, 1=running, 2=terminal)",
			},
		),

		MessagesReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "logexport",
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of messages received from the source",
			},
		),

		ParseErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "logexport",
				Subsystem: "messages",
				Name:      "parse_errors_total",
				Help:      "Total number of payloads that failed to parse",
			},
		),

		DeadLettered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "logexport",
				Subsystem: "messages",
				Name:      "dead_lettered_total",
				Help:      "Total number of unparseable payloads published to the dead-letter subject",
			},
		),

		RowsExtracted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "logexport",
				Subsystem: "rows",
				Name:      "extracted_total",
				Help:      "Total number of rows extracted from log entries",
			},
		),

		RowsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "logexport",
				Subsystem: "rows",
				Name:      "written_total",
				Help:      "Total number of rows appended to the output table",
			},
		),

		SinkErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "logexport",
				Subsystem: "sink",
				Name:      "errors_total",
				Help:      "Total number of failed sink append attempts",
			},
		),

		ProcessingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "logexport",
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Per-message processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "logexport",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),
	}
}

// RecordPipelineState updates the pipeline state gauge
func (m *Metrics) RecordPipelineState(state int) {
	m.PipelineState.Set(float64(state))
}

// RecordMessageReceived increments the received message counter
func (m *Metrics) RecordMessageReceived() {
	m.MessagesReceived.Inc()
}

// RecordParseError increments the parse error counter
func (m *Metrics) RecordParseError() {
	m.ParseErrors.Inc()
}

// RecordDeadLettered increments the dead-letter counter
func (m *Metrics) RecordDeadLettered() {
	m.DeadLettered.Inc()
}

// RecordRowsExtracted adds to the extracted row counter
func (m *Metrics) RecordRowsExtracted(n int) {
	m.RowsExtracted.Add(float64(n))
}

// RecordRowsWritten adds to the written row counter
func (m *Metrics) RecordRowsWritten(n int) {
	m.RowsWritten.Add(float64(n))
}

// RecordSinkError increments the sink error counter
func (m *Metrics) RecordSinkError() {
	m.SinkErrors.Inc()
}

// RecordProcessingDuration records per-message processing time
func (m *Metrics) RecordProcessingDuration(duration time.Duration) {
	m.ProcessingDuration.Observe(duration.Seconds())
}

// RecordNATSStatus updates the NATS connection status gauge
func (m *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	m.NATSConnected.Set(value)
}
