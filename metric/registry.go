package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds the pipeline metrics together with their Prometheus
// registry so the HTTP handler serves exactly what the pipeline records.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	metrics            *Metrics
}

// NewRegistry creates a registry with all pipeline metrics plus Go runtime
// and process collectors registered.
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	metrics := NewMetrics()
	prometheusRegistry.MustRegister(
		metrics.PipelineState,
		metrics.MessagesReceived,
		metrics.ParseErrors,
		metrics.DeadLettered,
		metrics.RowsExtracted,
		metrics.RowsWritten,
		metrics.SinkErrors,
		metrics.ProcessingDuration,
		metrics.NATSConnected,
	)

	prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		prometheusRegistry: prometheusRegistry,
		metrics:            metrics,
	}
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Metrics returns the pipeline metrics
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}
