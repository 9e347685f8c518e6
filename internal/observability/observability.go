// Package observability wires the application's Prometheus metrics.
package observability

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lsnmst/idjwi-alert-system/internal/observability/metrics"
)

// Metrics aggregates all metric groups behind one registry.
type Metrics struct {
	registry *prometheus.Registry

	Annotation *metrics.AnnotationMetrics
}

// NewMetrics creates a registry with all metric groups registered.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	annotation, err := metrics.NewAnnotationMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry:   registry,
		Annotation: annotation,
	}, nil
}

// Registry exposes the underlying registry for scraping or test gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterHandlers adds the metrics endpoint to the provided mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}
