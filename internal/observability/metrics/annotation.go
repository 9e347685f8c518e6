// Package metrics provides Prometheus metrics for the annotation core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnnotationMetrics contains Prometheus metrics for the note annotation
// lifecycle: store calls, refreshes and rendering.
type AnnotationMetrics struct {
	registry *prometheus.Registry

	// Store client metrics
	storeRequestsTotal   *prometheus.CounterVec
	storeRequestDuration *prometheus.HistogramVec

	// Render pipeline metrics
	refreshesTotal      *prometheus.CounterVec
	staleRefreshesTotal prometheus.Counter
	markersRendered     prometheus.Histogram
	notesSkippedTotal   *prometheus.CounterVec

	// Submission metrics
	insertsTotal *prometheus.CounterVec

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewAnnotationMetrics creates and registers new annotation metrics
func NewAnnotationMetrics(registry *prometheus.Registry) (*AnnotationMetrics, error) {
	m := &AnnotationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AnnotationMetrics) initMetrics() {
	m.storeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notestore_requests_total",
			Help: "Total number of remote store requests",
		},
		[]string{"operation", "status"}, // operation: list_notes, insert_note, list_alerts; status: success, error
	)

	m.storeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notestore_request_duration_seconds",
			Help:    "Time taken for remote store requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"operation"},
	)

	m.refreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_refreshes_total",
			Help: "Total number of render pipeline refreshes",
		},
		[]string{"status"}, // status: success, error
	)

	m.staleRefreshesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "render_stale_refreshes_total",
		Help: "Refresh responses discarded because a newer refresh completed first",
	})

	m.markersRendered = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "render_markers_rendered",
		Help:    "Number of note markers rendered per refresh",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	m.notesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_notes_skipped_total",
			Help: "Notes excluded from rendering",
		},
		[]string{"reason"}, // reason: geometry, zoom, unvalidated
	)

	m.insertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notes_inserts_total",
			Help: "Total number of note submissions",
		},
		[]string{"status"}, // status: success, error, rejected
	)

	m.collectors = []prometheus.Collector{
		m.storeRequestsTotal,
		m.storeRequestDuration,
		m.refreshesTotal,
		m.staleRefreshesTotal,
		m.markersRendered,
		m.notesSkippedTotal,
		m.insertsTotal,
	}
}

// Describe implements the Collector interface
func (m *AnnotationMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *AnnotationMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordStoreRequest records a remote store request outcome. Nil-safe so
// components can run without metrics wired.
func (m *AnnotationMetrics) RecordStoreRequest(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeRequestsTotal.WithLabelValues(operation, status).Inc()
	m.storeRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRefresh records a completed refresh.
func (m *AnnotationMetrics) RecordRefresh(status string, rendered int) {
	if m == nil {
		return
	}
	m.refreshesTotal.WithLabelValues(status).Inc()
	if status == "success" {
		m.markersRendered.Observe(float64(rendered))
	}
}

// RecordStaleRefresh records a refresh response discarded as stale.
func (m *AnnotationMetrics) RecordStaleRefresh() {
	if m == nil {
		return
	}
	m.staleRefreshesTotal.Inc()
}

// RecordNoteSkipped records a note excluded from rendering.
func (m *AnnotationMetrics) RecordNoteSkipped(reason string) {
	if m == nil {
		return
	}
	m.notesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordInsert records a note submission outcome.
func (m *AnnotationMetrics) RecordInsert(status string) {
	if m == nil {
		return
	}
	m.insertsTotal.WithLabelValues(status).Inc()
}
