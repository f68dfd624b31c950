// Package observability holds the Prometheus metrics for the ingestion
// pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IngestMetrics holds all Prometheus metrics for one ingestion run.
type IngestMetrics struct {
	RecordsTotal     *prometheus.CounterVec
	DegradedTotal    *prometheus.CounterVec
	FilesTotal       *prometheus.CounterVec
	PhaseSeconds     *prometheus.HistogramVec
	MessagesInFlight prometheus.Gauge
}

// DefaultIngestMetrics creates metrics on the default registerer.
func DefaultIngestMetrics() *IngestMetrics {
	return NewIngestMetrics(prometheus.DefaultRegisterer)
}

// NewIngestMetrics creates a new metric set on the given registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	factory := promauto.With(reg)

	return &IngestMetrics{
		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_records_total",
				Help: "Records emitted per category",
			},
			[]string{"category"},
		),
		DegradedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_degraded_events_total",
				Help: "Degraded-input events per code",
			},
			[]string{"code", "phase"},
		),
		FilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_files_total",
				Help: "Export files read per kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		PhaseSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_phase_seconds",
				Help:    "Wall time per pipeline phase",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"phase"},
		),
		MessagesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingest_messages_in_flight",
				Help: "Reply-chain messages currently being classified",
			},
		),
	}
}

// ObserveFile counts one export file read attempt.
func (m *IngestMetrics) ObserveFile(kind, outcome string) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveRecord counts one emitted record.
func (m *IngestMetrics) ObserveRecord(category string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(category).Inc()
}

// ObserveDegraded counts one degraded-input event.
func (m *IngestMetrics) ObserveDegraded(code, phase string) {
	if m == nil {
		return
	}
	m.DegradedTotal.WithLabelValues(code, phase).Inc()
}
