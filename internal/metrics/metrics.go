// Package metrics exposes Prometheus instrumentation for extraction.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the extraction pipeline. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Extractions by outcome ("ok", "no_data", "error") and classification
	Extractions *prometheus.CounterVec

	// End-to-end latency of one Extract call
	ExtractLatency prometheus.Histogram

	// Text acquisition latency by method
	OCRLatency *prometheus.HistogramVec

	// Warnings attached to results
	Warnings prometheus.Counter

	// Enricher runs by name
	Enrichments *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers all metrics on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers all metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idextract_extractions_total",
			Help: "Total extractions by outcome, document type and country",
		}, []string{"outcome", "document_type", "country"}),

		ExtractLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idextract_extract_duration_seconds",
			Help:    "Duration of one extraction including classification and enrichment",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		OCRLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idextract_ocr_duration_seconds",
			Help:    "Duration of text acquisition by method",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}), // method: "pdf-text", "pdf-ocr", "image-ocr", "plain-text"

		Warnings: f.NewCounter(prometheus.CounterOpts{
			Name: "idextract_result_warnings_total",
			Help: "Total warnings attached to extraction results",
		}),

		Enrichments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idextract_enrichments_total",
			Help: "Total enricher runs by enricher name",
		}, []string{"enricher"}),

		registry: reg,
	}
}

// Registry is the registry the metrics were registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// IncrementExtraction records one extraction outcome.
func (m *Metrics) IncrementExtraction(outcome, documentType, country string) {
	if m != nil {
		m.Extractions.WithLabelValues(outcome, documentType, country).Inc()
	}
}

// ObserveExtractLatency records the duration of one Extract call.
func (m *Metrics) ObserveExtractLatency(d time.Duration) {
	if m != nil {
		m.ExtractLatency.Observe(d.Seconds())
	}
}

// ObserveOCRLatency records a text acquisition.
func (m *Metrics) ObserveOCRLatency(method string, d time.Duration) {
	if m != nil {
		m.OCRLatency.WithLabelValues(method).Observe(d.Seconds())
	}
}

// AddWarnings counts result warnings.
func (m *Metrics) AddWarnings(n int) {
	if m != nil && n > 0 {
		m.Warnings.Add(float64(n))
	}
}

// IncrementEnrichment records an enricher run.
func (m *Metrics) IncrementEnrichment(name string) {
	if m != nil {
		m.Enrichments.WithLabelValues(name).Inc()
	}
}
