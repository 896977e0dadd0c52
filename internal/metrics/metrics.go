// Package metrics exposes Prometheus instruments for the recognition pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/docscan/constants"
)

type Metrics struct {
	// Provider attempts by provider and outcome
	ProviderAttempts *prometheus.CounterVec

	// Provider call latency by provider
	ProviderLatency *prometheus.HistogramVec

	// Router results that exhausted the whole chain
	Exhausted prometheus.Counter

	// Completed scans by document type
	Scans *prometheus.CounterVec

	// End-to-end scan latency
	ScanLatency prometheus.Histogram

	// Number of fields extracted per scan
	FieldsExtracted *prometheus.HistogramVec
}

// New registers the pipeline metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ProviderAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docscan_provider_attempts_total",
			Help: "Recognition attempts by provider and outcome",
		}, []string{"provider", "outcome"}),

		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docscan_provider_duration_seconds",
			Help:    "Duration of a single provider attempt",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),

		Exhausted: f.NewCounter(prometheus.CounterOpts{
			Name: "docscan_providers_exhausted_total",
			Help: "Requests for which every configured provider failed",
		}),

		Scans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docscan_scans_total",
			Help: "Completed scans by classified document type",
		}, []string{"document_type"}),

		ScanLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docscan_scan_duration_seconds",
			Help:    "Duration of a full scan from image to record",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		FieldsExtracted: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docscan_fields_extracted",
			Help:    "Fields extracted per scan by document type",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}, []string{"document_type"}),
	}
}

// ObserveAttempt records one provider attempt.
func (m *Metrics) ObserveAttempt(provider string, outcome constants.ProviderOutcome, d time.Duration) {
	if m != nil {
		m.ProviderAttempts.WithLabelValues(provider, string(outcome)).Inc()
		m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

func (m *Metrics) IncExhausted() {
	if m != nil {
		m.Exhausted.Inc()
	}
}

// ObserveScan records a finished scan and how many fields it produced.
func (m *Metrics) ObserveScan(dt constants.DocumentType, fields int, d time.Duration) {
	if m != nil {
		m.Scans.WithLabelValues(string(dt)).Inc()
		m.ScanLatency.Observe(d.Seconds())
		m.FieldsExtracted.WithLabelValues(string(dt)).Observe(float64(fields))
	}
}
