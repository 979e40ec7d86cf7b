// Package metrics provides Prometheus metrics for drawing analysis
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// Registry holds every collector of this package.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	AnalysesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mda_analyses_total",
			Help: "Total number of drawing analyses",
		},
		[]string{"provider", "status"},
	)

	AnalysisDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mda_analysis_duration_seconds",
			Help:    "Time taken to analyze one drawing",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	RegionsDetected = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mda_regions_detected",
			Help:    "Number of regions detected per drawing",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	ViolationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mda_violations_total",
			Help: "Total number of compliance violations",
		},
		[]string{"severity"},
	)

	ProviderErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mda_provider_errors_total",
			Help: "Total number of failed provider calls",
		},
		[]string{"provider"},
	)
)

// Analysis status label values.
const (
	StatusOK            = "ok"
	StatusProviderError = "provider_error"
	StatusFailed        = "failed"
)

// AnalysisMetrics records metrics for one provider.
type AnalysisMetrics struct {
	provider string
}

// NewAnalysisMetrics creates a recorder labelled with provider.
func NewAnalysisMetrics(provider string) *AnalysisMetrics {
	return &AnalysisMetrics{provider: provider}
}

// RecordAnalysis records the outcome and duration of one drawing.
func (m *AnalysisMetrics) RecordAnalysis(status string, duration time.Duration) {
	AnalysesTotal.WithLabelValues(m.provider, status).Inc()
	AnalysisDuration.WithLabelValues(m.provider).Observe(duration.Seconds())
}

// RecordRegions records the number of regions found on one drawing.
func (m *AnalysisMetrics) RecordRegions(n int) {
	RegionsDetected.Observe(float64(n))
}

// RecordViolations counts violations by severity.
func (m *AnalysisMetrics) RecordViolations(violations []model.Violation) {
	for _, v := range violations {
		ViolationsTotal.WithLabelValues(string(v.Severity)).Inc()
	}
}

// RecordProviderError counts a failed provider call.
func (m *AnalysisMetrics) RecordProviderError() {
	ProviderErrorsTotal.WithLabelValues(m.provider).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
