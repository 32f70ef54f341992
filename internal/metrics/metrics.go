// Package metrics exposes assessment counters and latency as Prometheus
// metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HendryAvila/dentcheck/internal/engine"
)

// Metrics holds the collectors recorded by the assessment service.
type Metrics struct {
	assessments  *prometheus.CounterVec
	limitChecks  *prometheus.CounterVec
	configErrors prometheus.Counter
	duration     prometheus.Histogram
}

// New registers the collectors on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		assessments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dentcheck_assessments_total",
			Help: "Total dent assessments by report status",
		}, []string{"status"}),
		limitChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dentcheck_limit_checks_total",
			Help: "Total limit checks of winning rules by outcome",
		}, []string{"outcome"}),
		configErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "dentcheck_config_errors_total",
			Help: "Total assessments aborted by a rule configuration error",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dentcheck_assessment_duration_seconds",
			Help:    "Dent assessment duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveReport records a completed assessment.
func (m *Metrics) ObserveReport(r engine.Report, took time.Duration) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(string(r.Status)).Inc()
	for _, c := range r.Checks {
		m.limitChecks.WithLabelValues(string(c.Outcome)).Inc()
	}
	m.duration.Observe(took.Seconds())
}

// ObserveConfigError records an assessment that failed on a bad rule.
func (m *Metrics) ObserveConfigError() {
	if m == nil {
		return
	}
	m.configErrors.Inc()
}
