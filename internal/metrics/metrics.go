// Package metrics exposes Prometheus metrics for note generation runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/hube-energy/emissor/internal/converter"
)

// Namespace prefixes every metric name.
const Namespace = "emissor"

// Recorder records the outcome of generation runs. It is safe for
// concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	rows        *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	rejected    prometheus.Counter
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rows_total",
				Help:      "Dataset rows processed, by report status.",
			},
			[]string{"status"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Generation runs completed, by outcome.",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a generation run.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		rejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "datasets_rejected_total",
				Help:      "Datasets rejected for missing required columns.",
			},
		),
	}

	r.registry.MustRegister(r.rows, r.runs, r.runDuration, r.rejected)
	return r
}

// ObserveReport records a finished run.
func (r *Recorder) ObserveReport(report *converter.Report) {
	r.rows.WithLabelValues(string(converter.StatusSuccess)).Add(float64(report.Successes()))
	r.rows.WithLabelValues(string(converter.StatusFailure)).Add(float64(report.Failures()))
	r.runs.WithLabelValues(string(report.Outcome())).Inc()
	r.runDuration.Observe(report.Duration.Seconds())
}

// ObserveRejected records a dataset refused before any row was processed.
func (r *Recorder) ObserveRejected() {
	r.rejected.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gather collects the current metric families.
func (r *Recorder) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}
