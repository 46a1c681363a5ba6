package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "surveykn"

// Metrics holds the counters of one process. Each Metrics owns a private
// registry so tests and repeated runs never collide on the default one.
type Metrics struct {
	Registry *prometheus.Registry

	// QuestionsRegistered counts identifiers allocated during synchronization.
	QuestionsRegistered prometheus.Counter

	// QuestionsDeclined counts unknown wordings the operator chose to skip.
	QuestionsDeclined prometheus.Counter

	// ChartsRendered counts chart artifacts by kind.
	// Labels: kind (default, association, historical, series)
	ChartsRendered *prometheus.CounterVec

	// CommentsEmitted counts comment bullets written to documents.
	CommentsEmitted prometheus.Counter

	// RunDuration is the wall time of the last completed run.
	RunDuration prometheus.Gauge
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		QuestionsRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "questions_registered_total",
			Help:      "Questions registered in the question store",
		}),
		QuestionsDeclined: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "questions_declined_total",
			Help:      "Unknown questions left out of a run",
		}),
		ChartsRendered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "charts_rendered_total",
			Help:      "Chart artifacts rendered",
		}, []string{"kind"}),
		CommentsEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "comments_emitted_total",
			Help:      "Free-text comments written to reports",
		}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last completed run",
		}),
	}
}

// WriteFile writes the registry in the Prometheus text format, suitable for
// the node exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
