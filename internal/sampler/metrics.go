package sampler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Projection outcomes used as the "outcome" label.
const (
	outcomeConverged = "converged"
	outcomeFailed    = "failed"
)

// Metrics contains Prometheus metrics for sampling runs.
type Metrics struct {
	projections *prometheus.CounterVec
	feasible    *prometheus.CounterVec
	iterations  *prometheus.HistogramVec
}

// NewMetrics registers the sampling collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		projections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manifold_projections_total",
				Help: "Total number of projections by variant and outcome",
			},
			[]string{"variant", "outcome"},
		),

		feasible: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "manifold_feasible_samples_total",
				Help: "Total number of samples feasible after projection and bound clamping",
			},
			[]string{"variant"},
		),

		iterations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "manifold_projection_iterations",
				Help:    "Newton updates applied per projection",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89},
			},
			[]string{"variant"},
		),
	}
}

func (m *Metrics) record(variant string, converged, feasible bool, iterations int) {
	if m == nil {
		return
	}
	outcome := outcomeFailed
	if converged {
		outcome = outcomeConverged
	}
	m.projections.WithLabelValues(variant, outcome).Inc()
	m.iterations.WithLabelValues(variant).Observe(float64(iterations))
	if feasible {
		m.feasible.WithLabelValues(variant).Inc()
	}
}
