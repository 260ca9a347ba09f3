package fit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus instruments updated by DiffEvolnFit.
// A single Metrics value may be shared by concurrent fits.
type Metrics struct {
	Evaluations prometheus.Counter
	Fits        *prometheus.CounterVec
	Generation  prometheus.Gauge
	BestEnergy  prometheus.Gauge
	Duration    prometheus.Histogram
}

// NewMetrics creates the fit instruments and registers them with reg.
// A nil reg creates unregistered instruments.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Evaluations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "imfit",
			Name:      "cost_evaluations_total",
			Help:      "Number of fit statistic evaluations.",
		}),
		Fits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imfit",
			Name:      "fits_total",
			Help:      "Number of fits by solver and outcome.",
		}, []string{"solver", "outcome"}),
		Generation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "imfit",
			Name:      "generation",
			Help:      "Last reported generation.",
		}),
		BestEnergy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "imfit",
			Name:      "best_energy",
			Help:      "Best energy at the last progress report.",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "imfit",
			Name:      "fit_duration_seconds",
			Help:      "Wall-clock duration of completed fits.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}
}

func (m *Metrics) observeProgress(generation int, best float64) {
	if m == nil {
		return
	}
	m.Generation.Set(float64(generation))
	m.BestEnergy.Set(best)
}

func (m *Metrics) fitDone(solver, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Fits.WithLabelValues(solver, outcome).Inc()
	if outcome == outcomeOK {
		m.Duration.Observe(seconds)
	}
}

const (
	outcomeOK            = "ok"
	outcomeMissingBounds = "missing_bounds"
	outcomeError         = "error"
)
