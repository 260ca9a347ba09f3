package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// minMayflyPop is the smallest population mayfly v0.1.0 accepts
const minMayflyPop = 20

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters    int
	popSize     int
	seed        int64
	evaluations int
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	if popSize < minMayflyPop {
		popSize = minMayflyPop
	}
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library.
// Mayfly only supports one scalar bound for all dimensions, so the search runs
// on the unit hypercube and every position is mapped onto [lower[i], upper[i]].
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	m.evaluations = 0
	scaled := make([]float64, dim)
	toBounds := func(unit []float64) []float64 {
		for i := range scaled {
			scaled[i] = lower[i] + clamp(unit[i], 0, 1)*(upper[i]-lower[i])
		}
		return scaled
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(unit []float64) float64 {
		m.evaluations++
		return eval(toBounds(unit))
	}
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1

	// Set random seed for reproducibility
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		// Fall back to the centre of the search box
		slog.Warn("Mayfly optimization failed, using centre of bounds", "error", err)
		centre := make([]float64, dim)
		for i := range centre {
			centre[i] = 0.5
		}
		best := append([]float64(nil), toBounds(centre)...)
		m.evaluations++
		return best, eval(best)
	}

	best := append([]float64(nil), toBounds(result.GlobalBest.Position)...)
	return best, result.GlobalBest.Cost
}

// Evaluations returns the number of objective calls made by the last Run
func (m *MayflyAdapter) Evaluations() int {
	return m.evaluations
}
