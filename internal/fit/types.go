package fit

import (
	"fmt"
	"math"

	"github.com/hujh08/imfit/internal/config"
)

// CostFunc evaluates the fit statistic for a full parameter vector
type CostFunc func(params []float64) float64

// ProgressFunc receives the generation index and the best energy found so far
type ProgressFunc func(generation int, bestEnergy float64)

// Solver names accepted in Options.Solver
const (
	SolverDE     = "de"
	SolverMayfly = "mayfly"
)

// DefaultStrategy is the DE mutation scheme used when Options.Strategy is empty
const DefaultStrategy = "rand-to-best/1/exp"

// Options control a single call to DiffEvolnFit
type Options struct {
	// MaxGenerations is the exact number of generations to run
	MaxGenerations int

	Seed int64

	// Solver selects the search algorithm; empty means SolverDE
	Solver string

	// Strategy names the DE mutation scheme, e.g. "best/1/bin"; empty means
	// DefaultStrategy. Ignored by SolverMayfly.
	Strategy string

	// Progress is called every 10 generations and once at the end (optional)
	Progress ProgressFunc

	// Metrics receives evaluation counts and progress (optional)
	Metrics *Metrics
}

// Result holds the output of a fit
type Result struct {
	BestParams  []float64
	BestCost    float64
	InitialCost float64
	Generations int

	// Evaluations counts cost calls, including the initial one
	Evaluations int

	// History is the best energy at each progress report
	History []float64

	// Plateaued is set when the last reports showed no significant improvement
	Plateaued bool
}

// Improvement returns the relative cost reduction from InitialCost to BestCost
func (r *Result) Improvement() float64 {
	if r.InitialCost == 0 {
		return 0
	}
	return (r.InitialCost - r.BestCost) / r.InitialCost
}

// SearchIntervals derives the optimizer search box from the parsed bounds.
// Fixed parameters get the degenerate interval [v, v], limited ones their
// declared limits. Any free parameter, and any interval that is not finite or
// has lower > upper, yields a *MissingBoundsError listing every offending index.
func SearchIntervals(params []float64, bounds []config.ParameterBound) (lower, upper []float64, err error) {
	if bounds == nil {
		missing := make([]int, len(params))
		for i := range missing {
			missing[i] = i
		}
		return nil, nil, &MissingBoundsError{Indices: missing}
	}
	if len(bounds) != len(params) {
		return nil, nil, fmt.Errorf("bounds length %d does not match parameter count %d", len(bounds), len(params))
	}

	lower = make([]float64, len(params))
	upper = make([]float64, len(params))
	var missing []int
	for i, b := range bounds {
		switch b.Kind {
		case config.Fixed:
			lower[i], upper[i] = params[i], params[i]
		case config.Limited:
			lower[i], upper[i] = b.Lower, b.Upper
		default:
			missing = append(missing, i)
			continue
		}
		if !usableInterval(lower[i], upper[i]) {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &MissingBoundsError{Indices: missing}
	}
	return lower, upper, nil
}

func usableInterval(lo, hi float64) bool {
	finite := !math.IsNaN(lo) && !math.IsInf(lo, 0) && !math.IsNaN(hi) && !math.IsInf(hi, 0)
	return finite && lo <= hi
}
