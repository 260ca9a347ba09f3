package opt

// Optimizer defines a bounded, derivative-free minimizer
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: per-parameter bounds (len == dim)
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)

	// Evaluations returns the number of objective calls made by the last Run
	Evaluations() int
}

// ReportFunc receives periodic progress from an optimizer
type ReportFunc func(generation int, bestCost float64)

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
