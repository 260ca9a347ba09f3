package fit

import "math"

// sanitize maps NaN costs to +Inf so a broken model evaluation never wins
func sanitize(eval CostFunc) CostFunc {
	return func(params []float64) float64 {
		c := eval(params)
		if math.IsNaN(c) {
			return math.Inf(1)
		}
		return c
	}
}

// counted wraps eval so every call is recorded in m
func counted(eval CostFunc, m *Metrics) CostFunc {
	if m == nil {
		return eval
	}
	return func(params []float64) float64 {
		m.Evaluations.Inc()
		return eval(params)
	}
}
