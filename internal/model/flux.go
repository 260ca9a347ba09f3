package model

import "math"

// Flux integrates a sampled profile with the trapezoidal rule.
// x must be increasing; fewer than two samples give 0.
func Flux(x, y []float64) float64 {
	var sum float64
	for i := 1; i < len(x); i++ {
		sum += 0.5 * (y[i] + y[i-1]) * (x[i] - x[i-1])
	}
	return sum
}

// Magnitude converts a flux to a magnitude on the given zero point
func Magnitude(flux, zeroPoint float64) float64 {
	return zeroPoint - 2.5*math.Log10(flux)
}

// ComponentFlux is the integrated flux of one component
type ComponentFlux struct {
	Name     string
	Flux     float64
	Fraction float64
}

// Fluxes integrates every component over x and returns the per-component
// fluxes with their share of the total, plus the total itself.
func (m *Model) Fluxes(params, x []float64) ([]ComponentFlux, float64, error) {
	out := make([]ComponentFlux, len(m.functions))
	var total float64
	for i, f := range m.functions {
		y, err := m.EvaluateFunction(i, params, x)
		if err != nil {
			return nil, 0, err
		}
		out[i] = ComponentFlux{Name: f.Name(), Flux: Flux(x, y)}
		total += out[i].Flux
	}
	if total != 0 {
		for i := range out {
			out[i].Fraction = out[i].Flux / total
		}
	}
	return out, total, nil
}
