package fit

import (
	"log/slog"
	"math"
)

// PlateauConfig defines when a run of progress reports counts as a plateau
type PlateauConfig struct {
	// Patience is the number of consecutive reports without significant improvement
	Patience int

	// Threshold is the minimum relative improvement required to count as progress
	// Example: 0.001 = 0.1% improvement required
	Threshold float64
}

// DefaultPlateauConfig returns the thresholds used by DiffEvolnFit
func DefaultPlateauConfig() PlateauConfig {
	return PlateauConfig{
		Patience:  5,
		Threshold: 0.001,
	}
}

// ProgressTracker records the best energy at each progress report and logs
// when the search stops improving. It never ends a search: DiffEvolnFit always
// runs the full generation budget.
type ProgressTracker struct {
	config          PlateauConfig
	history         []float64
	bestCost        float64
	lastSignificant float64
	staleCount      int
	plateauLogged   bool
}

// NewProgressTracker creates a tracker with the given thresholds
func NewProgressTracker(config PlateauConfig) *ProgressTracker {
	return &ProgressTracker{
		config:          config,
		bestCost:        math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records the best energy reported at generation and returns true
// while the search is on a plateau.
func (p *ProgressTracker) Update(generation int, cost float64) bool {
	p.history = append(p.history, cost)
	if cost < p.bestCost {
		p.bestCost = cost
	}

	if len(p.history) == 1 || math.IsInf(p.lastSignificant, 1) {
		p.lastSignificant = cost
		return false
	}

	var improvement float64
	if p.lastSignificant != 0 {
		improvement = (p.lastSignificant - cost) / math.Abs(p.lastSignificant)
	}

	if improvement >= p.config.Threshold {
		p.lastSignificant = cost
		p.staleCount = 0
		p.plateauLogged = false
		return false
	}

	p.staleCount++
	if p.staleCount < p.config.Patience {
		return false
	}
	if !p.plateauLogged {
		slog.Info("Best energy has plateaued",
			"generation", generation,
			"best_energy", p.bestCost,
			"stale_reports", p.staleCount,
		)
		p.plateauLogged = true
	}
	return true
}

// History returns a copy of the reported energies
func (p *ProgressTracker) History() []float64 {
	return append([]float64{}, p.history...)
}

// StaleCount returns the number of reports since the last significant improvement
func (p *ProgressTracker) StaleCount() int {
	return p.staleCount
}
