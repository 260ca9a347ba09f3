package fit

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hujh08/imfit/internal/config"
	"github.com/hujh08/imfit/internal/opt"
)

// Fixed search policy
const (
	popPerParam = 10
	deWeight    = 0.85
	deCrossover = 1.0
)

// DiffEvolnFit minimizes eval over the box derived from bounds, starting from
// the values in params. Every parameter must be fixed or limited; otherwise a
// *MissingBoundsError is returned before any search and params is untouched.
// On success the best vector found is copied into params.
func DiffEvolnFit(eval CostFunc, params []float64, bounds []config.ParameterBound, opts Options) (*Result, error) {
	solver := opts.Solver
	if solver == "" {
		solver = SolverDE
	}

	lower, upper, err := SearchIntervals(params, bounds)
	if err != nil {
		outcome := outcomeError
		if errors.Is(err, ErrMissingBounds) {
			outcome = outcomeMissingBounds
		}
		opts.Metrics.fitDone(solver, outcome, 0)
		return nil, err
	}
	if opts.MaxGenerations < 0 {
		opts.Metrics.fitDone(solver, outcomeError, 0)
		return nil, fmt.Errorf("generation count must be non-negative, got %d", opts.MaxGenerations)
	}

	dim := len(params)
	cost := counted(sanitize(eval), opts.Metrics)

	plateau := DefaultPlateauConfig()
	tracker := NewProgressTracker(plateau)
	report := func(generation int, best float64) {
		slog.Info("DE progress", "generation", generation, "energy", best)
		tracker.Update(generation, best)
		opts.Metrics.observeProgress(generation, best)
		if opts.Progress != nil {
			opts.Progress(generation, best)
		}
	}

	strategyName := opts.Strategy
	if strategyName == "" {
		strategyName = DefaultStrategy
	}

	var optimizer opt.Optimizer
	switch solver {
	case SolverDE:
		strategy, err := opt.ParseStrategy(strategyName)
		if err != nil {
			opts.Metrics.fitDone(solver, outcomeError, 0)
			return nil, err
		}
		optimizer = opt.NewDiffEvoln(opt.DEConfig{
			Strategy:    strategy,
			F:           deWeight,
			CR:          deCrossover,
			PopSize:     popPerParam * dim,
			Generations: opts.MaxGenerations,
			Seed:        opts.Seed,
			Report:      report,
		})
	case SolverMayfly:
		optimizer = opt.NewMayfly(opts.MaxGenerations, popPerParam*dim, opts.Seed)
	default:
		opts.Metrics.fitDone(solver, outcomeError, 0)
		return nil, fmt.Errorf("unknown solver %q (want %q or %q)", solver, SolverDE, SolverMayfly)
	}

	initialCost := cost(params)
	slog.Info("Starting fit",
		"solver", solver,
		"parameters", dim,
		"generations", opts.MaxGenerations,
		"initial_cost", initialCost,
	)

	start := time.Now()
	best, bestCost := optimizer.Run(cost, lower, upper, dim)
	if solver == SolverMayfly {
		// mayfly has no progress hook
		report(opts.MaxGenerations, bestCost)
	}
	opts.Metrics.fitDone(solver, outcomeOK, time.Since(start).Seconds())

	copy(params, best)

	res := &Result{
		BestParams:  append([]float64(nil), best...),
		BestCost:    bestCost,
		InitialCost: initialCost,
		Generations: opts.MaxGenerations,
		Evaluations: optimizer.Evaluations() + 1,
		History:     tracker.History(),
		Plateaued:   tracker.StaleCount() >= plateau.Patience,
	}

	slog.Info("Fit complete",
		"solver", solver,
		"initial_cost", initialCost,
		"best_cost", bestCost,
		"improvement", res.Improvement(),
		"evaluations", res.Evaluations,
		"stale_reports", tracker.StaleCount(),
		"duration", time.Since(start),
	)

	return res, nil
}
