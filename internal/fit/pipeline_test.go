package fit

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hujh08/imfit/internal/config"
)

// quadratic has its minimum at (3, -1, 7)
func quadratic(p []float64) float64 {
	a, b, c := p[0]-3, p[1]+1, p[2]-7
	return a*a + b*b + c*c
}

func limitedBox() []config.ParameterBound {
	return []config.ParameterBound{
		config.LimitedBound(0, 10),
		config.LimitedBound(-5, 5),
		config.LimitedBound(0, 10),
	}
}

func TestDiffEvolnFit_Converges(t *testing.T) {
	params := []float64{1, 1, 1}

	res, err := DiffEvolnFit(quadratic, params, limitedBox(), Options{MaxGenerations: 300, Seed: 1})
	require.NoError(t, err)

	assert.InDelta(t, 3, params[0], 1e-3)
	assert.InDelta(t, -1, params[1], 1e-3)
	assert.InDelta(t, 7, params[2], 1e-3)
	assert.Equal(t, params, res.BestParams)
	assert.Equal(t, 300, res.Generations)
	assert.InDelta(t, quadratic([]float64{1, 1, 1}), res.InitialCost, 1e-12)
	assert.Less(t, res.BestCost, res.InitialCost)
}

func TestDiffEvolnFit_MissingBoundsLeavesParamsUntouched(t *testing.T) {
	params := []float64{1, 2, 3}
	bounds := []config.ParameterBound{
		config.LimitedBound(0, 10),
		config.FreeBound(),
		config.LimitedBound(0, 10),
	}

	calls := 0
	eval := func(p []float64) float64 {
		calls++
		return quadratic(p)
	}

	res, err := DiffEvolnFit(eval, params, bounds, Options{MaxGenerations: 10})
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrMissingBounds)
	assert.Equal(t, []float64{1, 2, 3}, params)
	assert.Zero(t, calls, "no search work before the bounds check")
}

func TestDiffEvolnFit_InfiniteIntervalLeavesParamsUntouched(t *testing.T) {
	params := []float64{100, 2}
	bounds := []config.ParameterBound{
		config.LimitedBound(math.Inf(-1), math.Inf(1)),
		config.LimitedBound(1, 3),
	}

	calls := 0
	eval := func(p []float64) float64 {
		calls++
		return p[0]*p[0] + p[1]*p[1]
	}

	res, err := DiffEvolnFit(eval, params, bounds, Options{MaxGenerations: 20, Seed: 1})
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrMissingBounds)
	assert.Equal(t, []float64{100, 2}, params)
	assert.Zero(t, calls)
}

func TestDiffEvolnFit_FixedParameterKeepsValue(t *testing.T) {
	params := []float64{1, 4.5, 1}
	bounds := limitedBox()
	bounds[1] = config.FixedBound()

	_, err := DiffEvolnFit(quadratic, params, bounds, Options{MaxGenerations: 60, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, 4.5, params[1])
}

func TestDiffEvolnFit_Deterministic(t *testing.T) {
	a := []float64{1, 1, 1}
	b := []float64{1, 1, 1}

	ra, err := DiffEvolnFit(quadratic, a, limitedBox(), Options{MaxGenerations: 20, Seed: 77})
	require.NoError(t, err)
	rb, err := DiffEvolnFit(quadratic, b, limitedBox(), Options{MaxGenerations: 20, Seed: 77})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, ra.BestCost, rb.BestCost)
}

func TestDiffEvolnFit_ProgressEveryTenGenerations(t *testing.T) {
	var gens []int
	opts := Options{
		MaxGenerations: 42,
		Seed:           2,
		Progress: func(gen int, _ float64) {
			gens = append(gens, gen)
		},
	}

	_, err := DiffEvolnFit(quadratic, []float64{1, 1, 1}, limitedBox(), opts)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20, 30, 40, 42}, gens)
}

func TestDiffEvolnFit_PopulationPolicy(t *testing.T) {
	calls := 0
	eval := func(p []float64) float64 {
		calls++
		return quadratic(p)
	}

	res, err := DiffEvolnFit(eval, []float64{1, 1, 1}, limitedBox(), Options{MaxGenerations: 5})
	require.NoError(t, err)

	// one initial-cost call plus 10*dim members for the seed population and each generation
	assert.Equal(t, 1+30*(5+1), calls)
	assert.Equal(t, calls, res.Evaluations)
}

func TestDiffEvolnFit_ResultHistory(t *testing.T) {
	var reported []float64
	opts := Options{
		MaxGenerations: 25,
		Seed:           6,
		Progress:       func(_ int, best float64) { reported = append(reported, best) },
	}

	res, err := DiffEvolnFit(quadratic, []float64{1, 1, 1}, limitedBox(), opts)
	require.NoError(t, err)
	assert.Equal(t, reported, res.History)
	assert.Equal(t, res.BestCost, res.History[len(res.History)-1])
	assert.Greater(t, res.Improvement(), 0.0)
}

func TestDiffEvolnFit_PlateauReported(t *testing.T) {
	flat := func([]float64) float64 { return 1 }

	res, err := DiffEvolnFit(flat, []float64{1, 1, 1}, limitedBox(), Options{MaxGenerations: 100, Seed: 3})
	require.NoError(t, err)
	assert.True(t, res.Plateaued)
	assert.Equal(t, 0.0, res.Improvement())
}

func TestDiffEvolnFit_Strategy(t *testing.T) {
	for _, name := range []string{"best/1/bin", "rand/1/exp", "rand/2/bin", "best/2/exp"} {
		t.Run(name, func(t *testing.T) {
			params := []float64{1, 1, 1}
			res, err := DiffEvolnFit(quadratic, params, limitedBox(), Options{MaxGenerations: 200, Seed: 5, Strategy: name})
			require.NoError(t, err)
			assert.Less(t, res.BestCost, 1.0)
		})
	}
}

func TestDiffEvolnFit_UnknownStrategy(t *testing.T) {
	params := []float64{1, 1, 1}
	_, err := DiffEvolnFit(quadratic, params, limitedBox(), Options{MaxGenerations: 5, Strategy: "best/3/exp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "best/3/exp")
	assert.Equal(t, []float64{1, 1, 1}, params)
}

func TestDiffEvolnFit_NaNCostNeverWins(t *testing.T) {
	eval := func(p []float64) float64 {
		if p[0] > 5 {
			return math.NaN()
		}
		return quadratic(p)
	}

	params := []float64{1, 1, 1}
	res, err := DiffEvolnFit(eval, params, limitedBox(), Options{MaxGenerations: 40, Seed: 9})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(res.BestCost))
	assert.LessOrEqual(t, params[0], 5.0)
}

func TestDiffEvolnFit_Mayfly(t *testing.T) {
	params := []float64{1, 1, 1}

	var last int
	res, err := DiffEvolnFit(quadratic, params, limitedBox(), Options{
		MaxGenerations: 60,
		Seed:           4,
		Solver:         SolverMayfly,
		Progress:       func(gen int, _ float64) { last = gen },
	})
	require.NoError(t, err)
	assert.Equal(t, 60, last)
	assert.Greater(t, res.Evaluations, 1)
	assert.LessOrEqual(t, res.BestCost, res.InitialCost)
	for i, b := range limitedBox() {
		assert.GreaterOrEqual(t, params[i], b.Lower)
		assert.LessOrEqual(t, params[i], b.Upper)
	}
}

func TestDiffEvolnFit_UnknownSolver(t *testing.T) {
	params := []float64{1, 1, 1}
	_, err := DiffEvolnFit(quadratic, params, limitedBox(), Options{MaxGenerations: 5, Solver: "lbfgs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lbfgs")
	assert.Equal(t, []float64{1, 1, 1}, params)
}

func TestDiffEvolnFit_NegativeGenerations(t *testing.T) {
	_, err := DiffEvolnFit(quadratic, []float64{1, 1, 1}, limitedBox(), Options{MaxGenerations: -1})
	require.Error(t, err)
}

func TestDiffEvolnFit_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	_, err := DiffEvolnFit(quadratic, []float64{1, 1, 1}, limitedBox(), Options{MaxGenerations: 3, Metrics: m})
	require.NoError(t, err)

	assert.Equal(t, float64(1+30*4), testutil.ToFloat64(m.Evaluations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fits.WithLabelValues(SolverDE, outcomeOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Generation))

	bounds := limitedBox()
	bounds[0] = config.FreeBound()
	_, err = DiffEvolnFit(quadratic, []float64{1, 1, 1}, bounds, Options{MaxGenerations: 3, Metrics: m})
	require.ErrorIs(t, err, ErrMissingBounds)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fits.WithLabelValues(SolverDE, outcomeMissingBounds)))
}
