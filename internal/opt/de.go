package opt

import (
	"fmt"
	"math/rand"
	"slices"
)

// Strategy selects the DE mutation scheme and crossover type
type Strategy int

const (
	Best1Exp Strategy = iota
	Rand1Exp
	RandToBest1Exp
	Best2Exp
	Rand2Exp
	Best1Bin
	Rand1Bin
	RandToBest1Bin
	Best2Bin
	Rand2Bin
)

var strategyNames = [...]string{
	Best1Exp:       "best/1/exp",
	Rand1Exp:       "rand/1/exp",
	RandToBest1Exp: "rand-to-best/1/exp",
	Best2Exp:       "best/2/exp",
	Rand2Exp:       "rand/2/exp",
	Best1Bin:       "best/1/bin",
	Rand1Bin:       "rand/1/bin",
	RandToBest1Bin: "rand-to-best/1/bin",
	Best2Bin:       "best/2/bin",
	Rand2Bin:       "rand/2/bin",
}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseStrategy converts a name such as "rand-to-best/1/exp" to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown DE strategy: %s", name)
}

func (s Strategy) binomial() bool {
	return s >= Best1Bin
}

// DEConfig configures a differential evolution run
type DEConfig struct {
	Strategy    Strategy
	F           float64 // weighting factor
	CR          float64 // crossover probability
	PopSize     int
	Generations int
	Seed        int64

	// ReportEvery is the generation interval for Report (default 10)
	ReportEvery int
	Report      ReportFunc
}

// DiffEvoln is a differential evolution optimizer (Storn & Price 1997).
// Trial vectors are clamped into the bounds, so a zero-width interval keeps
// its parameter constant. The objective must not return NaN.
type DiffEvoln struct {
	cfg DEConfig
	rng *rand.Rand

	// evaluations performed by the last Run
	evaluations int
}

// NewDiffEvoln creates a differential evolution optimizer
func NewDiffEvoln(cfg DEConfig) *DiffEvoln {
	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = 10
	}
	return &DiffEvoln{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Evaluations returns the number of objective evaluations of the last Run
func (d *DiffEvoln) Evaluations() int {
	return d.evaluations
}

// minPopSize leaves five distinct donors besides the candidate
const minPopSize = 6

// Run executes exactly cfg.Generations generations.
func (d *DiffEvoln) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	cfg := d.cfg
	popSize := cfg.PopSize
	if popSize < minPopSize {
		popSize = minPopSize
	}
	d.evaluations = 0
	if dim == 0 {
		return []float64{}, d.evaluate(eval, []float64{})
	}

	// Seed the population uniformly inside the bounds
	pop := make([][]float64, popSize)
	energy := make([]float64, popSize)
	bestIdx := 0
	for i := range pop {
		pop[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			pop[i][j] = lower[j] + d.rng.Float64()*(upper[j]-lower[j])
		}
		energy[i] = d.evaluate(eval, pop[i])
		if energy[i] < energy[bestIdx] {
			bestIdx = i
		}
	}
	best := append([]float64(nil), pop[bestIdx]...)
	bestEnergy := energy[bestIdx]

	trial := make([]float64, dim)
	for gen := 0; gen < cfg.Generations; gen++ {
		if cfg.Report != nil && gen%cfg.ReportEvery == 0 {
			cfg.Report(gen, bestEnergy)
		}

		for i := 0; i < popSize; i++ {
			d.makeTrial(trial, pop, i, best, dim)
			for j := 0; j < dim; j++ {
				trial[j] = clamp(trial[j], lower[j], upper[j])
			}

			e := d.evaluate(eval, trial)
			if e < energy[i] {
				copy(pop[i], trial)
				energy[i] = e
				if e < bestEnergy {
					copy(best, trial)
					bestEnergy = e
				}
			}
		}
	}

	if cfg.Report != nil {
		cfg.Report(cfg.Generations, bestEnergy)
	}
	return best, bestEnergy
}

func (d *DiffEvoln) evaluate(eval func([]float64) float64, x []float64) float64 {
	d.evaluations++
	return eval(x)
}

// makeTrial builds the trial vector for candidate i into trial
func (d *DiffEvoln) makeTrial(trial []float64, pop [][]float64, i int, best []float64, dim int) {
	r := d.pickDistinct(len(pop), i)
	r1, r2, r3, r4, r5 := pop[r[0]], pop[r[1]], pop[r[2]], pop[r[3]], pop[r[4]]
	f := d.cfg.F

	copy(trial, pop[i])

	var mutate func(j int) float64
	switch d.cfg.Strategy {
	case Best1Exp, Best1Bin:
		mutate = func(j int) float64 { return best[j] + f*(r1[j]-r2[j]) }
	case Rand1Exp, Rand1Bin:
		mutate = func(j int) float64 { return r1[j] + f*(r2[j]-r3[j]) }
	case RandToBest1Exp, RandToBest1Bin:
		mutate = func(j int) float64 { return trial[j] + f*(best[j]-trial[j]) + f*(r1[j]-r2[j]) }
	case Best2Exp, Best2Bin:
		mutate = func(j int) float64 { return best[j] + f*(r1[j]+r2[j]-r3[j]-r4[j]) }
	default:
		mutate = func(j int) float64 { return r5[j] + f*(r1[j]+r2[j]-r3[j]-r4[j]) }
	}

	n := d.rng.Intn(dim)
	if d.cfg.Strategy.binomial() {
		// the last dimension visited always takes the mutant value
		for k := 0; k < dim; k++ {
			if d.rng.Float64() < d.cfg.CR || k == dim-1 {
				trial[n] = mutate(n)
			}
			n = (n + 1) % dim
		}
		return
	}

	// exponential crossover: a contiguous run starting at a random position
	for k := 0; k < dim; k++ {
		trial[n] = mutate(n)
		n = (n + 1) % dim
		if d.rng.Float64() >= d.cfg.CR {
			break
		}
	}
}

// pickDistinct returns five population indices different from exclude and
// from each other.
func (d *DiffEvoln) pickDistinct(popSize, exclude int) [5]int {
	var r [5]int
	for k := 0; k < len(r); {
		c := d.rng.Intn(popSize)
		if c == exclude || slices.Contains(r[:k], c) {
			continue
		}
		r[k] = c
		k++
	}
	return r
}
