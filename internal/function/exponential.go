package function

import "math"

const (
	exponentialName = "Exponential-1D"
	brokenExpName   = "BrokenExponential-1D"
)

// Exponential is I(r) = I_0 exp(-r/h)
type Exponential struct {
	base
	i0, h float64
}

// NewExponential returns an Exponential-1D component
func NewExponential() Function {
	return &Exponential{base: newBase(exponentialName, "mu_0", "h")}
}

func (f *Exponential) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
	f.h = f.params[1]
}

func (f *Exponential) Value(x float64) float64 {
	r := math.Abs(x - f.x0)
	return f.i0 * math.Exp(-r/f.h)
}

// BrokenExponential joins an inner exponential (scale length h1) and an outer
// one (h2) at the break radius r_b; alpha sets the sharpness of the transition
// (Erwin, Pohlen & Beckman 2008).
type BrokenExponential struct {
	base
	i0, h1, rb, alpha float64
	exponent, lnS     float64
}

// NewBrokenExponential returns a BrokenExponential-1D component
func NewBrokenExponential() Function {
	return &BrokenExponential{base: newBase(brokenExpName, "mu_0", "h1", "h2", "r_b", "alpha")}
}

func (f *BrokenExponential) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
	f.h1 = f.params[1]
	h2 := f.params[2]
	f.rb = f.params[3]
	f.alpha = f.params[4]

	f.exponent = (1 / f.alpha) * (1/f.h1 - 1/h2)
	// normalization so that I(0) = I_0
	f.lnS = -f.exponent * softplus(-f.alpha*f.rb)
}

func (f *BrokenExponential) Value(x float64) float64 {
	r := math.Abs(x - f.x0)
	return f.i0 * math.Exp(f.lnS-r/f.h1+f.exponent*softplus(f.alpha*(r-f.rb)))
}

// softplus returns log(1 + exp(z)) without overflowing for large z
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
