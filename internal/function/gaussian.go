package function

import "math"

const (
	gaussianName      = "Gaussian-1D"
	gaussian2SideName = "Gaussian2Side-1D"
)

// Gaussian is I(r) = I_0 exp(-r^2 / 2 sigma^2)
type Gaussian struct {
	base
	i0, twoSigmaSq float64
}

// NewGaussian returns a Gaussian-1D component
func NewGaussian() Function {
	return &Gaussian{base: newBase(gaussianName, "mu_0", "sigma")}
}

func (f *Gaussian) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
	sigma := f.params[1]
	f.twoSigmaSq = 2 * sigma * sigma
}

func (f *Gaussian) Value(x float64) float64 {
	dx := x - f.x0
	return f.i0 * math.Exp(-dx*dx/f.twoSigmaSq)
}

// Gaussian2Side uses sigma_left for x < x0 and sigma_right otherwise
type Gaussian2Side struct {
	base
	i0, twoSigmaSqLeft, twoSigmaSqRight float64
}

// NewGaussian2Side returns a Gaussian2Side-1D component
func NewGaussian2Side() Function {
	return &Gaussian2Side{base: newBase(gaussian2SideName, "mu_0", "sigma_left", "sigma_right")}
}

func (f *Gaussian2Side) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
	left, right := f.params[1], f.params[2]
	f.twoSigmaSqLeft = 2 * left * left
	f.twoSigmaSqRight = 2 * right * right
}

func (f *Gaussian2Side) Value(x float64) float64 {
	dx := x - f.x0
	if dx < 0 {
		return f.i0 * math.Exp(-dx*dx/f.twoSigmaSqLeft)
	}
	return f.i0 * math.Exp(-dx*dx/f.twoSigmaSqRight)
}
