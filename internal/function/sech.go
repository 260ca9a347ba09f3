package function

import "math"

const (
	sechName    = "Sech-1D"
	sech2Name   = "Sech2-1D"
	vdkSechName = "vdKSech-1D"
)

func sech(z float64) float64 {
	return 1 / math.Cosh(z)
}

// Sech is I(r) = I_0 sech(r/h)
type Sech struct {
	base
	i0, h float64
}

// NewSech returns a Sech-1D component
func NewSech() Function {
	return &Sech{base: newBase(sechName, "mu_0", "h")}
}

func (f *Sech) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
	f.h = f.params[1]
}

func (f *Sech) Value(x float64) float64 {
	return f.i0 * sech((x-f.x0)/f.h)
}

// Sech2 is I(r) = I_0 sech^2(r/h), the isothermal disk profile
type Sech2 struct {
	base
	i0, h float64
}

// NewSech2 returns a Sech2-1D component
func NewSech2() Function {
	return &Sech2{base: newBase(sech2Name, "mu_0", "h")}
}

func (f *Sech2) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
	f.h = f.params[1]
}

func (f *Sech2) Value(x float64) float64 {
	s := sech((x - f.x0) / f.h)
	return f.i0 * s * s
}

// VdKSech is the van der Kruit (1988) generalized vertical disk profile,
// I(r) = I_0 sech^(2/alpha)(alpha r / 2 z_0). alpha = 1 gives sech^2,
// alpha = 2 gives sech and large alpha approaches an exponential.
type VdKSech struct {
	base
	i0, z0, alpha float64
}

// NewVdKSech returns a vdKSech-1D component
func NewVdKSech() Function {
	return &VdKSech{base: newBase(vdkSechName, "mu_0", "z_0", "alpha")}
}

func (f *VdKSech) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
	f.z0 = f.params[1]
	f.alpha = f.params[2]
}

func (f *VdKSech) Value(x float64) float64 {
	r := math.Abs(x - f.x0)
	return f.i0 * math.Pow(sech(f.alpha*r/(2*f.z0)), 2/f.alpha)
}
