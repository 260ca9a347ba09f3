package function

import "math"

const moffatName = "Moffat-1D"

// Moffat is I(r) = I_0 (1 + (r/alpha)^2)^-beta, with alpha derived from the FWHM
type Moffat struct {
	base
	i0, alpha, beta float64
}

// NewMoffat returns a Moffat-1D component
func NewMoffat() Function {
	return &Moffat{base: newBase(moffatName, "mu_0", "fwhm", "beta")}
}

func (f *Moffat) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
	fwhm := f.params[1]
	f.beta = f.params[2]
	f.alpha = fwhm / (2 * math.Sqrt(math.Pow(2, 1/f.beta)-1))
}

func (f *Moffat) Value(x float64) float64 {
	scaled := (x - f.x0) / f.alpha
	return f.i0 * math.Pow(1+scaled*scaled, -f.beta)
}
