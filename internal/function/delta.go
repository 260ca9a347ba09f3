package function

import "math"

const deltaName = "Delta-1D"

// Delta is I_0 within half a unit of x0 and zero elsewhere
type Delta struct {
	base
	i0 float64
}

// NewDelta returns a Delta-1D component
func NewDelta() Function {
	return &Delta{base: newBase(deltaName, "mu_0")}
}

func (f *Delta) Setup(params []float64, offset int, x0 float64) {
	f.load(params, offset, x0)
	f.i0 = f.intensity(f.params[0])
}

func (f *Delta) Value(x float64) float64 {
	if math.Abs(x-f.x0) < 0.5 {
		return f.i0
	}
	return 0
}
