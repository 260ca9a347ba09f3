// Package function provides the one-dimensional profile components that make
// up a model, and the Registry that creates them by name.
package function

import "math"

// Function is a parametric 1-D profile component
type Function interface {
	// Name returns the short name used in configuration files
	Name() string

	// ParameterNames returns the parameter labels in the order the component
	// reads them from the parameter vector.
	ParameterNames() []string

	// NParams returns len(ParameterNames())
	NParams() int

	// SetZeroPoint sets the magnitude zero point used to convert surface
	// brightness parameters into intensities.
	SetZeroPoint(zp float64)

	// Setup copies NParams() values starting at params[offset] into the
	// component and records the set's anchor coordinate x0.
	Setup(params []float64, offset int, x0 float64)

	// Value returns the intensity at x
	Value(x float64) float64
}

// base holds the state shared by all components
type base struct {
	name      string
	names     []string
	params    []float64
	x0        float64
	zeroPoint float64
}

func newBase(name string, paramNames ...string) base {
	return base{
		name:   name,
		names:  paramNames,
		params: make([]float64, len(paramNames)),
	}
}

func (b *base) Name() string { return b.name }

func (b *base) ParameterNames() []string {
	return append([]string(nil), b.names...)
}

func (b *base) NParams() int { return len(b.names) }

func (b *base) SetZeroPoint(zp float64) { b.zeroPoint = zp }

func (b *base) load(params []float64, offset int, x0 float64) {
	copy(b.params, params[offset:offset+len(b.params)])
	b.x0 = x0
}

// intensity converts a surface brightness in mag/arcsec^2 to intensity
func (b *base) intensity(mu float64) float64 {
	return math.Pow(10, 0.4*(b.zeroPoint-mu))
}
