// Package model groups profile components into function sets, evaluates the
// summed profile and computes the chi-squared fit statistic against data.
package model

import (
	"fmt"

	"github.com/hujh08/imfit/internal/function"
)

// x0Label is the label of the anchor parameter that opens each function set
const x0Label = "X0"

// Model is an ordered list of components grouped into function sets.
// Each set owns one X0 parameter followed by the parameters of its components.
// A Model is not safe for concurrent use; Evaluate reconfigures its components.
type Model struct {
	functions []function.Function
	setStarts []int
	zeroPoint float64

	data *Profile
	// scratch buffer for ChiSquared
	values []float64
}

// New creates an empty model with the given magnitude zero point
func New(zeroPoint float64) *Model {
	return &Model{zeroPoint: zeroPoint}
}

// AddFunction appends a component
func (m *Model) AddFunction(f function.Function) {
	f.SetZeroPoint(m.zeroPoint)
	m.functions = append(m.functions, f)
}

// DefineFunctionSets records the index of the first component of every set.
// starts must begin at 0 and be strictly increasing.
func (m *Model) DefineFunctionSets(starts []int) error {
	if len(m.functions) > 0 && len(starts) == 0 {
		return fmt.Errorf("no function sets defined for %d functions", len(m.functions))
	}
	for i, s := range starts {
		if i == 0 && s != 0 {
			return fmt.Errorf("first function set must start at function 0, got %d", s)
		}
		if i > 0 && s <= starts[i-1] {
			return fmt.Errorf("function set starts must increase: %d after %d", s, starts[i-1])
		}
		if s >= len(m.functions) {
			return fmt.Errorf("function set %d starts at %d, but only %d functions exist", i+1, s, len(m.functions))
		}
	}
	m.setStarts = append([]int(nil), starts...)
	return nil
}

// NFunctions returns the number of components
func (m *Model) NFunctions() int {
	return len(m.functions)
}

// FunctionNames returns the component names in order
func (m *Model) FunctionNames() []string {
	names := make([]string, len(m.functions))
	for i, f := range m.functions {
		names[i] = f.Name()
	}
	return names
}

// NParams returns one X0 per function set plus every component parameter
func (m *Model) NParams() int {
	n := len(m.setStarts)
	for _, f := range m.functions {
		n += f.NParams()
	}
	return n
}

// ParameterLabels returns a label for every entry of the parameter vector
func (m *Model) ParameterLabels() []string {
	labels := make([]string, 0, m.NParams())
	m.walk(func(f function.Function, setStart bool) {
		if setStart {
			labels = append(labels, x0Label)
		}
		labels = append(labels, f.ParameterNames()...)
	})
	return labels
}

// walk visits the components in order, flagging the first of each set
func (m *Model) walk(visit func(f function.Function, setStart bool)) {
	set := 0
	for i, f := range m.functions {
		start := set < len(m.setStarts) && m.setStarts[set] == i
		if start {
			set++
		}
		visit(f, start)
	}
}

// setup loads params into every component
func (m *Model) setup(params []float64) error {
	if len(params) != m.NParams() {
		return &ParameterCountError{Expected: m.NParams(), Got: len(params)}
	}
	offset := 0
	var x0 float64
	m.walk(func(f function.Function, setStart bool) {
		if setStart {
			x0 = params[offset]
			offset++
		}
		f.Setup(params, offset, x0)
		offset += f.NParams()
	})
	return nil
}

// Evaluate returns the summed model profile at every x
func (m *Model) Evaluate(params, x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	if err := m.evaluateInto(out, params, x); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateFunction returns the profile of component i alone at every x
func (m *Model) EvaluateFunction(i int, params, x []float64) ([]float64, error) {
	if i < 0 || i >= len(m.functions) {
		return nil, fmt.Errorf("function index %d out of range [0, %d)", i, len(m.functions))
	}
	if err := m.setup(params); err != nil {
		return nil, err
	}
	f := m.functions[i]
	out := make([]float64, len(x))
	for j, xj := range x {
		out[j] = f.Value(xj)
	}
	return out, nil
}

func (m *Model) evaluateInto(out, params, x []float64) error {
	if err := m.setup(params); err != nil {
		return err
	}
	for i, xi := range x {
		var sum float64
		for _, f := range m.functions {
			sum += f.Value(xi)
		}
		out[i] = sum
	}
	return nil
}
