package model

import (
	"log/slog"

	"github.com/hujh08/imfit/internal/config"
	"github.com/hujh08/imfit/internal/function"
)

// Assemble builds a Model from a parsed configuration, creating every
// component through reg in declaration order. An unknown name aborts with a
// *function.UnknownComponentError carrying the entry's position. The model's
// parameter count is cross-checked against the parsed values.
func Assemble(reg *function.Registry, spec *config.ParsedModelSpec, zeroPoint float64) (*Model, error) {
	m := New(zeroPoint)
	for i, pf := range spec.Functions {
		f, err := reg.Create(pf.Name)
		if err != nil {
			return nil, &function.UnknownComponentError{Name: pf.Name, Index: i}
		}
		m.AddFunction(f)
	}

	if err := m.DefineFunctionSets(spec.SetStarts); err != nil {
		return nil, err
	}

	if m.NParams() != len(spec.Parameters) {
		return nil, &ParameterCountError{Expected: m.NParams(), Got: len(spec.Parameters)}
	}
	for i, pf := range spec.Functions {
		if want := m.functions[i].NParams(); pf.NParams != want {
			return nil, &ParameterCountError{
				Function: pf.Name,
				Line:     pf.Line,
				Expected: want,
				Got:      pf.NParams,
			}
		}
	}

	slog.Debug("Assembled model",
		"functions", m.NFunctions(),
		"function_sets", len(m.setStarts),
		"parameters", m.NParams(),
	)
	return m, nil
}
