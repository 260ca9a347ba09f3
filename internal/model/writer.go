package model

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/hujh08/imfit/internal/config"
	"github.com/hujh08/imfit/internal/function"
)

// WriteConfig writes a configuration file for the model: the global options,
// then every function set with labeled parameter lines. bounds may be nil;
// otherwise it must match params and non-free bounds are written as limit specs.
// The output parses back to the same values and bounds.
func (m *Model) WriteConfig(w io.Writer, options []config.GlobalOption, params []float64, bounds []config.ParameterBound) error {
	if len(params) != m.NParams() {
		return &ParameterCountError{Expected: m.NParams(), Got: len(params)}
	}
	if bounds != nil && len(bounds) != len(params) {
		return fmt.Errorf("bounds length %d does not match parameter count %d", len(bounds), len(params))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, opt := range options {
		fmt.Fprintf(tw, "%s\t%s\n", opt.Name, opt.Value)
	}

	i := 0
	param := func(label string) {
		line := label + "\t" + strconv.FormatFloat(params[i], 'g', -1, 64)
		if bounds != nil {
			if spec := bounds[i].String(); spec != "" {
				line += "\t" + spec
			}
		}
		fmt.Fprintln(tw, line)
		i++
	}

	m.walk(func(f function.Function, setStart bool) {
		if setStart {
			fmt.Fprintln(tw)
			param(x0Label)
		}
		fmt.Fprintf(tw, "FUNCTION %s\n", f.Name())
		for _, label := range f.ParameterNames() {
			param(label)
		}
	})

	return tw.Flush()
}
