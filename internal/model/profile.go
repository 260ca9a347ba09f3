package model

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Profile is a sampled 1-D surface-brightness profile.
// Err is nil when the data carries no uncertainties.
type Profile struct {
	X   []float64
	Y   []float64
	Err []float64
}

// Len returns the number of samples
func (p *Profile) Len() int {
	return len(p.X)
}

// Validate checks that the columns line up and that every error is positive
func (p *Profile) Validate() error {
	if len(p.Y) != len(p.X) {
		return fmt.Errorf("profile has %d x values but %d y values", len(p.X), len(p.Y))
	}
	if p.Err != nil {
		if len(p.Err) != len(p.X) {
			return fmt.Errorf("profile has %d x values but %d errors", len(p.X), len(p.Err))
		}
		for i, e := range p.Err {
			if !(e > 0) {
				return fmt.Errorf("profile error at row %d must be positive, got %g", i+1, e)
			}
		}
	}
	return nil
}

// Crop returns the samples with xMin <= x <= xMax
func (p *Profile) Crop(xMin, xMax float64) *Profile {
	out := &Profile{}
	for i, x := range p.X {
		if x < xMin || x > xMax {
			continue
		}
		out.X = append(out.X, x)
		out.Y = append(out.Y, p.Y[i])
		if p.Err != nil {
			out.Err = append(out.Err, p.Err[i])
		}
	}
	return out
}

// ReadProfile reads whitespace-separated "x y [err]" rows. Blank lines and
// text after '#' are ignored. Either every row has an error column or none does.
func ReadProfile(r io.Reader) (*Profile, error) {
	p := &Profile{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	columns := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 columns, got %d", lineNo, len(fields))
		}
		if columns == 0 {
			columns = len(fields)
		} else if len(fields) != columns {
			return nil, fmt.Errorf("line %d: expected %d columns like the first data row, got %d", lineNo, columns, len(fields))
		}

		vals := make([]float64, len(fields))
		for i, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q: %w", lineNo, tok, err)
			}
			vals[i] = v
		}
		p.X = append(p.X, vals[0])
		p.Y = append(p.Y, vals[1])
		if columns == 3 {
			p.Err = append(p.Err, vals[2])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if p.Len() == 0 {
		return nil, fmt.Errorf("profile contains no data rows")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadProfileFile reads a profile from path
func ReadProfileFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	p, err := ReadProfile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// WriteProfile writes "x y" rows
func WriteProfile(w io.Writer, x, y []float64) error {
	bw := bufio.NewWriter(w)
	for i := range x {
		if _, err := fmt.Fprintf(bw, "%g\t%g\n", x[i], y[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SetData attaches the profile used by ChiSquared
func (m *Model) SetData(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.data = p
	m.values = make([]float64, p.Len())
	return nil
}

// ChiSquared returns sum(((y - model) / err)^2) over the attached profile.
// Without an error column every sample has unit weight.
func (m *Model) ChiSquared(params []float64) (float64, error) {
	if m.data == nil {
		return 0, ErrNoData
	}
	if err := m.evaluateInto(m.values, params, m.data.X); err != nil {
		return 0, err
	}
	var sum float64
	for i, v := range m.values {
		d := m.data.Y[i] - v
		if m.data.Err != nil {
			d /= m.data.Err[i]
		}
		sum += d * d
	}
	return sum, nil
}

// Cost adapts ChiSquared to a plain objective function.
// Parameter-count errors evaluate to +Inf.
func (m *Model) Cost() func(params []float64) float64 {
	return func(params []float64) float64 {
		c, err := m.ChiSquared(params)
		if err != nil {
			return math.Inf(1)
		}
		return c
	}
}
