package config

import "fmt"

// GlobalOption is a KEYWORD value pair from the section before the first X0 line.
// Options are not interpreted by the parser.
type GlobalOption struct {
	Name  string
	Value string
	Line  int // 1-based line number in the source
}

// BoundKind tells how a parameter may vary during a fit
type BoundKind int

const (
	Free BoundKind = iota
	Fixed
	Limited
)

func (k BoundKind) String() string {
	switch k {
	case Free:
		return "free"
	case Fixed:
		return "fixed"
	case Limited:
		return "limited"
	default:
		return fmt.Sprintf("BoundKind(%d)", int(k))
	}
}

// ParameterBound is the per-parameter limit spec.
// For Limited bounds Lower <= Upper always holds and the initial value lies
// inside [Lower, Upper]; the parser rejects anything else.
type ParameterBound struct {
	Kind  BoundKind
	Lower float64
	Upper float64
}

// FreeBound returns a bound with no limits
func FreeBound() ParameterBound { return ParameterBound{Kind: Free} }

// FixedBound returns a bound that pins the parameter to its initial value
func FixedBound() ParameterBound { return ParameterBound{Kind: Fixed} }

// LimitedBound returns a closed-interval bound
func LimitedBound(lower, upper float64) ParameterBound {
	return ParameterBound{Kind: Limited, Lower: lower, Upper: upper}
}

// String renders the bound as it would appear in a configuration file.
// Free bounds render as the empty string.
func (b ParameterBound) String() string {
	switch b.Kind {
	case Fixed:
		return fixedIndicator
	case Limited:
		return fmt.Sprintf("%g,%g", b.Lower, b.Upper)
	default:
		return ""
	}
}

// ParsedFunction is one FUNCTION declaration and the parameters following it
type ParsedFunction struct {
	Name string
	Line int

	// ParamOffset is the index of the first parameter line after the FUNCTION
	// line in the flat parameter list; NParams counts the parameter lines up to
	// the next FUNCTION or X0 line.
	ParamOffset int
	NParams     int
}

// ParsedModelSpec is the complete result of parsing one configuration.
// The X0 (and Y0) values that open each function set are ordinary entries of
// Parameters, placed before the set's first function.
type ParsedModelSpec struct {
	Options    []GlobalOption
	Functions  []ParsedFunction
	Parameters []float64

	// Bounds is one-to-one with Parameters. It is nil for the value-only parser.
	Bounds []ParameterBound

	// SetStarts holds, for every function set, the index into Functions of
	// its first function.
	SetStarts []int

	// LimitsFound reports whether any parameter line carried a limit spec
	LimitsFound bool
}

// FunctionNames returns the component names in declaration order
func (s *ParsedModelSpec) FunctionNames() []string {
	names := make([]string, len(s.Functions))
	for i, f := range s.Functions {
		names[i] = f.Name
	}
	return names
}

// Option returns the value of the last option with the given name
func (s *ParsedModelSpec) Option(name string) (string, bool) {
	for i := len(s.Options) - 1; i >= 0; i-- {
		if s.Options[i].Name == name {
			return s.Options[i].Value, true
		}
	}
	return "", false
}

// ParseOptions controls parser behavior
type ParseOptions struct {
	// Mode2D requires every X0 line to be followed by a Y0 line
	Mode2D bool

	// Lenient turns malformed numeric tokens into 0 (with a warning) instead
	// of failing the parse.
	Lenient bool
}
