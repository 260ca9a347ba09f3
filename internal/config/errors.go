package config

import (
	"errors"
	"fmt"
)

// Structural errors concern the layout of the file as a whole
var (
	ErrNoFunctionSection = errors.New("unable to find start of function section (no \"X0\" line found)")
	ErrNoFunctions       = errors.New("no FUNCTION lines found in function section")
	ErrIncompleteXY      = errors.New("X0 line must be followed by a Y0 line")
)

// ErrInvalidLimit marks a rejected limit spec: lower > upper, a non-finite
// limit, an initial value outside the limits, or an unrecognized limit token.
var ErrInvalidLimit = errors.New("invalid parameter limit")

// Line-local syntax errors
var (
	ErrMalformedLine = errors.New("malformed line")
	ErrInvalidNumber = errors.New("invalid numeric value") // malformed or non-finite
)

// LineError attaches source position to a parse failure.
// Use errors.Is(err, ErrInvalidLimit) etc. to classify it.
type LineError struct {
	Line  int
	Param string // parameter name from the line, if any
	Token string // offending token
	Err   error
	Msg   string // extra detail
}

func (e *LineError) Error() string {
	s := fmt.Sprintf("line %d: %v", e.Line, e.Err)
	if e.Param != "" {
		s += fmt.Sprintf(" (parameter %q)", e.Param)
	}
	if e.Token != "" {
		s += fmt.Sprintf(" (token %q)", e.Token)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether err is a structural configuration error
func IsStructural(err error) bool {
	return errors.Is(err, ErrNoFunctionSection) ||
		errors.Is(err, ErrNoFunctions) ||
		errors.Is(err, ErrIncompleteXY)
}

// IsBoundError reports whether err is a bound validation error
func IsBoundError(err error) bool {
	return errors.Is(err, ErrInvalidLimit)
}
