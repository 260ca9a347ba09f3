package model

import (
	"errors"
	"fmt"
)

// ErrParameterCount is returned when a parameter vector does not match the model.
// Use errors.Is(err, ErrParameterCount) to check for this error.
var ErrParameterCount = &ParameterCountError{}

// ErrNoData is returned by ChiSquared when no profile has been attached
var ErrNoData = errors.New("no data profile attached to model")

// ParameterCountError reports a mismatch between the parameters a model (or
// one of its components) needs and the number supplied.
type ParameterCountError struct {
	Function string // empty for a whole-model mismatch
	Line     int
	Expected int
	Got      int
}

func (e *ParameterCountError) Error() string {
	if e.Function != "" {
		return fmt.Sprintf("line %d: function %s expects %d parameters, got %d",
			e.Line, e.Function, e.Expected, e.Got)
	}
	return fmt.Sprintf("model expects %d parameters, got %d", e.Expected, e.Got)
}

func (e *ParameterCountError) Is(target error) bool {
	_, ok := target.(*ParameterCountError)
	return ok
}
