package fit

import (
	"fmt"
	"strings"
)

// ErrMissingBounds is returned when at least one parameter has no search interval.
// Use errors.Is(err, ErrMissingBounds) to check for this error.
var ErrMissingBounds = &MissingBoundsError{}

// MissingBoundsError lists the parameters that are neither fixed nor limited
type MissingBoundsError struct {
	Indices []int
	Labels  []string // optional, same length as Indices when set
}

func (e *MissingBoundsError) Error() string {
	if len(e.Indices) == 0 {
		return "parameter limits must be supplied for all parameters"
	}
	names := make([]string, len(e.Indices))
	for i, idx := range e.Indices {
		if i < len(e.Labels) && e.Labels[i] != "" {
			names[i] = fmt.Sprintf("%d (%s)", idx, e.Labels[i])
		} else {
			names[i] = fmt.Sprintf("%d", idx)
		}
	}
	return "parameter limits must be supplied for all parameters; missing for " + strings.Join(names, ", ")
}

func (e *MissingBoundsError) Is(target error) bool {
	_, ok := target.(*MissingBoundsError)
	return ok
}
