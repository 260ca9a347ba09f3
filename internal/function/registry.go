package function

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnknownComponent is matched by every UnknownComponentError
var ErrUnknownComponent = errors.New("unknown component")

// UnknownComponentError reports a component name missing from the registry.
// Index is the position of the name in the caller's list, or -1.
type UnknownComponentError struct {
	Name  string
	Index int
}

func (e *UnknownComponentError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("unknown component %q (function #%d)", e.Name, e.Index+1)
	}
	return fmt.Sprintf("unknown component %q", e.Name)
}

func (e *UnknownComponentError) Is(target error) bool {
	if target == ErrUnknownComponent {
		return true
	}
	_, ok := target.(*UnknownComponentError)
	return ok
}

// Constructor returns a new, independently owned component
type Constructor func() Function

// Description is a registry entry as shown by discovery output
type Description struct {
	Name       string   `json:"name" yaml:"name"`
	Parameters []string `json:"parameters" yaml:"parameters"`
}

// Registry maps component names to constructors.
// Names are listed in registration order.
type Registry struct {
	order []string
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Default returns a registry holding all built-in components.
// Each call builds a new registry with the same contents and order.
func Default() *Registry {
	r := NewRegistry()
	r.Register(exponentialName, NewExponential)
	r.Register(gaussianName, NewGaussian)
	r.Register(gaussian2SideName, NewGaussian2Side)
	r.Register(moffatName, NewMoffat)
	r.Register(sersicName, NewSersic)
	r.Register(coreSersicName, NewCoreSersic)
	r.Register(brokenExpName, NewBrokenExponential)
	r.Register(deltaName, NewDelta)
	r.Register(sechName, NewSech)
	r.Register(sech2Name, NewSech2)
	r.Register(vdkSechName, NewVdKSech)
	return r
}

// Register associates name with ctor. Registering an existing name replaces
// its constructor and keeps its position in the listing order.
func (r *Registry) Register(name string, ctor Constructor) {
	if _, exists := r.ctors[name]; exists {
		slog.Debug("Replacing registered component", "name", name)
	} else {
		r.order = append(r.order, name)
	}
	r.ctors[name] = ctor
}

// Create returns a new instance of the named component
func (r *Registry) Create(name string) (Function, error) {
	ctor, ok := r.ctors[name]
	if !ok {
		return nil, &UnknownComponentError{Name: name, Index: -1}
	}
	return ctor(), nil
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.ctors[name]
	return ok
}

// Names returns the registered names in registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered components
func (r *Registry) Len() int {
	return len(r.order)
}

// Describe returns every entry with its parameter names, in registration order
func (r *Registry) Describe() []Description {
	descs := make([]Description, 0, len(r.order))
	for _, name := range r.order {
		f := r.ctors[name]()
		descs = append(descs, Description{Name: name, Parameters: f.ParameterNames()})
	}
	return descs
}
