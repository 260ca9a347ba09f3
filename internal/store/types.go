package store

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Run is the saved record of one completed fit.
// All fields are serialized to JSON for persistence.
type Run struct {
	// ID is the unique identifier for this run (a UUID from NewRunID)
	ID string `json:"id"`

	// ConfigPath and DataPath are the inputs the fit read
	ConfigPath string `json:"configPath"`
	DataPath   string `json:"dataPath,omitempty"`

	// Solver is the search algorithm ("de" or "mayfly")
	Solver      string `json:"solver"`
	Generations int    `json:"generations"`
	Seed        int64  `json:"seed"`

	// Functions lists the component names in declaration order
	Functions []string `json:"functions"`

	// Labels names every entry of InitialParams and BestParams
	Labels []string `json:"labels"`

	InitialParams []float64 `json:"initialParams"`
	BestParams    []float64 `json:"bestParams"`

	InitialCost float64 `json:"initialCost"`
	BestCost    float64 `json:"bestCost"`

	// Timestamp records when the fit finished
	Timestamp time.Time `json:"timestamp"`
}

// RunInfo contains metadata about a run without the parameter vectors.
// Used for listing runs.
type RunInfo struct {
	ID          string    `json:"id"`
	ConfigPath  string    `json:"configPath"`
	Solver      string    `json:"solver"`
	Functions   int       `json:"functions"`
	Parameters  int       `json:"parameters"`
	BestCost    float64   `json:"bestCost"`
	Generations int       `json:"generations"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.New().String()
}

// ToInfo converts a full Run to RunInfo (metadata only).
func (r *Run) ToInfo() RunInfo {
	return RunInfo{
		ID:          r.ID,
		ConfigPath:  r.ConfigPath,
		Solver:      r.Solver,
		Functions:   len(r.Functions),
		Parameters:  len(r.BestParams),
		BestCost:    r.BestCost,
		Generations: r.Generations,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks if the run has valid data.
// Returns a *ValidationError naming the first invalid field.
func (r *Run) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.ConfigPath == "" {
		return &ValidationError{Field: "ConfigPath", Reason: "cannot be empty"}
	}
	if r.Solver == "" {
		return &ValidationError{Field: "Solver", Reason: "cannot be empty"}
	}
	if r.Generations < 0 {
		return &ValidationError{Field: "Generations", Reason: "cannot be negative"}
	}
	if len(r.Functions) == 0 {
		return &ValidationError{Field: "Functions", Reason: "cannot be empty"}
	}
	if len(r.BestParams) == 0 {
		return &ValidationError{Field: "BestParams", Reason: "cannot be empty"}
	}
	if len(r.InitialParams) != len(r.BestParams) {
		return &ValidationError{
			Field:  "InitialParams",
			Reason: fmt.Sprintf("length mismatch: expected %d, got %d", len(r.BestParams), len(r.InitialParams)),
		}
	}
	if r.Labels != nil && len(r.Labels) != len(r.BestParams) {
		return &ValidationError{
			Field:  "Labels",
			Reason: fmt.Sprintf("length mismatch: expected %d, got %d", len(r.BestParams), len(r.Labels)),
		}
	}
	// JSON cannot carry NaN or Inf
	for _, c := range []struct {
		field string
		v     float64
	}{{"InitialCost", r.InitialCost}, {"BestCost", r.BestCost}} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return &ValidationError{Field: c.field, Reason: "must be finite"}
		}
		if c.v < 0 {
			return &ValidationError{Field: c.field, Reason: "cannot be negative"}
		}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a run validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
