// Package settings provides the optional YAML settings file for imfit1d.
// Precedence is defaults < settings file < command-line flags.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hujh08/imfit/internal/opt"
)

// DefaultFile is the settings file looked up in the working directory
const DefaultFile = "imfit.yaml"

// Settings represents the complete imfit1d settings
type Settings struct {
	Fit     FitSettings     `yaml:"fit"`
	Output  OutputSettings  `yaml:"output"`
	Store   StoreSettings   `yaml:"store"`
	Metrics MetricsSettings `yaml:"metrics"`
	Log     LogSettings     `yaml:"log"`
}

// FitSettings configures the optimization driver
type FitSettings struct {
	// Generations is the exact number of DE generations (default: 600)
	Generations int `yaml:"generations"`
	// Seed for the random number generator (0 = derive from the clock)
	Seed int64 `yaml:"seed"`
	// Solver is "de" or "mayfly"
	Solver string `yaml:"solver"`
	// Strategy is the DE mutation scheme, e.g. "rand-to-best/1/exp"
	Strategy string `yaml:"strategy"`
	// Lenient turns malformed numbers in configuration files into 0
	Lenient bool `yaml:"lenient"`
	// Concurrency is the number of parallel fits in batch mode
	Concurrency int `yaml:"concurrency"`
}

// OutputSettings configures output files
type OutputSettings struct {
	// BestFitFile receives the best-fit configuration
	BestFitFile string `yaml:"bestfit_file"`
}

// StoreSettings configures run persistence
type StoreSettings struct {
	// DataDir is the root of the run store
	DataDir string `yaml:"data_dir"`
	// Save stores every completed fit
	Save bool `yaml:"save"`
}

// MetricsSettings configures the Prometheus endpoint
type MetricsSettings struct {
	// Addr to serve /metrics on while fitting (empty = disabled)
	Addr string `yaml:"addr"`
}

// LogSettings configures logging
type LogSettings struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// Default returns Settings with sensible defaults
func Default() *Settings {
	return &Settings{
		Fit: FitSettings{
			Generations: 600,
			Solver:      "de",
			Strategy:    "rand-to-best/1/exp",
			Concurrency: 4,
		},
		Output: OutputSettings{
			BestFitFile: "bestfit_parameters_imfit1d.dat",
		},
		Store: StoreSettings{
			DataDir: "./data",
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Validate checks that the settings are usable
func (s *Settings) Validate() error {
	if s.Fit.Generations < 0 {
		return fmt.Errorf("fit.generations must be non-negative")
	}
	if s.Fit.Solver != "de" && s.Fit.Solver != "mayfly" {
		return fmt.Errorf("fit.solver must be \"de\" or \"mayfly\", got %q", s.Fit.Solver)
	}
	if _, err := opt.ParseStrategy(s.Fit.Strategy); err != nil {
		return fmt.Errorf("fit.strategy: %w", err)
	}
	if s.Fit.Concurrency < 1 {
		return fmt.Errorf("fit.concurrency must be at least 1")
	}
	if s.Output.BestFitFile == "" {
		return fmt.Errorf("output.bestfit_file is required")
	}
	if s.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir is required")
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// LoadFromFile loads settings from a YAML file on top of the defaults
func LoadFromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s, nil
}

// Load returns the defaults merged with the settings file at path.
// An empty path tries DefaultFile and silently falls back to the defaults
// when it does not exist; an explicit path must exist.
func Load(path string) (*Settings, error) {
	s := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	fromFile, err := LoadFromFile(path)
	switch {
	case err == nil:
		slog.Debug("Loaded settings", "path", path)
		s.Merge(fromFile)
	case !explicit && errors.Is(err, os.ErrNotExist):
		slog.Debug("No settings file found", "path", path)
	default:
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// SaveToFile saves settings to a YAML file
func (s *Settings) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Merge merges other into s (other takes precedence for non-zero values)
func (s *Settings) Merge(other *Settings) {
	if other == nil {
		return
	}

	// Fit
	if other.Fit.Generations != 0 {
		s.Fit.Generations = other.Fit.Generations
	}
	if other.Fit.Seed != 0 {
		s.Fit.Seed = other.Fit.Seed
	}
	if other.Fit.Solver != "" {
		s.Fit.Solver = other.Fit.Solver
	}
	if other.Fit.Strategy != "" {
		s.Fit.Strategy = other.Fit.Strategy
	}
	if other.Fit.Lenient {
		s.Fit.Lenient = true
	}
	if other.Fit.Concurrency != 0 {
		s.Fit.Concurrency = other.Fit.Concurrency
	}

	// Output
	if other.Output.BestFitFile != "" {
		s.Output.BestFitFile = other.Output.BestFitFile
	}

	// Store
	if other.Store.DataDir != "" {
		s.Store.DataDir = other.Store.DataDir
	}
	if other.Store.Save {
		s.Store.Save = true
	}

	// Metrics
	if other.Metrics.Addr != "" {
		s.Metrics.Addr = other.Metrics.Addr
	}

	// Log
	if other.Log.Level != "" {
		s.Log.Level = other.Log.Level
	}
}
