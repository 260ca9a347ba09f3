package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hujh08/imfit/internal/config"
	"github.com/hujh08/imfit/internal/fit"
	"github.com/hujh08/imfit/internal/function"
	"github.com/hujh08/imfit/internal/model"
	"github.com/hujh08/imfit/internal/server"
	"github.com/hujh08/imfit/internal/store"
)

var (
	fitDataPath    string
	fitOutPath     string
	fitGenerations int
	fitSeed        int64
	fitSolver      string
	fitStrategy    string
	fitLenient     bool
	fitZeroPoint   float64
	fitDataDir     string
	fitSave        bool
	fitMetricsAddr string
	fitXMin        float64
	fitXMax        float64
)

var fitCmd = &cobra.Command{
	Use:   "fit <config-file>",
	Short: "Fit a model to a 1-D profile",
	Long: `Parses the configuration file, builds the model, reads the profile
(--data or the DATA_FILE option) and runs a differential evolution fit.
Every parameter needs limits or "fixed". The best-fit parameters are written
as a new configuration file.`,
	Args: cobra.ExactArgs(1),
	RunE: runFit,
}

func init() {
	fitCmd.Flags().StringVar(&fitDataPath, "data", "", "Profile data file (overrides DATA_FILE)")
	fitCmd.Flags().StringVar(&fitOutPath, "out", "", "Best-fit configuration output (default from settings)")
	fitCmd.Flags().IntVar(&fitGenerations, "generations", 0, "Number of DE generations (default from settings)")
	fitCmd.Flags().Int64Var(&fitSeed, "seed", 0, "Random seed (0 = from settings, or the clock)")
	fitCmd.Flags().StringVar(&fitSolver, "solver", "", "Search algorithm: de or mayfly (default from settings)")
	fitCmd.Flags().StringVar(&fitStrategy, "strategy", "", "DE mutation scheme, e.g. best/1/bin (default from settings)")
	fitCmd.Flags().BoolVar(&fitLenient, "lenient", false, "Treat malformed numbers in the config file as 0")
	fitCmd.Flags().Float64Var(&fitZeroPoint, "zero-point", 0, "Magnitude zero point (overrides ZERO_POINT)")
	fitCmd.Flags().Float64Var(&fitXMin, "x-min", 0, "Fit only data with x >= x-min (overrides X_MIN)")
	fitCmd.Flags().Float64Var(&fitXMax, "x-max", 0, "Fit only data with x <= x-max (overrides X_MAX)")
	fitCmd.Flags().StringVar(&fitDataDir, "data-dir", "", "Base directory for stored runs (default from settings)")
	fitCmd.Flags().BoolVar(&fitSave, "save", false, "Store the run and its progress trace")
	fitCmd.Flags().StringVar(&fitMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while fitting")

	rootCmd.AddCommand(fitCmd)
}

// fitJob describes one fit from configuration file to best-fit output
type fitJob struct {
	ConfigPath string
	OutPath    string
	Options    modelOptions
	Lenient    bool

	Generations int
	Seed        int64
	Solver      string
	Strategy    string

	Metrics *fit.Metrics
	Store   *store.FSStore // nil = don't save
}

// fitOutcome is what a completed fitJob produced
type fitOutcome struct {
	RunID   string
	Result  *fit.Result
	OutPath string
}

func runFit(cmd *cobra.Command, args []string) error {
	job := fitJob{
		ConfigPath:  args[0],
		OutPath:     cfg.Output.BestFitFile,
		Lenient:     cfg.Fit.Lenient || fitLenient,
		Generations: cfg.Fit.Generations,
		Seed:        cfg.Fit.Seed,
		Solver:      cfg.Fit.Solver,
		Strategy:    cfg.Fit.Strategy,
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		job.OutPath = fitOutPath
	}
	if flags.Changed("generations") {
		job.Generations = fitGenerations
	}
	if flags.Changed("seed") {
		job.Seed = fitSeed
	}
	if flags.Changed("solver") {
		job.Solver = fitSolver
	}
	if flags.Changed("strategy") {
		job.Strategy = fitStrategy
	}
	if flags.Changed("data") {
		job.Options.DataFile, job.Options.dataFileSet = fitDataPath, true
	}
	if flags.Changed("zero-point") {
		job.Options.ZeroPoint, job.Options.zeroPointSet = fitZeroPoint, true
	}
	if flags.Changed("x-min") {
		job.Options.XMin, job.Options.xMinSet = fitXMin, true
	}
	if flags.Changed("x-max") {
		job.Options.XMax, job.Options.xMaxSet = fitXMax, true
	}

	if fitSave || cfg.Store.Save {
		dataDir := cfg.Store.DataDir
		if flags.Changed("data-dir") {
			dataDir = fitDataDir
		}
		runStore, err := store.NewFSStore(dataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		job.Store = runStore
	}

	addr := cfg.Metrics.Addr
	if flags.Changed("metrics-addr") {
		addr = fitMetricsAddr
	}
	if addr != "" {
		reg := prometheus.NewRegistry()
		job.Metrics = fit.NewMetrics(reg)
		srv := server.NewServer(addr, reg, job.Store)
		go func() {
			if err := srv.Start(); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	outcome, err := runFitJob(job)
	if err != nil {
		return err
	}

	res := outcome.Result
	fmt.Printf("Wrote %s (chi^2: %g -> %g, %.1f%% better, %d evaluations)\n",
		outcome.OutPath, res.InitialCost, res.BestCost, 100*res.Improvement(), res.Evaluations)
	if res.Plateaued {
		fmt.Println("Note: best chi^2 stopped improving before the last generation")
	}
	if outcome.RunID != "" {
		fmt.Printf("Saved run %s\n", outcome.RunID)
	}
	return nil
}

// runFitJob parses, assembles, fits and writes the best-fit configuration.
// It owns every piece of state it touches, so independent jobs may run concurrently.
func runFitJob(job fitJob) (*fitOutcome, error) {
	spec, err := config.ParseFile(job.ConfigPath, config.ParseOptions{Lenient: job.Lenient})
	if err != nil {
		return nil, err
	}

	mo := job.Options
	if err := applyConfigOptions(spec, &mo); err != nil {
		return nil, fmt.Errorf("%s: %w", job.ConfigPath, err)
	}
	if !spec.LimitsFound {
		slog.Warn("No parameter limits in config file; the fit needs limits for every parameter", "config", job.ConfigPath)
	}

	m, err := model.Assemble(function.Default(), spec, mo.ZeroPoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.ConfigPath, err)
	}

	if mo.DataFile == "" {
		return nil, fmt.Errorf("%s: no data file (use --data or the %s option)", job.ConfigPath, kDataFile)
	}
	profile, err := model.ReadProfileFile(mo.DataFile)
	if err != nil {
		return nil, err
	}
	if mo.xMinSet || mo.xMaxSet {
		lo, hi := profile.X[0], profile.X[0]
		for _, x := range profile.X {
			lo, hi = min(lo, x), max(hi, x)
		}
		if mo.xMinSet {
			lo = mo.XMin
		}
		if mo.xMaxSet {
			hi = mo.XMax
		}
		profile = profile.Crop(lo, hi)
		if profile.Len() == 0 {
			return nil, fmt.Errorf("no data points in [%g, %g]", lo, hi)
		}
	}
	if err := m.SetData(profile); err != nil {
		return nil, fmt.Errorf("%s: %w", mo.DataFile, err)
	}

	seed := job.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	params := append([]float64(nil), spec.Parameters...)
	labels := m.ParameterLabels()

	opts := fit.Options{
		MaxGenerations: job.Generations,
		Seed:           seed,
		Solver:         job.Solver,
		Strategy:       job.Strategy,
		Metrics:        job.Metrics,
	}

	var (
		runID string
		trace *store.TraceWriter
		saved bool
	)
	if job.Store != nil {
		runID = store.NewRunID()
		trace, err = store.NewTraceWriter(job.Store.BaseDir(), runID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if !saved {
				trace.Close()
				os.RemoveAll(job.Store.RunDir(runID))
			}
		}()
		opts.Progress = trace.Report
	}

	slog.Info("Fitting profile",
		"config", job.ConfigPath,
		"data", mo.DataFile,
		"points", profile.Len(),
		"functions", m.NFunctions(),
		"parameters", len(params),
		"seed", seed,
	)

	res, err := fit.DiffEvolnFit(m.Cost(), params, spec.Bounds, opts)
	if err != nil {
		var mb *fit.MissingBoundsError
		if errors.As(err, &mb) {
			mb.Labels = make([]string, len(mb.Indices))
			for i, idx := range mb.Indices {
				mb.Labels[i] = labels[idx]
			}
		}
		return nil, fmt.Errorf("%s: %w", job.ConfigPath, err)
	}

	if err := writeBestFit(job.OutPath, m, spec, params, res); err != nil {
		return nil, err
	}

	if job.Store != nil {
		if err := trace.Close(); err != nil {
			slog.Warn("Failed to write progress trace", "run", runID, "error", err)
		}
		run := &store.Run{
			ID:            runID,
			ConfigPath:    job.ConfigPath,
			DataPath:      mo.DataFile,
			Solver:        opts.Solver,
			Generations:   res.Generations,
			Seed:          seed,
			Functions:     m.FunctionNames(),
			Labels:        labels,
			InitialParams: spec.Parameters,
			BestParams:    res.BestParams,
			InitialCost:   res.InitialCost,
			BestCost:      res.BestCost,
			Timestamp:     time.Now(),
		}
		if run.Solver == "" {
			run.Solver = fit.SolverDE
		}
		if err := job.Store.SaveRun(run); err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
		saved = true
	}

	return &fitOutcome{RunID: runID, Result: res, OutPath: job.OutPath}, nil
}

// writeBestFit writes the fitted parameters as a configuration file
func writeBestFit(path string, m *model.Model, spec *config.ParsedModelSpec, params []float64, res *fit.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Best-fit model from imfit1d\n# chi^2 = %g (initial %g), %d generations\n\n",
		res.BestCost, res.InitialCost, res.Generations)
	if err := m.WriteConfig(f, spec.Options, params, spec.Bounds); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return f.Close()
}
