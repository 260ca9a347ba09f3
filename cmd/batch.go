package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hujh08/imfit/internal/store"
)

var (
	batchConcurrency int
	batchOutDir      string
	batchGenerations int
	batchSeed        int64
	batchSolver      string
	batchStrategy    string
	batchSave        bool
	batchDataDir     string
)

var batchCmd = &cobra.Command{
	Use:   "batch <config-file>...",
	Short: "Fit several configuration files in parallel",
	Long: `Runs one independent fit per configuration file. Each file's best fit is
written next to it (or into --out-dir) as <name>.bestfit.dat.
A failing fit does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "j", 0, "Number of fits to run at once (default from settings)")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Directory for best-fit files (default: next to each config)")
	batchCmd.Flags().IntVar(&batchGenerations, "generations", 0, "Number of DE generations (default from settings)")
	batchCmd.Flags().Int64Var(&batchSeed, "seed", 0, "Random seed for every fit (0 = from settings, or the clock)")
	batchCmd.Flags().StringVar(&batchSolver, "solver", "", "Search algorithm: de or mayfly (default from settings)")
	batchCmd.Flags().StringVar(&batchStrategy, "strategy", "", "DE mutation scheme, e.g. best/1/bin (default from settings)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "Store every run and its progress trace")
	batchCmd.Flags().StringVar(&batchDataDir, "data-dir", "", "Base directory for stored runs (default from settings)")

	rootCmd.AddCommand(batchCmd)
}

// batchResult pairs a job with what became of it
type batchResult struct {
	Job     fitJob
	Outcome *fitOutcome
	Err     error
}

func runBatch(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	template := fitJob{
		Lenient:     cfg.Fit.Lenient,
		Generations: cfg.Fit.Generations,
		Seed:        cfg.Fit.Seed,
		Solver:      cfg.Fit.Solver,
		Strategy:    cfg.Fit.Strategy,
	}
	if flags.Changed("generations") {
		template.Generations = batchGenerations
	}
	if flags.Changed("seed") {
		template.Seed = batchSeed
	}
	if flags.Changed("solver") {
		template.Solver = batchSolver
	}
	if flags.Changed("strategy") {
		template.Strategy = batchStrategy
	}

	concurrency := cfg.Fit.Concurrency
	if flags.Changed("concurrency") {
		concurrency = batchConcurrency
	}

	if batchSave || cfg.Store.Save {
		dataDir := cfg.Store.DataDir
		if flags.Changed("data-dir") {
			dataDir = batchDataDir
		}
		runStore, err := store.NewFSStore(dataDir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		template.Store = runStore
	}

	if batchOutDir != "" {
		if err := os.MkdirAll(batchOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	jobs := make([]fitJob, len(args))
	for i, path := range args {
		jobs[i] = template
		jobs[i].ConfigPath = path
		jobs[i].OutPath = batchOutPath(path, batchOutDir)
	}

	results := runBatchJobs(jobs, concurrency)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIG\tSTATUS\tCHI^2\tOUTPUT")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\tfailed\t-\t%v\n", r.Job.ConfigPath, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\tok\t%g\t%s\n", r.Job.ConfigPath, r.Outcome.Result.BestCost, r.Outcome.OutPath)
	}
	tw.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d fits failed", failed, len(results))
	}
	return nil
}

// runBatchJobs runs every job with at most concurrency running at once and
// returns the results in job order. concurrency <= 0 means no limit.
func runBatchJobs(jobs []fitJob, concurrency int) []batchResult {
	results := make([]batchResult, len(jobs))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, job := range jobs {
		g.Go(func() error {
			outcome, err := runFitJob(job)
			if err != nil {
				slog.Error("Fit failed", "config", job.ConfigPath, "error", err)
			}
			results[i] = batchResult{Job: job, Outcome: outcome, Err: err}
			return nil
		})
	}
	g.Wait()

	return results
}

// batchOutPath names the best-fit file for a configuration file
func batchOutPath(configPath, outDir string) string {
	base := filepath.Base(configPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".bestfit.dat"
	if outDir == "" {
		return filepath.Join(filepath.Dir(configPath), name)
	}
	return filepath.Join(outDir, name)
}
