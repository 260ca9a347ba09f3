package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hujh08/imfit/internal/config"
	"github.com/hujh08/imfit/internal/function"
	"github.com/hujh08/imfit/internal/model"
)

// Sampling used when neither flags nor the config file give one
const (
	defaultNPoints = 100
	defaultXMin    = 0.0
	defaultXMax    = 100.0
)

var (
	mpOut       string
	mpNPoints   int
	mpXMin      float64
	mpXMax      float64
	mpZeroPoint float64
	mpLenient   bool
	mpFuncRoot  string
	mpFluxes    bool
	mpNoSave    bool
	mpTiming    int
)

var makeprofileCmd = &cobra.Command{
	Use:   "makeprofile <config-file>",
	Short: "Evaluate a model and write the profile",
	Long: `Reads parameter values from the configuration file (limits are ignored),
evaluates the model at NPOINTS evenly spaced positions over [X_MIN, X_MAX]
and writes "x value" columns. Flags override the file's options.

--output-functions also writes each component alone to <root><n>_<name>.dat,
and --print-fluxes integrates every component over the sampling range.
Magnitudes are shown when a zero point is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runMakeprofile,
}

func init() {
	makeprofileCmd.Flags().StringVarP(&mpOut, "out", "o", "", "Output file (default: stdout)")
	makeprofileCmd.Flags().IntVar(&mpNPoints, "npoints", defaultNPoints, "Number of samples (overrides NPOINTS)")
	makeprofileCmd.Flags().Float64Var(&mpXMin, "x-min", defaultXMin, "First sample position (overrides X_MIN)")
	makeprofileCmd.Flags().Float64Var(&mpXMax, "x-max", defaultXMax, "Last sample position (overrides X_MAX)")
	makeprofileCmd.Flags().Float64Var(&mpZeroPoint, "zero-point", 0, "Magnitude zero point (overrides ZERO_POINT)")
	makeprofileCmd.Flags().BoolVar(&mpLenient, "lenient", false, "Treat malformed numbers in the config file as 0")
	makeprofileCmd.Flags().StringVar(&mpFuncRoot, "output-functions", "", "Also write each component to <root><n>_<name>.dat")
	makeprofileCmd.Flags().BoolVar(&mpFluxes, "print-fluxes", false, "Print the integrated flux (and magnitude) of every component")
	makeprofileCmd.Flags().BoolVar(&mpNoSave, "nosave", false, "Do not write the summed profile")
	makeprofileCmd.Flags().IntVar(&mpTiming, "timing", 0, "Evaluate the model this many times and report the mean time")

	rootCmd.AddCommand(makeprofileCmd)
}

func runMakeprofile(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	mo := modelOptions{}
	if flags.Changed("npoints") {
		if mpNPoints <= 0 {
			return fmt.Errorf("--npoints must be positive, got %d", mpNPoints)
		}
		mo.NPoints, mo.nPointsSet = mpNPoints, true
	}
	if flags.Changed("x-min") {
		mo.XMin, mo.xMinSet = mpXMin, true
	}
	if flags.Changed("x-max") {
		mo.XMax, mo.xMaxSet = mpXMax, true
	}
	if flags.Changed("zero-point") {
		mo.ZeroPoint, mo.zeroPointSet = mpZeroPoint, true
	}

	if mpTiming < 0 {
		return fmt.Errorf("--timing must be non-negative, got %d", mpTiming)
	}

	spec, err := config.ParseValuesFile(args[0], config.ParseOptions{Lenient: cfg.Fit.Lenient || mpLenient})
	if err != nil {
		return err
	}

	extras := profileExtras{
		FunctionRoot: mpFuncRoot,
		PrintFluxes:  mpFluxes,
		Timing:       mpTiming,
		Report:       os.Stdout,
	}

	var out io.Writer
	switch {
	case mpNoSave:
	case mpOut != "":
		f, err := os.Create(mpOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	default:
		// keep the profile on stdout parseable
		out, extras.Report = os.Stdout, os.Stderr
	}

	if err := makeProfile(out, spec, mo, extras); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if f, ok := out.(*os.File); ok && mpOut != "" {
		return f.Close()
	}
	return nil
}

// profileExtras are the optional outputs of makeprofile
type profileExtras struct {
	// FunctionRoot prefixes the per-component files (empty = none)
	FunctionRoot string

	PrintFluxes bool

	// Timing repeats the evaluation this many times (0 = no timing)
	Timing int

	// Report receives the flux table and the timing summary
	Report io.Writer
}

// makeProfile evaluates the model described by spec on the sampling grid and
// writes it to w, or nowhere when w is nil. mo carries flag values that take
// precedence over the file.
func makeProfile(w io.Writer, spec *config.ParsedModelSpec, mo modelOptions, extras profileExtras) error {
	if err := applyConfigOptions(spec, &mo); err != nil {
		return err
	}
	if !mo.nPointsSet {
		mo.NPoints = defaultNPoints
	}
	if !mo.xMinSet {
		mo.XMin = defaultXMin
	}
	if !mo.xMaxSet {
		mo.XMax = defaultXMax
	}
	if mo.XMin >= mo.XMax {
		return fmt.Errorf("%s (%g) must be less than %s (%g)", kXMin, mo.XMin, kXMax, mo.XMax)
	}

	m, err := model.Assemble(function.Default(), spec, mo.ZeroPoint)
	if err != nil {
		return err
	}

	x := sampleGrid(mo.NPoints, mo.XMin, mo.XMax)
	y, err := m.Evaluate(spec.Parameters, x)
	if err != nil {
		return err
	}
	slog.Debug("Evaluated model", "functions", m.NFunctions(), "points", len(x), "x_min", mo.XMin, "x_max", mo.XMax)

	if w != nil {
		if err := model.WriteProfile(w, x, y); err != nil {
			return err
		}
	}

	if extras.FunctionRoot != "" {
		if err := writeFunctionProfiles(extras.FunctionRoot, m, spec.Parameters, x); err != nil {
			return err
		}
	}

	if extras.PrintFluxes {
		comps, total, err := m.Fluxes(spec.Parameters, x)
		if err != nil {
			return err
		}
		var zp *float64
		if mo.zeroPointSet {
			zp = &mo.ZeroPoint
		}
		if err := printFluxes(extras.Report, comps, total, zp, mo.XMin, mo.XMax); err != nil {
			return err
		}
	}

	if extras.Timing > 0 {
		start := time.Now()
		for range extras.Timing {
			if _, err := m.Evaluate(spec.Parameters, x); err != nil {
				return err
			}
		}
		elapsed := time.Since(start)
		mean := elapsed / time.Duration(extras.Timing)
		slog.Info("Timed model evaluation", "iterations", extras.Timing, "elapsed", elapsed, "mean", mean)
		fmt.Fprintf(extras.Report, "Elapsed time: %s\nMean time per profile (from %d iterations): %s\n",
			elapsed, extras.Timing, mean)
	}
	return nil
}

// functionProfilePath names the file for component i (0-based)
func functionProfilePath(root string, i int, name string) string {
	return fmt.Sprintf("%s%d_%s.dat", root, i+1, name)
}

// writeFunctionProfiles writes every component's own profile to its file
func writeFunctionProfiles(root string, m *model.Model, params, x []float64) error {
	for i, name := range m.FunctionNames() {
		y, err := m.EvaluateFunction(i, params, x)
		if err != nil {
			return err
		}
		path := functionProfilePath(root, i, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create component output: %w", err)
		}
		if err := model.WriteProfile(f, x, y); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		slog.Debug("Wrote component profile", "function", name, "path", path)
	}
	return nil
}

// printFluxes writes the component flux table. Magnitudes need a zero point.
func printFluxes(w io.Writer, comps []model.ComponentFlux, total float64, zp *float64, xMin, xMax float64) error {
	fmt.Fprintf(w, "Estimating fluxes over [%g, %g]", xMin, xMax)
	if zp != nil {
		fmt.Fprintf(w, " (using zero point = %g)", *zp)
	}
	fmt.Fprint(w, "\n\n")

	mag := func(flux float64) string {
		if zp == nil {
			return "---"
		}
		return fmt.Sprintf("%.4f", model.Magnitude(flux, *zp))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tFLUX\tMAGNITUDE\tFRACTION")
	for _, c := range comps {
		fmt.Fprintf(tw, "%s\t%.4e\t%s\t%.5f\n", c.Name, c.Flux, mag(c.Flux), c.Fraction)
	}
	fmt.Fprintf(tw, "Total\t%.4e\t%s\t\n", total, mag(total))
	return tw.Flush()
}

// sampleGrid returns n evenly spaced positions from lo to hi inclusive
func sampleGrid(n int, lo, hi float64) []float64 {
	x := make([]float64, n)
	if n == 1 {
		x[0] = lo
		return x
	}
	step := (hi - lo) / float64(n-1)
	for i := range x {
		x[i] = lo + float64(i)*step
	}
	x[n-1] = hi
	return x
}
