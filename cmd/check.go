package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hujh08/imfit/internal/config"
	"github.com/hujh08/imfit/internal/function"
	"github.com/hujh08/imfit/internal/model"
)

var (
	checkMode2D     bool
	checkValuesOnly bool
	checkLenient    bool
)

var checkCmd = &cobra.Command{
	Use:   "check <config-file>",
	Short: "Parse a configuration file and summarize it",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkMode2D, "2d", false, "Require a Y0 line after every X0 line")
	checkCmd.Flags().BoolVar(&checkValuesOnly, "values-only", false, "Ignore parameter limits")
	checkCmd.Flags().BoolVar(&checkLenient, "lenient", false, "Treat malformed numbers as 0")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts := config.ParseOptions{
		Mode2D:  checkMode2D,
		Lenient: cfg.Fit.Lenient || checkLenient,
	}
	return checkConfig(os.Stdout, args[0], opts, checkValuesOnly)
}

// checkConfig parses the file at path, builds the model it describes and
// writes a summary to w. Unknown components and parameter counts that do not
// match a function are reported as errors.
func checkConfig(w io.Writer, path string, opts config.ParseOptions, valuesOnly bool) error {
	parse := config.ParseFile
	if valuesOnly {
		parse = config.ParseValuesFile
	}
	spec, err := parse(path, opts)
	switch {
	case err == nil:
	case config.IsStructural(err):
		return fmt.Errorf("layout error: %w", err)
	case config.IsBoundError(err):
		return fmt.Errorf("limit error: %w", err)
	default:
		return err
	}

	if _, err := model.Assemble(function.Default(), spec, 0); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(w, "%s: OK\n\n", path)
	return summarize(w, spec)
}

// summarize writes a human-readable overview of a parsed configuration
func summarize(w io.Writer, spec *config.ParsedModelSpec) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(spec.Options) > 0 {
		fmt.Fprintln(tw, "OPTION\tVALUE\tLINE")
		for _, opt := range spec.Options {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", opt.Name, opt.Value, opt.Line)
		}
		fmt.Fprintln(tw)
	}

	set := 0
	fmt.Fprintln(tw, "SET\tFUNCTION\tLINE\tPARAMS")
	for i, f := range spec.Functions {
		if set+1 < len(spec.SetStarts) && spec.SetStarts[set+1] == i {
			set++
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", set+1, f.Name, f.Line, f.NParams)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nFunction sets: %d\n", len(spec.SetStarts))
	fmt.Fprintf(w, "Functions:     %d\n", len(spec.Functions))
	fmt.Fprintf(w, "Parameters:    %d\n", len(spec.Parameters))

	if spec.Bounds == nil {
		return nil
	}
	var free, fixed, limited int
	for _, b := range spec.Bounds {
		switch b.Kind {
		case config.Fixed:
			fixed++
		case config.Limited:
			limited++
		default:
			free++
		}
	}
	fmt.Fprintf(w, "  limited: %d, fixed: %d, free: %d\n", limited, fixed, free)
	if free > 0 {
		fmt.Fprintln(w, "Note: fitting requires limits or \"fixed\" on every parameter")
	}
	return nil
}
