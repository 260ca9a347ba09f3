package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hujh08/imfit/internal/config"
	"github.com/hujh08/imfit/internal/function"
	"github.com/hujh08/imfit/internal/model"
)

var sampleOut string

var sampleConfigCmd = &cobra.Command{
	Use:   "sample-config",
	Short: "Write an example configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sampleOut == "" {
			return writeSampleConfig(os.Stdout)
		}
		f, err := os.Create(sampleOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		if err := writeSampleConfig(f); err != nil {
			return err
		}
		return f.Close()
	},
}

func init() {
	sampleConfigCmd.Flags().StringVarP(&sampleOut, "out", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(sampleConfigCmd)
}

// writeSampleConfig writes a Sersic bulge plus exponential disk model
func writeSampleConfig(w io.Writer) error {
	reg := function.Default()
	m := model.New(0)
	for _, name := range []string{"Sersic-1D", "Exponential-1D"} {
		f, err := reg.Create(name)
		if err != nil {
			return err
		}
		m.AddFunction(f)
	}
	if err := m.DefineFunctionSets([]int{0}); err != nil {
		return err
	}

	options := []config.GlobalOption{
		{Name: kZeroPoint, Value: "0"},
		{Name: kDataFile, Value: "profile.dat"},
	}
	// X0, n, mu_e, r_e, mu_0, h
	params := []float64{0, 2, 20, 5, 21, 20}
	bounds := []config.ParameterBound{
		config.FixedBound(),
		config.LimitedBound(0.5, 8),
		config.LimitedBound(15, 25),
		config.LimitedBound(0.5, 50),
		config.LimitedBound(15, 25),
		config.LimitedBound(1, 100),
	}

	fmt.Fprintln(w, "# imfit1d configuration: Sersic bulge + exponential disk")
	fmt.Fprintln(w, "# parameter lines: <name> <value> [lower,upper | fixed]")
	fmt.Fprintln(w)
	return m.WriteConfig(w, options, params, bounds)
}
