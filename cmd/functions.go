package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hujh08/imfit/internal/function"
)

var listFormat string

var listFunctionsCmd = &cobra.Command{
	Use:   "list-functions",
	Short: "List the available model components",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range function.Default().Names() {
			fmt.Println(name)
		}
		return nil
	},
}

var listParametersCmd = &cobra.Command{
	Use:   "list-parameters",
	Short: "List every component with its parameter names",
	Long: `Prints each component as a FUNCTION line followed by its parameter
names, the layout a configuration file expects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDescriptions(os.Stdout, function.Default().Describe(), listFormat)
	},
}

func init() {
	listParametersCmd.Flags().StringVar(&listFormat, "format", "text", "Output format: text, json or yaml")

	rootCmd.AddCommand(listFunctionsCmd)
	rootCmd.AddCommand(listParametersCmd)
}

func writeDescriptions(w io.Writer, descs []function.Description, format string) error {
	switch strings.ToLower(format) {
	case "text":
		for i, d := range descs {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "FUNCTION %s\n", d.Name)
			for _, p := range d.Parameters {
				fmt.Fprintln(w, p)
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(descs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(descs); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
