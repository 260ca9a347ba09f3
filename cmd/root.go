package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hujh08/imfit/internal/settings"
)

var (
	logLevel     string
	settingsPath string
	logger       *slog.Logger

	// cfg holds the merged settings for the running command
	cfg = settings.Default()
)

var rootCmd = &cobra.Command{
	Use:   "imfit1d",
	Short: "Fit one-dimensional surface-brightness profiles",
	Long: `imfit1d fits sums of 1-D profile components (exponential, Sersic,
Gaussian, ...) to surface-brightness profiles using differential evolution.
Models are described in imfit-style configuration files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(settingsPath)
		if err != nil {
			return err
		}
		cfg = s

		if !cmd.Flags().Changed("log-level") {
			logLevel = cfg.Log.Level
		}

		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stdout, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "YAML settings file (default: ./"+settings.DefaultFile+" if present)")
}
