// Package cmd implements the sprout CLI.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sproutapp/sprout/internal/config"
	"github.com/sproutapp/sprout/internal/log"
)

var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "sprout",
	Short: "Sprout - project idea recommendations and template matching",
	Long: `Sprout recommends project ideas, expands them into feature
breakdowns and technology stacks, and matches project descriptions
against starter templates using embedding similarity.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := log.New(log.Config{Level: level, JSON: logJSON})
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads configuration, failing fast on any invalid value.
// Load validates before returning.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
