package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AnshRaj112/fitcoach-backend/internal/config"
	"github.com/AnshRaj112/fitcoach-backend/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "fitcoach backend",
	Long:          "fitcoach serves the training, nutrition and social coaching API backed by MongoDB and Redis.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd, indexesCmd)
}

// setup loads configuration and builds the process logger.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, logging.New(cfg.Environment, cfg.LogLevel), nil
}
