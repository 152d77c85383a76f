package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/trialsim/config"
	"github.com/rustyeddy/trialsim/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "trial",
	Short: "Simulate a two-arm clinical trial and analyze it with Bayesian models",
	Long: `Trial generates a synthetic randomized trial (patients, a primary
outcome and a longitudinal biomarker) and analyzes it with Bayesian
regression models.

It provides tools for:
  - Generating reproducible trial datasets
  - Fitting the primary outcome, biomarker and subgroup models
  - Writing summary tables, figures and an Org report
  - Querying past analysis runs from a SQLite journal`,
	SilenceUsage: true,
}

var (
	cfgFile string
	verbose bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig returns the --config file, or the defaults when none is given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	logger, err := logging.New(verbose)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}
