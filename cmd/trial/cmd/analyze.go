package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/trialsim/bayes"
	"github.com/rustyeddy/trialsim/config"
	"github.com/rustyeddy/trialsim/internal/console"
	"github.com/rustyeddy/trialsim/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fit the Bayesian models to an existing dataset",
	Long: `Load the dataset from the data directory, fit the primary outcome,
biomarker and subgroup models, and write the summary tables, model
artifacts, figures and report to the results directory.

Example:
  trial analyze --data ./data --results ./results --db runs.sqlite`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var (
	analyzeData    string
	analyzeResults string
	analyzeDB      string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addAnalyzeFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeData, "data", config.Default().Paths.Data, "data directory")
}

func addAnalyzeFlags(c *cobra.Command) {
	c.Flags().StringVarP(&analyzeResults, "results", "r", config.Default().Paths.Results, "results directory")
	c.Flags().StringVar(&analyzeDB, "db", "", "also record the run in this SQLite journal")
}

func applyAnalyzeFlags(c *cobra.Command, cfg *config.Config) error {
	f := c.Flags()
	if f.Changed("results") {
		cfg.Paths.Results = analyzeResults
	}
	if f.Changed("db") {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: analyzeDB}
	}
	return cfg.Validate()
}

// analyze runs the analysis pipeline and prints the run's tables.
func analyze(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, generated *config.GeneratorConfig) error {
	r := &pipeline.Runner{
		Fitter:    bayes.NewGibbs(logger),
		Config:    cfg,
		Logger:    logger,
		Generated: generated,
	}
	res, err := r.Analyze(cmd.Context())
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), console.Report(res.Report))
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data") {
		cfg.Paths.Data = analyzeData
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	return analyze(cmd, cfg, logger, nil)
}
