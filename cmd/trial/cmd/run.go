package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/trialsim/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a dataset and analyze it",
	Long: `Run the whole simulation: generate the dataset, then fit and
summarize every model. Accepts the flags of both generate and analyze.

Example:
  trial run --config trial.yaml --seed 42`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addGeneratorFlags(runCmd)
	addAnalyzeFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyGeneratorFlags(cmd, cfg); err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	_, desc, err := pipeline.Generate(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	desc.Print(cmd.OutOrStdout())

	return analyze(cmd, cfg, logger, &cfg.Generator)
}
