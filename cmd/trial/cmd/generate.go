package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/trialsim/config"
	"github.com/rustyeddy/trialsim/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic trial dataset",
	Long: `Draw patients and biomarker visits, write trial_data.csv and
biomarker_data.csv to the data directory, and the exploratory
figures to the images directory.

Example:
  trial generate --patients 300 --effect 2 --seed 7`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	genPatients int
	genEffect   float64
	genSeed     uint64
	genData     string
	genImages   string
)

func init() {
	rootCmd.AddCommand(generateCmd)
	addGeneratorFlags(generateCmd)
}

func addGeneratorFlags(c *cobra.Command) {
	d := config.Default()
	c.Flags().IntVarP(&genPatients, "patients", "n", d.Generator.Patients, "number of patients")
	c.Flags().Float64VarP(&genEffect, "effect", "e", d.Generator.TreatmentEffect, "true treatment effect on the primary outcome")
	c.Flags().Uint64VarP(&genSeed, "seed", "s", d.Generator.Seed, "random seed")
	c.Flags().StringVar(&genData, "data", d.Paths.Data, "data directory")
	c.Flags().StringVar(&genImages, "images", d.Paths.Images, "images directory")
}

// applyGeneratorFlags overrides cfg with the flags set on the command line.
func applyGeneratorFlags(c *cobra.Command, cfg *config.Config) error {
	f := c.Flags()
	if f.Changed("patients") {
		cfg.Generator.Patients = genPatients
	}
	if f.Changed("effect") {
		cfg.Generator.TreatmentEffect = genEffect
	}
	if f.Changed("seed") {
		cfg.Generator.Seed = genSeed
	}
	if f.Changed("data") {
		cfg.Paths.Data = genData
	}
	if f.Changed("images") {
		cfg.Paths.Images = genImages
	}
	return cfg.Validate()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyGeneratorFlags(cmd, cfg); err != nil {
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
	return nil
}
