package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/trialsim/analysis"
	"github.com/rustyeddy/trialsim/config"
	"github.com/rustyeddy/trialsim/dataset"
	"github.com/rustyeddy/trialsim/journal"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trial.toml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "200 patients, effect 1.70, seed 42")
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "generate",
		"--patients", "40", "--seed", "7",
		"--data", filepath.Join(dir, "data"),
		"--images", filepath.Join(dir, "images"))
	require.NoError(t, err)
	assert.Contains(t, out, "Treatment")
	assert.FileExists(t, filepath.Join(dir, "data", dataset.PatientsFile))
}

func TestGenerateRejectsNegativePatients(t *testing.T) {
	_, err := execute(t, "generate", "--patients=-1", "--data", t.TempDir())
	assert.ErrorContains(t, err, "generator.patients must be non-negative")
}

func TestJournalShowUnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.sqlite")
	_, err := execute(t, "journal", "show", "nope", "--db", db)
	assert.ErrorContains(t, err, "run not found")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "trial version "+version)
}

func TestRunThenJournalShow(t *testing.T) {
	if testing.Short() {
		t.Skip("samples every model")
	}
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.sqlite")
	cfgPath := filepath.Join(dir, "trial.yaml")

	cfg := config.Default()
	for _, m := range []*analysis.ModelSettings{&cfg.Analysis.Primary, &cfg.Analysis.Biomarker} {
		m.Options.Chains = 2
		m.Options.Iterations = 200
		m.Options.Warmup = 100
		m.Options.MaxRhat = 0
	}
	require.NoError(t, cfg.SaveToFile(cfgPath))

	_, err := execute(t, "run", "--config", cfgPath,
		"--patients", "60",
		"--data", filepath.Join(dir, "data"),
		"--images", filepath.Join(dir, "images"),
		"--results", filepath.Join(dir, "results"),
		"--db", db)
	require.NoError(t, err)

	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	runs, err := j.ListRuns(context.Background())
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.Len(t, runs, 1)

	out, err := execute(t, "journal", "show", runs[0].RunID, "--db", db, "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Run ID:        "+runs[0].RunID)
	assert.Contains(t, out, "Seed:          42")
}
