package plots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/trialsim/analysis"
	"github.com/rustyeddy/trialsim/generate"
	"github.com/rustyeddy/trialsim/trial"
)

func nonEmpty(t *testing.T, path string) {
	t.Helper()
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, st.Size(), int64(0))
}

func dataset(t *testing.T) trial.Dataset {
	t.Helper()
	ds, err := generate.NewSeeded(generate.DefaultParams(), 42).Dataset(40, 1.7)
	require.NoError(t, err)
	return ds
}

func TestPosteriorDensity(t *testing.T) {
	t.Parallel()

	draws := []float64{1.2, 1.5, 1.7, 1.6, 2.1, 1.9, 1.4, 1.8}
	est, err := analysis.Summarize(draws, 0.95, 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), PosteriorFile)
	require.NoError(t, PosteriorDensity(path, draws, est))
	nonEmpty(t, path)
}

func TestConditionalEffects(t *testing.T) {
	t.Parallel()

	var traj []analysis.Trajectory
	for _, arm := range trial.Arms {
		for tm := 0; tm < 3; tm++ {
			mu := 50 + 5*float64(tm)
			if arm.Treated() {
				mu += 3 * float64(tm)
			}
			traj = append(traj, analysis.Trajectory{Arm: arm, Time: tm, Mean: mu, Lower: mu - 1, Upper: mu + 1})
		}
	}

	path := filepath.Join(t.TempDir(), ConditionalEffectsFile)
	require.NoError(t, ConditionalEffects(path, traj, dataset(t).Observations))
	nonEmpty(t, path)
}

func TestForest(t *testing.T) {
	t.Parallel()

	rows := []analysis.SubgroupResult{
		{Subgroup: "all", N: 200, EffectSize: 1.7, LowerCI: 1.4, UpperCI: 2.0},
		{Subgroup: "male", N: 110, EffectSize: 1.6, LowerCI: 1.2, UpperCI: 2.0},
		{Subgroup: "old", N: 30, EffectSize: 1.1, LowerCI: -0.2, UpperCI: 2.4},
	}
	path := filepath.Join(t.TempDir(), ForestFile)
	require.NoError(t, Forest(path, rows))
	nonEmpty(t, path)
}

func TestOutcomeBoxplotAndTrajectory(t *testing.T) {
	t.Parallel()

	ds := dataset(t)
	dir := t.TempDir()

	box := filepath.Join(dir, BoxplotFile)
	require.NoError(t, OutcomeBoxplot(box, ds.Patients))
	nonEmpty(t, box)

	traj := filepath.Join(dir, TrajectoryFile)
	require.NoError(t, BiomarkerTrajectory(traj, ds.Observations))
	nonEmpty(t, traj)
}

func TestEmptyInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.ErrorIs(t, PosteriorDensity(filepath.Join(dir, "a.png"), nil, analysis.Estimate{}), ErrNoData)
	assert.ErrorIs(t, ConditionalEffects(filepath.Join(dir, "b.png"), nil, nil), ErrNoData)
	assert.ErrorIs(t, Forest(filepath.Join(dir, "c.png"), nil), ErrNoData)
	assert.ErrorIs(t, OutcomeBoxplot(filepath.Join(dir, "d.png"), nil), ErrNoData)
	assert.ErrorIs(t, BiomarkerTrajectory(filepath.Join(dir, "e.png"), nil), ErrNoData)
}

func TestUnsupportedFormat(t *testing.T) {
	t.Parallel()

	err := Forest(filepath.Join(t.TempDir(), "forest.xyz"), []analysis.SubgroupResult{{Subgroup: "all", N: 10}})
	assert.Error(t, err)
}
