package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/trialsim/bayes/bayestest"
)

func TestSummarizeRamp(t *testing.T) {
	t.Parallel()

	est, err := Summarize(bayestest.Ramp(1, 1, 100), 0.95, 50)
	require.NoError(t, err)

	assert.Equal(t, 100, est.N)
	assert.InDelta(t, 50.5, est.Mean, 1e-9)
	assert.InDelta(t, 2.5, est.Lower, 1e-9)
	assert.InDelta(t, 97.5, est.Upper, 1e-9)
	assert.Equal(t, 1.0, est.ProbPositive)
	assert.Equal(t, 0.5, est.ProbAbove)
	assert.Equal(t, 0.0, est.ProbNonPositive)
}

func TestSummarizeTailProbabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		draws     []float64
		threshold float64
		pos       float64
		above     float64
		nonPos    float64
	}{
		{"mixed", []float64{-2, -1, 0, 1, 2}, 1, 0.4, 0.2, 0.6},
		{"zero counts as non-positive", []float64{0, 0, 0, 0}, 1, 0, 0, 1},
		{"all above", []float64{3, 4}, 1, 1, 1, 0},
		{"threshold is strict", []float64{1, 1, 2, 2}, 1, 1, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := Summarize(tt.draws, 0.95, tt.threshold)
			require.NoError(t, err)
			assert.InDelta(t, tt.pos, est.ProbPositive, 1e-12)
			assert.InDelta(t, tt.above, est.ProbAbove, 1e-12)
			assert.InDelta(t, tt.nonPos, est.ProbNonPositive, 1e-12)
			assert.LessOrEqual(t, est.Lower, est.Upper)
		})
	}
}

func TestSummarizeDoesNotReorderInput(t *testing.T) {
	t.Parallel()

	draws := []float64{3, 1, 2}
	_, err := Summarize(draws, 0.9, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, draws)
}

func TestSummarizeErrors(t *testing.T) {
	t.Parallel()

	_, err := Summarize(nil, 0.95, 1)
	assert.ErrorIs(t, err, ErrNoDraws)

	_, err = Summarize([]float64{1}, 1, 1)
	assert.Error(t, err)

	_, err = Summarize([]float64{1}, 0, 1)
	assert.Error(t, err)
}

func TestSummarizeCountsNonPositiveDraws(t *testing.T) {
	t.Parallel()

	draws := bayestest.Ramp(1, 0.001, 4000)
	draws[10], draws[200], draws[3999] = -0.5, 0, -2

	est, err := Summarize(draws, 0.95, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.00075, est.ProbNonPositive)
	assert.Equal(t, 0.99925, est.ProbPositive)
}
