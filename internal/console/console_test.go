package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/trialsim/analysis"
	"github.com/rustyeddy/trialsim/journal"
	"github.com/rustyeddy/trialsim/trial"
)

func TestReport(t *testing.T) {
	t.Parallel()

	out := Report(journal.RunReport{
		Run:        journal.Run{RunID: "01HZX"},
		Summaries:  []analysis.PosteriorSummary{{Parameter: "Treatment Effect", Mean: 1.7, LowerCI: 1.2, UpperCI: 2.2, ProbPositive: 1}},
		Timepoints: []analysis.TimepointEffect{{Timepoint: trial.Week12, MeanEffect: 6}},
		Subgroups:  []analysis.SubgroupResult{{Subgroup: "young", N: 64, EffectSize: 1.5, LowerCI: 0.9, UpperCI: 2.1, PValue: 0.002}},
	})

	for _, want := range []string{
		"Primary Outcome", "Treatment Effect", "1.700", "[1.200, 2.200]",
		"Biomarker Treatment Effect", "Week 12", "6.000",
		"Subgroup Analysis", "young", "64", "0.002",
		"run 01HZX",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRuns(t *testing.T) {
	t.Parallel()

	out := Runs([]journal.Run{{
		RunID:      "01HZX",
		Created:    time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC),
		Patients:   200,
		Seed:       42,
		ResultsDir: "results",
	}})
	assert.Contains(t, out, "01HZX")
	assert.Contains(t, out, "2024-05-01 09:15")
	assert.Contains(t, out, "200")
	assert.Contains(t, out, "results")
}

func TestTablesLabelCredibleLevel(t *testing.T) {
	t.Parallel()

	out := Report(journal.RunReport{
		Run:       journal.Run{RunID: "01HZX", CredibleLevel: 0.9},
		Summaries: []analysis.PosteriorSummary{{Parameter: "Treatment Effect"}},
	})
	assert.Contains(t, out, "90% CI")
	assert.NotContains(t, out, "95% CI")

	assert.Contains(t, Subgroups(nil, 0.95), "95% CI")
}
