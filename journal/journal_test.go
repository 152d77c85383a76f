package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/trialsim/analysis"
	"github.com/rustyeddy/trialsim/trial"
)

func sampleReport() RunReport {
	return RunReport{
		Run: Run{
			RunID:            "01HZXTESTRUN",
			Created:          time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
			Seed:             42,
			Patients:         200,
			Observations:     600,
			TreatmentEffect:  1.7,
			DataDir:          "data",
			ResultsDir:       "results",
			PrimaryFormula:   "primary_outcome ~ treatment + age + sex_male",
			BiomarkerFormula: "biomarker_value ~ treatment + time + treatment:time + (time | patient_id)",
			OrgPath:          "results/report.org",
			CredibleLevel:    0.95,
		},
		Summaries: []analysis.PosteriorSummary{
			{Parameter: "Treatment Effect", Mean: 1.65, LowerCI: 1.3, UpperCI: 2.0, ProbPositive: 1, ProbSignificant: 0.998},
		},
		Timepoints: []analysis.TimepointEffect{
			{Timepoint: trial.Baseline, MeanEffect: 0.2, LowerCI: -1.1, UpperCI: 1.5, ProbPositive: 0.61},
			{Timepoint: trial.Week12, MeanEffect: 6.1, LowerCI: 4.8, UpperCI: 7.4, ProbPositive: 1},
		},
		Subgroups: []analysis.SubgroupResult{
			{Subgroup: "all", N: 200, EffectSize: 1.7, LowerCI: 1.4, UpperCI: 2.0, PValue: 0},
			{Subgroup: "old", N: 31, EffectSize: 1.2, LowerCI: -0.1, UpperCI: 2.5, PValue: 0.035},
		},
	}
}

// memJournal keeps everything in memory.
type memJournal struct {
	runs      []Run
	summaries int
	subgroups int
	closed    bool
	err       error
}

func (m *memJournal) RecordRun(r Run) error {
	m.runs = append(m.runs, r)
	return m.err
}

func (m *memJournal) RecordSummaries(_, _ string, rows []analysis.PosteriorSummary) error {
	m.summaries += len(rows)
	return m.err
}

func (m *memJournal) RecordTimepoints(string, []analysis.TimepointEffect) error { return m.err }

func (m *memJournal) RecordSubgroups(_ string, rows []analysis.SubgroupResult) error {
	m.subgroups += len(rows)
	return m.err
}

func (m *memJournal) Close() error {
	m.closed = true
	return m.err
}

func TestMultiFansOut(t *testing.T) {
	t.Parallel()

	a, b := &memJournal{}, &memJournal{}
	var j Journal = Multi{a, b}
	rep := sampleReport()

	assert.NoError(t, j.RecordRun(rep.Run))
	assert.NoError(t, j.RecordSummaries(rep.RunID, "primary_outcome", rep.Summaries))
	assert.NoError(t, j.RecordTimepoints(rep.RunID, rep.Timepoints))
	assert.NoError(t, j.RecordSubgroups(rep.RunID, rep.Subgroups))
	assert.NoError(t, j.Close())

	for _, m := range []*memJournal{a, b} {
		assert.Len(t, m.runs, 1)
		assert.Equal(t, 1, m.summaries)
		assert.Equal(t, 2, m.subgroups)
		assert.True(t, m.closed)
	}
}

func TestMultiStopsAtFirstError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a, b := &memJournal{err: boom}, &memJournal{}
	j := Multi{a, b}

	assert.ErrorIs(t, j.RecordRun(Run{}), boom)
	assert.Empty(t, b.runs)

	// Close still reaches every journal.
	assert.ErrorIs(t, j.Close(), boom)
	assert.True(t, b.closed)
}
