// Package journal records analysis runs and their summary tables.
package journal

import (
	"errors"
	"time"

	"github.com/rustyeddy/trialsim/analysis"
)

var ErrRunNotFound = errors.New("run not found")

// Run describes one analysis invocation.
type Run struct {
	RunID   string
	Created time.Time

	// Generator inputs, when the data was generated in the same run.
	Seed            uint64
	Patients        int
	Observations    int
	TreatmentEffect float64

	DataDir    string
	ResultsDir string

	PrimaryFormula   string
	BiomarkerFormula string
	CredibleLevel    float64 // level of every interval in the run's tables

	OrgPath string
	Plots   []string
	Notes   []string
}

// RunReport is a run together with every table recorded for it.
type RunReport struct {
	Run
	Summaries  []analysis.PosteriorSummary
	Timepoints []analysis.TimepointEffect
	Subgroups  []analysis.SubgroupResult
}

type Journal interface {
	RecordRun(Run) error
	RecordSummaries(runID, model string, rows []analysis.PosteriorSummary) error
	RecordTimepoints(runID string, rows []analysis.TimepointEffect) error
	RecordSubgroups(runID string, rows []analysis.SubgroupResult) error
	Close() error
}

// Multi fans every record out to each journal in order and stops at the
// first error.
type Multi []Journal

func (m Multi) RecordRun(r Run) error {
	for _, j := range m {
		if err := j.RecordRun(r); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordSummaries(runID, model string, rows []analysis.PosteriorSummary) error {
	for _, j := range m {
		if err := j.RecordSummaries(runID, model, rows); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordTimepoints(runID string, rows []analysis.TimepointEffect) error {
	for _, j := range m {
		if err := j.RecordTimepoints(runID, rows); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordSubgroups(runID string, rows []analysis.SubgroupResult) error {
	for _, j := range m {
		if err := j.RecordSubgroups(runID, rows); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every journal and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.Close())
	}
	return errors.Join(errs...)
}
