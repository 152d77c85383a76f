package journal

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rustyeddy/trialsim/analysis"
)

// Summary table file names inside the results directory.
const (
	PrimarySummaryFile   = "primary_outcome_summary.csv"
	BiomarkerSummaryFile = "biomarker_summary.csv"
	SubgroupFile         = "subgroup_analysis.csv"
)

var (
	summaryHeader   = []string{"Parameter", "Mean", "Lower_CI", "Upper_CI", "Prob_Positive", "Prob_Significant"}
	timepointHeader = []string{"Timepoint", "Mean_Effect", "Lower_CI", "Upper_CI", "Prob_Positive"}
	subgroupHeader  = []string{"Subgroup", "N", "Effect_Size", "Lower_CI", "Upper_CI", "P_Value"}
)

// CSVJournal writes the three summary tables of a run into a results
// directory. Runs themselves are not recorded.
type CSVJournal struct {
	summaries  *csv.Writer
	timepoints *csv.Writer
	subgroups  *csv.Writer
	files      []*os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	j := &CSVJournal{}
	open := func(name string, header []string) (*csv.Writer, error) {
		fh, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, fh)
		w := csv.NewWriter(fh)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}

	var err error
	if j.summaries, err = open(PrimarySummaryFile, summaryHeader); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	if j.timepoints, err = open(BiomarkerSummaryFile, timepointHeader); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	if j.subgroups, err = open(SubgroupFile, subgroupHeader); err != nil {
		return nil, errors.Join(err, j.closeFiles())
	}
	return j, nil
}

func (j *CSVJournal) RecordRun(Run) error { return nil }

// RecordSummaries writes rows to the primary outcome table. The model name
// is not part of the table.
func (j *CSVJournal) RecordSummaries(_, _ string, rows []analysis.PosteriorSummary) error {
	for _, r := range rows {
		err := j.summaries.Write([]string{
			r.Parameter,
			f(r.Mean),
			f(r.LowerCI),
			f(r.UpperCI),
			f(r.ProbPositive),
			f(r.ProbSignificant),
		})
		if err != nil {
			return err
		}
	}
	j.summaries.Flush()
	return j.summaries.Error()
}

func (j *CSVJournal) RecordTimepoints(_ string, rows []analysis.TimepointEffect) error {
	for _, r := range rows {
		err := j.timepoints.Write([]string{
			string(r.Timepoint),
			f(r.MeanEffect),
			f(r.LowerCI),
			f(r.UpperCI),
			f(r.ProbPositive),
		})
		if err != nil {
			return err
		}
	}
	j.timepoints.Flush()
	return j.timepoints.Error()
}

func (j *CSVJournal) RecordSubgroups(_ string, rows []analysis.SubgroupResult) error {
	for _, r := range rows {
		err := j.subgroups.Write([]string{
			r.Subgroup,
			strconv.Itoa(r.N),
			f(r.EffectSize),
			f(r.LowerCI),
			f(r.UpperCI),
			f(r.PValue),
		})
		if err != nil {
			return err
		}
	}
	j.subgroups.Flush()
	return j.subgroups.Error()
}

func (j *CSVJournal) Close() error {
	for _, w := range []*csv.Writer{j.summaries, j.timepoints, j.subgroups} {
		w.Flush()
		if err := w.Error(); err != nil {
			return errors.Join(err, j.closeFiles())
		}
	}
	return j.closeFiles()
}

func (j *CSVJournal) closeFiles() error {
	var errs []error
	for _, fh := range j.files {
		errs = append(errs, fh.Close())
	}
	j.files = nil
	return errors.Join(errs...)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
