package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rustyeddy/trialsim/analysis"
	"github.com/rustyeddy/trialsim/trial"
)

const runColumns = `run_id, created, seed, patients, observations, treatment_effect,
	data_dir, results_dir, primary_formula, biomarker_formula, org_path,
	credible_level, plots, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var seed int64
	var plots, notes string
	err := s.Scan(
		&r.RunID,
		&r.Created,
		&seed,
		&r.Patients,
		&r.Observations,
		&r.TreatmentEffect,
		&r.DataDir,
		&r.ResultsDir,
		&r.PrimaryFormula,
		&r.BiomarkerFormula,
		&r.OrgPath,
		&r.CredibleLevel,
		&plots,
		&notes,
	)
	if err != nil {
		return Run{}, err
	}
	r.Seed = uint64(seed)
	if err := json.Unmarshal([]byte(plots), &r.Plots); err != nil {
		return Run{}, fmt.Errorf("run %s plots: %w", r.RunID, err)
	}
	if err := json.Unmarshal([]byte(notes), &r.Notes); err != nil {
		return Run{}, fmt.Errorf("run %s notes: %w", r.RunID, err)
	}
	return r, nil
}

// ListRuns returns every recorded run, newest first.
func (j *SQLiteJournal) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun loads a run and all of its tables. Rows come back in insertion
// order.
func (j *SQLiteJournal) GetRun(ctx context.Context, runID string) (RunReport, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunReport{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
		}
		return RunReport{}, err
	}

	rep := RunReport{Run: r}
	if rep.Summaries, err = j.summaries(ctx, runID); err != nil {
		return RunReport{}, err
	}
	if rep.Timepoints, err = j.timepoints(ctx, runID); err != nil {
		return RunReport{}, err
	}
	if rep.Subgroups, err = j.subgroups(ctx, runID); err != nil {
		return RunReport{}, err
	}
	return rep, nil
}

func (j *SQLiteJournal) summaries(ctx context.Context, runID string) ([]analysis.PosteriorSummary, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT parameter, mean, lower_ci, upper_ci, prob_positive, prob_significant
		FROM posterior_summaries
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analysis.PosteriorSummary
	for rows.Next() {
		var s analysis.PosteriorSummary
		if err := rows.Scan(&s.Parameter, &s.Mean, &s.LowerCI, &s.UpperCI, &s.ProbPositive, &s.ProbSignificant); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) timepoints(ctx context.Context, runID string) ([]analysis.TimepointEffect, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT timepoint, mean_effect, lower_ci, upper_ci, prob_positive
		FROM timepoint_effects
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analysis.TimepointEffect
	for rows.Next() {
		var e analysis.TimepointEffect
		var tp string
		if err := rows.Scan(&tp, &e.MeanEffect, &e.LowerCI, &e.UpperCI, &e.ProbPositive); err != nil {
			return nil, err
		}
		e.Timepoint = trial.Timepoint(tp)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) subgroups(ctx context.Context, runID string) ([]analysis.SubgroupResult, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT subgroup, n, effect_size, lower_ci, upper_ci, p_value
		FROM subgroup_results
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analysis.SubgroupResult
	for rows.Next() {
		var s analysis.SubgroupResult
		if err := rows.Scan(&s.Subgroup, &s.N, &s.EffectSize, &s.LowerCI, &s.UpperCI, &s.PValue); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
