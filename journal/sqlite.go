package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/trialsim/analysis"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// RecordRun inserts the run row. Seeds are stored as their int64 bit
// pattern; plot paths and notes as JSON arrays.
func (j *SQLiteJournal) RecordRun(r Run) error {
	plots, err := json.Marshal(r.Plots)
	if err != nil {
		return fmt.Errorf("encode plots: %w", err)
	}
	notes, err := json.Marshal(r.Notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	_, err = j.db.Exec(`
		INSERT INTO runs
		(run_id, created, seed, patients, observations, treatment_effect,
		 data_dir, results_dir, primary_formula, biomarker_formula, org_path,
		 credible_level, plots, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), int64(r.Seed), r.Patients, r.Observations, r.TreatmentEffect,
		r.DataDir, r.ResultsDir, r.PrimaryFormula, r.BiomarkerFormula, r.OrgPath,
		r.CredibleLevel, string(plots), string(notes),
	)
	return err
}

func (j *SQLiteJournal) RecordSummaries(runID, model string, rows []analysis.PosteriorSummary) error {
	return j.insertAll(len(rows), func(tx *sql.Tx, i int) error {
		r := rows[i]
		_, err := tx.Exec(`
			INSERT INTO posterior_summaries
			(run_id, model, parameter, mean, lower_ci, upper_ci, prob_positive, prob_significant)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, model, r.Parameter, r.Mean, r.LowerCI, r.UpperCI, r.ProbPositive, r.ProbSignificant,
		)
		return err
	})
}

func (j *SQLiteJournal) RecordTimepoints(runID string, rows []analysis.TimepointEffect) error {
	return j.insertAll(len(rows), func(tx *sql.Tx, i int) error {
		r := rows[i]
		_, err := tx.Exec(`
			INSERT INTO timepoint_effects
			(run_id, timepoint, mean_effect, lower_ci, upper_ci, prob_positive)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, string(r.Timepoint), r.MeanEffect, r.LowerCI, r.UpperCI, r.ProbPositive,
		)
		return err
	})
}

func (j *SQLiteJournal) RecordSubgroups(runID string, rows []analysis.SubgroupResult) error {
	return j.insertAll(len(rows), func(tx *sql.Tx, i int) error {
		r := rows[i]
		_, err := tx.Exec(`
			INSERT INTO subgroup_results
			(run_id, subgroup, n, effect_size, lower_ci, upper_ci, p_value)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Subgroup, r.N, r.EffectSize, r.LowerCI, r.UpperCI, r.PValue,
		)
		return err
	})
}

// insertAll runs n inserts in one transaction.
func (j *SQLiteJournal) insertAll(n int, insert func(*sql.Tx, int) error) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := insert(tx, i); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
