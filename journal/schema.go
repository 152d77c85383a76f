package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	seed INTEGER NOT NULL,
	patients INTEGER NOT NULL,
	observations INTEGER NOT NULL,
	treatment_effect REAL NOT NULL,
	data_dir TEXT NOT NULL,
	results_dir TEXT NOT NULL,
	primary_formula TEXT NOT NULL,
	biomarker_formula TEXT NOT NULL,
	org_path TEXT NOT NULL,
	credible_level REAL NOT NULL,
	plots TEXT NOT NULL,
	notes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS posterior_summaries (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	model TEXT NOT NULL,
	parameter TEXT NOT NULL,
	mean REAL NOT NULL,
	lower_ci REAL NOT NULL,
	upper_ci REAL NOT NULL,
	prob_positive REAL NOT NULL,
	prob_significant REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS timepoint_effects (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	timepoint TEXT NOT NULL,
	mean_effect REAL NOT NULL,
	lower_ci REAL NOT NULL,
	upper_ci REAL NOT NULL,
	prob_positive REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS subgroup_results (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	subgroup TEXT NOT NULL,
	n INTEGER NOT NULL,
	effect_size REAL NOT NULL,
	lower_ci REAL NOT NULL,
	upper_ci REAL NOT NULL,
	p_value REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
CREATE INDEX IF NOT EXISTS idx_summaries_run ON posterior_summaries(run_id);
CREATE INDEX IF NOT EXISTS idx_timepoints_run ON timepoint_effects(run_id);
CREATE INDEX IF NOT EXISTS idx_subgroups_run ON subgroup_results(run_id);
`
