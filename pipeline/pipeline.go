// Package pipeline wires generation, analysis, plotting and journaling
// into the two batch runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rustyeddy/trialsim/analysis"
	"github.com/rustyeddy/trialsim/bayes"
	"github.com/rustyeddy/trialsim/config"
	"github.com/rustyeddy/trialsim/dataset"
	"github.com/rustyeddy/trialsim/generate"
	"github.com/rustyeddy/trialsim/journal"
	"github.com/rustyeddy/trialsim/pkg/id"
	"github.com/rustyeddy/trialsim/plots"
	"github.com/rustyeddy/trialsim/trial"
)

// Artifact and report file names inside the results directory.
const (
	PrimaryModelFile   = "primary_outcome_model.gob"
	BiomarkerModelFile = "biomarker_model.gob"
	ReportFile         = "report.org"
)

// Generate draws a dataset from cfg.Generator, writes the data tables to
// cfg.Paths.Data and the exploratory figures to cfg.Paths.Images.
func Generate(ctx context.Context, cfg *config.Config, logger *zap.Logger) (trial.Dataset, generate.Description, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return trial.Dataset{}, generate.Description{}, err
	}

	g := cfg.Generator
	logger.Info("Generating synthetic trial data",
		zap.Int("patients", g.Patients),
		zap.Float64("treatment_effect", g.TreatmentEffect),
		zap.Uint64("seed", g.Seed))

	ds, err := generate.NewSeeded(generate.DefaultParams(), g.Seed).Dataset(g.Patients, g.TreatmentEffect)
	if err != nil {
		return trial.Dataset{}, generate.Description{}, err
	}
	if err := dataset.Save(cfg.Paths.Data, ds); err != nil {
		return trial.Dataset{}, generate.Description{}, err
	}

	if err := os.MkdirAll(cfg.Paths.Images, 0o755); err != nil {
		return trial.Dataset{}, generate.Description{}, fmt.Errorf("create images dir: %w", err)
	}
	if len(ds.Patients) == 0 {
		logger.Warn("No patients generated; skipping figures")
	} else {
		if err := plots.OutcomeBoxplot(filepath.Join(cfg.Paths.Images, plots.BoxplotFile), ds.Patients); err != nil {
			return trial.Dataset{}, generate.Description{}, err
		}
		if err := plots.BiomarkerTrajectory(filepath.Join(cfg.Paths.Images, plots.TrajectoryFile), ds.Observations); err != nil {
			return trial.Dataset{}, generate.Description{}, err
		}
	}

	arms := trial.CountByArm(ds.Patients)
	logger.Info("Data generation complete",
		zap.String("data", cfg.Paths.Data),
		zap.Int("patients", len(ds.Patients)),
		zap.Int("treatment", arms[trial.Treatment]),
		zap.Int("control", arms[trial.Control]),
		zap.Int("observations", len(ds.Observations)))

	return ds, generate.Describe(ds), nil
}

// Result is everything an analysis run produced.
type Result struct {
	Report    journal.RunReport
	Primary   analysis.PrimaryResult
	Biomarker analysis.BiomarkerResult
}

// Runner performs the analysis run over the tables in Config.Paths.Data.
type Runner struct {
	Fitter bayes.Fitter
	Config *config.Config
	Logger *zap.Logger

	// Generated, when set, records the generator inputs of this run.
	Generated *config.GeneratorConfig
}

// Analyze loads the dataset, fits the three analyses, and writes the model
// artifacts, figures, summary tables and report. The first error aborts
// the run; files already written are left in place.
func (r *Runner) Analyze(ctx context.Context) (res Result, err error) {
	if r.Fitter == nil {
		return Result{}, fmt.Errorf("pipeline: Fitter is required")
	}
	if r.Config == nil {
		return Result{}, fmt.Errorf("pipeline: Config is required")
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := r.Config

	timeout, err := cfg.Runtime.ParseTimeout()
	if err != nil {
		return Result{}, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ds, err := dataset.Load(cfg.Paths.Data)
	if err != nil {
		return Result{}, err
	}
	out := cfg.Paths.Results
	if err := os.MkdirAll(out, 0o755); err != nil {
		return Result{}, fmt.Errorf("create results dir: %w", err)
	}

	j, err := r.openJournal()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := j.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close journal: %w", cerr)
		}
	}()

	a := analysis.New(r.Fitter, cfg.Analysis, logger)

	primary, err := a.Primary(ctx, ds.Patients)
	if err != nil {
		return Result{}, err
	}
	if err := primary.Fit.Save(filepath.Join(out, PrimaryModelFile)); err != nil {
		return Result{}, err
	}
	if err := posteriorPlot(filepath.Join(out, plots.PosteriorFile), primary.Fit, cfg.Analysis); err != nil {
		return Result{}, err
	}

	bio, err := a.Biomarker(ctx, ds.Observations)
	if err != nil {
		return Result{}, err
	}
	if err := bio.Fit.Save(filepath.Join(out, BiomarkerModelFile)); err != nil {
		return Result{}, err
	}
	if err := plots.ConditionalEffects(filepath.Join(out, plots.ConditionalEffectsFile), bio.Trajectories, ds.Observations); err != nil {
		return Result{}, err
	}

	subgroups, err := a.Subgroups(ctx, ds.Patients)
	if err != nil {
		return Result{}, err
	}
	figures := []string{
		filepath.Join(out, plots.PosteriorFile),
		filepath.Join(out, plots.ConditionalEffectsFile),
	}
	if err := plots.Forest(filepath.Join(out, plots.ForestFile), subgroups); err == nil {
		figures = append(figures, filepath.Join(out, plots.ForestFile))
	} else if !errors.Is(err, plots.ErrNoData) {
		return Result{}, err
	}

	runID := id.New()
	created, err := id.Time(runID)
	if err != nil {
		return Result{}, err
	}
	rep := journal.RunReport{
		Run: journal.Run{
			RunID:            runID,
			Created:          created,
			Patients:         len(ds.Patients),
			Observations:     len(ds.Observations),
			DataDir:          cfg.Paths.Data,
			ResultsDir:       out,
			PrimaryFormula:   primary.Fit.Formula,
			BiomarkerFormula: bio.Fit.Formula,
			CredibleLevel:    cfg.Analysis.CredibleLevel,
			OrgPath:          filepath.Join(out, ReportFile),
			Plots:            figures,
			Notes:            notes(subgroups, len(analysis.StandardSubgroups)),
		},
		Summaries:  []analysis.PosteriorSummary{primary.Summary},
		Timepoints: bio.Effects,
		Subgroups:  subgroups,
	}
	if g := r.Generated; g != nil {
		rep.Seed = g.Seed
		rep.TreatmentEffect = g.TreatmentEffect
	}

	if err := record(j, rep); err != nil {
		return Result{}, fmt.Errorf("record run: %w", err)
	}
	if err := rep.WriteOrg(rep.OrgPath); err != nil {
		return Result{}, err
	}

	logger.Info("Analysis complete",
		zap.String("run_id", rep.RunID),
		zap.String("results", out))

	return Result{Report: rep, Primary: primary, Biomarker: bio}, nil
}

func (r *Runner) openJournal() (journal.Journal, error) {
	csvj, err := journal.NewCSV(r.Config.Paths.Results)
	if err != nil {
		return nil, fmt.Errorf("open csv journal: %w", err)
	}
	if r.Config.Journal.Type != "sqlite" {
		return csvj, nil
	}
	db, err := journal.NewSQLite(r.Config.Journal.DBPath)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open sqlite journal: %w", err), csvj.Close())
	}
	return journal.Multi{csvj, db}, nil
}

func record(j journal.Journal, rep journal.RunReport) error {
	if err := j.RecordRun(rep.Run); err != nil {
		return err
	}
	if err := j.RecordSummaries(rep.RunID, "primary_outcome", rep.Summaries); err != nil {
		return err
	}
	if err := j.RecordTimepoints(rep.RunID, rep.Timepoints); err != nil {
		return err
	}
	return j.RecordSubgroups(rep.RunID, rep.Subgroups)
}

func posteriorPlot(path string, fit *bayes.Fit, s analysis.Settings) error {
	draws, err := fit.Draws.Column(analysis.TermTreatment)
	if err != nil {
		return err
	}
	est, err := analysis.Summarize(draws, s.CredibleLevel, s.ClinicalThreshold)
	if err != nil {
		return err
	}
	return plots.PosteriorDensity(path, draws, est)
}

// notes flags skipped subgroups and subgroup intervals that include zero.
func notes(subgroups []analysis.SubgroupResult, evaluated int) []string {
	var out []string
	if skipped := evaluated - len(subgroups); skipped > 0 {
		out = append(out, fmt.Sprintf("%d subgroup(s) skipped for insufficient data", skipped))
	}
	for _, s := range subgroups {
		if s.LowerCI <= 0 && s.UpperCI >= 0 {
			out = append(out, fmt.Sprintf("subgroup %s: credible interval includes zero", s.Subgroup))
		}
	}
	return out
}
