// Package analysis fits the trial's Bayesian models through an injected
// bayes.Fitter and reduces the posterior draws to summary tables.
package analysis

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/rustyeddy/trialsim/bayes"
	"github.com/rustyeddy/trialsim/trial"
)

// ModelSettings are the prior and sampler options of one model.
type ModelSettings struct {
	Prior   bayes.Prior   `json:"prior" yaml:"prior" toml:"prior"`
	Options bayes.Options `json:"options" yaml:"options" toml:"options"`
}

// Settings configures an Analyzer.
type Settings struct {
	CredibleLevel     float64 `json:"credible_level" yaml:"credible_level" toml:"credible_level"`
	ClinicalThreshold float64 `json:"clinical_threshold" yaml:"clinical_threshold" toml:"clinical_threshold"`

	// MinSubgroupSize is the smallest subgroup that is refit; smaller ones
	// are skipped and never reported. The default of 10 guarantees every
	// subgroup row has N >= 10. A lower value is an explicit override that
	// admits smaller subgroups; 0 refits every non-empty one.
	MinSubgroupSize int `json:"min_subgroup_size" yaml:"min_subgroup_size" toml:"min_subgroup_size"`

	// Primary is used for the primary outcome model and every subgroup refit.
	Primary   ModelSettings `json:"primary" yaml:"primary" toml:"primary"`
	Biomarker ModelSettings `json:"biomarker" yaml:"biomarker" toml:"biomarker"`
}

// DefaultSettings reproduces the reference analysis: 95% intervals, a
// clinical threshold of 1.0 and subgroups of at least 10 patients.
func DefaultSettings() Settings {
	return Settings{
		CredibleLevel:     0.95,
		ClinicalThreshold: 1.0,
		MinSubgroupSize:   10,
		Primary: ModelSettings{
			Prior: bayes.Prior{
				Intercept:    bayes.Normal{Mean: 5, Scale: 5},
				Coefficients: bayes.Normal{Mean: 0, Scale: 2.5},
				SigmaShape:   1,
				SigmaScale:   1,
				GroupShape:   1,
				GroupScale:   1,
			},
			Options: bayes.Options{Chains: 4, Iterations: 2000, Warmup: 1000, Seed: 123, MaxRhat: 1.1},
		},
		Biomarker: ModelSettings{
			Prior: bayes.Prior{
				Intercept:    bayes.Normal{Mean: 50, Scale: 20},
				Coefficients: bayes.Normal{Mean: 0, Scale: 10},
				SigmaShape:   1,
				SigmaScale:   1,
				GroupShape:   1,
				GroupScale:   1,
			},
			Options: bayes.Options{Chains: 2, Iterations: 1000, Warmup: 500, Seed: 456, MaxRhat: 1.1},
		},
	}
}

// Validate reports the first invalid setting.
func (s Settings) Validate() error {
	if !(s.CredibleLevel > 0 && s.CredibleLevel < 1) {
		return fmt.Errorf("credible_level must be in (0, 1)")
	}
	if s.MinSubgroupSize < 0 {
		return fmt.Errorf("min_subgroup_size must be non-negative")
	}
	if err := s.Primary.validate("primary"); err != nil {
		return err
	}
	return s.Biomarker.validate("biomarker")
}

func (m ModelSettings) validate(name string) error {
	if err := m.Prior.Validate(); err != nil {
		return fmt.Errorf("%s.prior: %w", name, err)
	}
	if err := m.Options.Validate(); err != nil {
		return fmt.Errorf("%s.options: %w", name, err)
	}
	return nil
}

// Subgroup is a named patient filter.
type Subgroup struct {
	Name string
	Keep func(trial.Patient) bool
}

func bracket(b trial.AgeBracket) func(trial.Patient) bool {
	return func(p trial.Patient) bool { return p.AgeBracket() == b }
}

// StandardSubgroups are evaluated in this order.
var StandardSubgroups = []Subgroup{
	{"all", func(trial.Patient) bool { return true }},
	{"male", func(p trial.Patient) bool { return p.Sex == trial.Male }},
	{"female", func(p trial.Patient) bool { return p.Sex == trial.Female }},
	{"young", bracket(trial.Under60)},
	{"middle", bracket(trial.From60To70)},
	{"old", bracket(trial.Over70)},
}

// Analyzer runs the three analyses against a Fitter.
type Analyzer struct {
	fitter   bayes.Fitter
	settings Settings
	logger   *zap.Logger
}

func New(fitter bayes.Fitter, settings Settings, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{fitter: fitter, settings: settings, logger: logger}
}

func (a *Analyzer) summarize(d bayes.Draws, column string) (Estimate, error) {
	xs, err := d.Column(column)
	if err != nil {
		return Estimate{}, err
	}
	return a.summarizeValues(xs)
}

func (a *Analyzer) summarizeValues(xs []float64) (Estimate, error) {
	return Summarize(xs, a.settings.CredibleLevel, a.settings.ClinicalThreshold)
}

// Primary fits primary_outcome ~ treatment + age + sex and summarizes the
// treatment coefficient.
func (a *Analyzer) Primary(ctx context.Context, patients []trial.Patient) (PrimaryResult, error) {
	a.logger.Info("Fitting Bayesian model for primary outcome", zap.Int("patients", len(patients)))

	m := outcomeModel("primary_outcome", patients, true)
	s := a.settings.Primary
	fit, err := a.fitter.Fit(ctx, m, s.Prior, s.Options)
	if err != nil {
		return PrimaryResult{}, fmt.Errorf("primary outcome: %w", err)
	}
	est, err := a.summarize(fit.Draws, TermTreatment)
	if err != nil {
		return PrimaryResult{}, fmt.Errorf("primary outcome: %w", err)
	}

	return PrimaryResult{
		Summary: PosteriorSummary{
			Parameter:       "Treatment Effect",
			Mean:            est.Mean,
			LowerCI:         est.Lower,
			UpperCI:         est.Upper,
			ProbPositive:    est.ProbPositive,
			ProbSignificant: est.ProbAbove,
		},
		Fit: fit,
	}, nil
}

// Biomarker fits the longitudinal model and reports the treatment effect at
// Baseline and at Week 12, plus the fitted trajectory of each arm.
func (a *Analyzer) Biomarker(ctx context.Context, obs []trial.Observation) (BiomarkerResult, error) {
	a.logger.Info("Fitting Bayesian model for biomarker data", zap.Int("observations", len(obs)))

	m := biomarkerModel(obs)
	s := a.settings.Biomarker
	fit, err := a.fitter.Fit(ctx, m, s.Prior, s.Options)
	if err != nil {
		return BiomarkerResult{}, fmt.Errorf("biomarker: %w", err)
	}

	cols := map[string][]float64{}
	for _, name := range []string{bayes.InterceptName, TermTreatment, TermTime, TermInteraction} {
		xs, err := fit.Draws.Column(name)
		if err != nil {
			return BiomarkerResult{}, fmt.Errorf("biomarker: %w", err)
		}
		cols[name] = xs
	}
	b0, bt, bx, bi := cols[bayes.InterceptName], cols[TermTreatment], cols[TermTime], cols[TermInteraction]

	res := BiomarkerResult{Fit: fit}
	for _, tp := range []trial.Timepoint{trial.Baseline, trial.Week12} {
		t := float64(tp.Index())
		effect := lo.Map(bt, func(x float64, i int) float64 { return x + t*bi[i] })
		est, err := a.summarizeValues(effect)
		if err != nil {
			return BiomarkerResult{}, fmt.Errorf("biomarker %s: %w", tp, err)
		}
		res.Effects = append(res.Effects, TimepointEffect{
			Timepoint:    tp,
			MeanEffect:   est.Mean,
			LowerCI:      est.Lower,
			UpperCI:      est.Upper,
			ProbPositive: est.ProbPositive,
		})
	}

	for _, arm := range trial.Arms {
		d := indicator(arm.Treated())
		for _, tp := range trial.Timepoints {
			t := float64(tp.Index())
			mu := lo.Map(b0, func(x float64, i int) float64 { return x + d*bt[i] + t*bx[i] + d*t*bi[i] })
			est, err := a.summarizeValues(mu)
			if err != nil {
				return BiomarkerResult{}, fmt.Errorf("biomarker trajectory: %w", err)
			}
			res.Trajectories = append(res.Trajectories, Trajectory{
				Arm: arm, Time: tp.Index(), Mean: est.Mean, Lower: est.Lower, Upper: est.Upper,
			})
		}
	}
	return res, nil
}

// Subgroups refits primary_outcome ~ treatment within each standard
// subgroup. Subgroups smaller than the minimum size are skipped and do not
// appear in the result.
func (a *Analyzer) Subgroups(ctx context.Context, patients []trial.Patient) ([]SubgroupResult, error) {
	a.logger.Info("Running subgroup analysis", zap.Int("patients", len(patients)))

	s := a.settings.Primary
	var out []SubgroupResult
	for _, sg := range StandardSubgroups {
		subset := lo.Filter(patients, func(p trial.Patient, _ int) bool { return sg.Keep(p) })
		if len(subset) == 0 || len(subset) < a.settings.MinSubgroupSize {
			a.logger.Info("Skipping subgroup due to insufficient data",
				zap.String("subgroup", sg.Name),
				zap.Int("n", len(subset)),
				zap.Int("min", a.settings.MinSubgroupSize))
			continue
		}

		fit, err := a.fitter.Fit(ctx, outcomeModel("subgroup_"+sg.Name, subset, false), s.Prior, s.Options)
		if err != nil {
			return nil, fmt.Errorf("subgroup %s: %w", sg.Name, err)
		}
		est, err := a.summarize(fit.Draws, TermTreatment)
		if err != nil {
			return nil, fmt.Errorf("subgroup %s: %w", sg.Name, err)
		}
		out = append(out, SubgroupResult{
			Subgroup:   sg.Name,
			N:          len(subset),
			EffectSize: est.Mean,
			LowerCI:    est.Lower,
			UpperCI:    est.Upper,
			PValue:     est.ProbNonPositive,
		})
	}
	return out, nil
}
