package analysis

import (
	"github.com/rustyeddy/trialsim/bayes"
	"github.com/rustyeddy/trialsim/trial"
)

// PosteriorSummary is one row of a model's parameter summary table.
type PosteriorSummary struct {
	Parameter       string
	Mean            float64
	LowerCI         float64
	UpperCI         float64
	ProbPositive    float64
	ProbSignificant float64 // P(effect > clinical threshold)
}

// TimepointEffect is the treatment effect of the biomarker model at one visit.
type TimepointEffect struct {
	Timepoint    trial.Timepoint
	MeanEffect   float64
	LowerCI      float64
	UpperCI      float64
	ProbPositive float64
}

// SubgroupResult is the treatment effect refit within one subgroup.
//
// PValue is the posterior probability that the effect is not positive,
// P(effect <= 0). It is a one-sided posterior tail, not a frequentist
// p-value.
type SubgroupResult struct {
	Subgroup   string
	N          int
	EffectSize float64
	LowerCI    float64
	UpperCI    float64
	PValue     float64
}

// Trajectory is the posterior of the fitted biomarker mean for one arm at
// one time index.
type Trajectory struct {
	Arm   trial.Arm
	Time  int
	Mean  float64
	Lower float64
	Upper float64
}

// PrimaryResult is the output of the primary outcome fit.
type PrimaryResult struct {
	Summary PosteriorSummary
	Fit     *bayes.Fit
}

// BiomarkerResult is the output of the longitudinal biomarker fit.
type BiomarkerResult struct {
	Effects      []TimepointEffect
	Trajectories []Trajectory
	Fit          *bayes.Fit
}
