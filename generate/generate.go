// Package generate produces synthetic patient and biomarker tables for a
// two-arm trial. All randomness comes from the caller's generator.
package generate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rustyeddy/trialsim/trial"
)

// Params holds the constants of the noise model.
type Params struct {
	AgeMean, AgeSD float64
	MinAge, MaxAge int

	// MaleWeight is the probability of drawing Male.
	MaleWeight float64

	RiskMean, RiskSD float64

	// EffectNoiseSD is the per-patient spread of the treatment effect. Both
	// arms receive it, so control patients scatter around zero.
	EffectNoiseSD float64

	AgeSlope     float64
	AgeCenter    float64
	FemaleShift  float64
	OutcomeSD    float64
	SecondaryMul float64
	SecondarySD  float64

	BiomarkerBase float64
	InterceptSD   float64
	SlopeSD       float64
	TimeEffect    float64
	TreatedSlope  float64
	BiomarkerSD   float64
}

// DefaultParams returns the parameters of the reference simulation.
func DefaultParams() Params {
	return Params{
		AgeMean:    65,
		AgeSD:      10,
		MinAge:     18,
		MaxAge:     100,
		MaleWeight: 0.55,

		RiskMean: 5,
		RiskSD:   1,

		EffectNoiseSD: 0.5,

		AgeSlope:     0.05,
		AgeCenter:    65,
		FemaleShift:  0.5,
		OutcomeSD:    1,
		SecondaryMul: 0.6,
		SecondarySD:  0.8,

		BiomarkerBase: 50,
		InterceptSD:   5,
		SlopeSD:       1,
		TimeEffect:    5,
		TreatedSlope:  3,
		BiomarkerSD:   2,
	}
}

// Generator draws tables from Params using a caller-owned random source.
// A Generator is not safe for concurrent use; give each goroutine its own.
type Generator struct {
	Params Params
	rng    *rand.Rand
}

// New returns a Generator reading from rng.
func New(p Params, rng *rand.Rand) *Generator {
	return &Generator{Params: p, rng: rng}
}

// NewSeeded is New with a PCG stream seeded from seed.
func NewSeeded(p Params, seed uint64) *Generator {
	return New(p, rand.New(rand.NewPCG(seed, 0)))
}

func (g *Generator) normal(mu, sigma float64, n int) []float64 {
	d := distuv.Normal{Mu: mu, Sigma: sigma, Src: g.rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Patients draws n patients. The first n/2 rows are Treatment and the rest
// Control, so an odd n gives Control the extra patient. IDs run from 1.
func (g *Generator) Patients(n int, effect float64) ([]trial.Patient, error) {
	if n < 0 {
		return nil, fmt.Errorf("patient count must be non-negative, got %d", n)
	}
	p := g.Params
	treated := n / 2

	ages := g.normal(p.AgeMean, p.AgeSD, n)
	sexDraw := distuv.NewCategorical([]float64{p.MaleWeight, 1 - p.MaleWeight}, g.rng)
	sexes := make([]trial.Sex, n)
	for i := range sexes {
		if sexDraw.Rand() == 0 {
			sexes[i] = trial.Male
		} else {
			sexes[i] = trial.Female
		}
	}
	risk := g.normal(p.RiskMean, p.RiskSD, n)

	// One noise draw per arm block, indexed by position within the arm.
	treatedNoise := g.normal(0, p.EffectNoiseSD, treated)
	controlNoise := g.normal(0, p.EffectNoiseSD, n-treated)

	residual := g.normal(0, p.OutcomeSD, n)
	secondary := g.normal(0, p.SecondarySD, n)

	out := make([]trial.Patient, n)
	for i := range out {
		arm := trial.Control
		var te float64
		if i < treated {
			arm = trial.Treatment
			te = effect + treatedNoise[i]
		} else {
			te = controlNoise[i-treated]
		}

		age := clamp(int(math.Round(ages[i])), p.MinAge, p.MaxAge)
		female := 0.0
		if sexes[i] == trial.Female {
			female = 1
		}

		primary := risk[i] + te + p.AgeSlope*(float64(age)-p.AgeCenter) + p.FemaleShift*female + residual[i]

		out[i] = trial.Patient{
			ID:               i + 1,
			Arm:              arm,
			Age:              age,
			Sex:              sexes[i],
			BaselineRisk:     risk[i],
			PrimaryOutcome:   primary,
			SecondaryOutcome: p.SecondaryMul*primary + secondary[i],
		}
	}
	return out, nil
}

// Biomarkers draws one observation per patient per timepoint. Each patient
// gets a random intercept and slope that are shared across their visits;
// the treated arm gains TreatedSlope per visit on top of the common trend.
func (g *Generator) Biomarkers(patients []trial.Patient) []trial.Observation {
	p := g.Params
	intercepts := g.normal(0, p.InterceptSD, len(patients))
	slopes := g.normal(0, p.SlopeSD, len(patients))
	noise := distuv.Normal{Mu: 0, Sigma: p.BiomarkerSD, Src: g.rng}

	out := make([]trial.Observation, 0, len(patients)*len(trial.Timepoints))
	for i, pt := range patients {
		base := p.BiomarkerBase + intercepts[i]
		for _, tp := range trial.Timepoints {
			t := float64(tp.Index())
			v := base + p.TimeEffect*t + slopes[i]*t + noise.Rand()
			if pt.Arm.Treated() {
				v += p.TreatedSlope * t
			}
			out = append(out, trial.Observation{
				PatientID: pt.ID,
				Arm:       pt.Arm,
				Timepoint: tp,
				Value:     v,
			})
		}
	}
	return out
}

// Dataset draws both tables in one call.
func (g *Generator) Dataset(n int, effect float64) (trial.Dataset, error) {
	patients, err := g.Patients(n, effect)
	if err != nil {
		return trial.Dataset{}, err
	}
	return trial.Dataset{Patients: patients, Observations: g.Biomarkers(patients)}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
