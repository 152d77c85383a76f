package analysis

import (
	"github.com/samber/lo"

	"github.com/rustyeddy/trialsim/bayes"
	"github.com/rustyeddy/trialsim/trial"
)

// Coefficient names used in the posterior draws.
const (
	TermTreatment   = "treatment"
	TermAge         = "age"
	TermSexMale     = "sex_male"
	TermTime        = "time"
	TermInteraction = "treatment:time"
	GroupPatient    = "patient_id"
)

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// outcomeModel is primary_outcome ~ treatment (+ age + sex). The indicators
// use Control and Female as reference levels.
func outcomeModel(name string, patients []trial.Patient, covariates bool) bayes.Model {
	m := bayes.Model{
		Name:     name,
		Response: "primary_outcome",
		Y:        lo.Map(patients, func(p trial.Patient, _ int) float64 { return p.PrimaryOutcome }),
		Terms: []bayes.Term{{
			Name: TermTreatment,
			X:    lo.Map(patients, func(p trial.Patient, _ int) float64 { return indicator(p.Arm.Treated()) }),
		}},
	}
	if covariates {
		m.Terms = append(m.Terms,
			bayes.Term{
				Name: TermAge,
				X:    lo.Map(patients, func(p trial.Patient, _ int) float64 { return float64(p.Age) }),
			},
			bayes.Term{
				Name: TermSexMale,
				X:    lo.Map(patients, func(p trial.Patient, _ int) float64 { return indicator(p.Sex == trial.Male) }),
			},
		)
	}
	return m
}

// biomarkerModel is biomarker_value ~ treatment * time + (time | patient_id).
// Patients are numbered in order of first appearance.
func biomarkerModel(obs []trial.Observation) bayes.Model {
	level := map[int]int{}
	index := make([]int, len(obs))
	for i, o := range obs {
		l, ok := level[o.PatientID]
		if !ok {
			l = len(level)
			level[o.PatientID] = l
		}
		index[i] = l
	}

	treated := lo.Map(obs, func(o trial.Observation, _ int) float64 { return indicator(o.Arm.Treated()) })
	time := lo.Map(obs, func(o trial.Observation, _ int) float64 { return float64(o.Timepoint.Index()) })
	inter := lo.Map(obs, func(_ trial.Observation, i int) float64 { return treated[i] * time[i] })
	timeTerm := bayes.Term{Name: TermTime, X: time}

	return bayes.Model{
		Name:     "biomarker_value",
		Response: "biomarker_value",
		Y:        lo.Map(obs, func(o trial.Observation, _ int) float64 { return o.Value }),
		Terms: []bayes.Term{
			{Name: TermTreatment, X: treated},
			timeTerm,
			{Name: TermInteraction, X: inter},
		},
		Group: &bayes.Group{Name: GroupPatient, Index: index, Slope: &timeTerm},
	}
}
