package generate

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/trialsim/trial"
)

// Moments is a mean and sample standard deviation.
type Moments struct {
	N    int
	Mean float64
	SD   float64
}

func moments(xs []float64) Moments {
	if len(xs) == 0 {
		return Moments{}
	}
	m, sd := stat.MeanStdDev(xs, nil)
	return Moments{N: len(xs), Mean: m, SD: sd}
}

// ArmSummary describes the outcomes of one arm.
type ArmSummary struct {
	Arm       trial.Arm
	Primary   Moments
	Secondary Moments
}

// VisitSummary describes the biomarker at one arm and timepoint.
type VisitSummary struct {
	Arm       trial.Arm
	Timepoint trial.Timepoint
	Biomarker Moments
}

// Description is the post-generation summary of a dataset.
type Description struct {
	Arms   []ArmSummary
	Visits []VisitSummary
}

// Describe groups the tables by arm (and timepoint for the biomarker) in
// the fixed arm and visit order. Empty groups are omitted.
func Describe(ds trial.Dataset) Description {
	var d Description

	byArm := lo.GroupBy(ds.Patients, func(p trial.Patient) trial.Arm { return p.Arm })
	for _, arm := range trial.Arms {
		ps, ok := byArm[arm]
		if !ok {
			continue
		}
		d.Arms = append(d.Arms, ArmSummary{
			Arm:       arm,
			Primary:   moments(lo.Map(ps, func(p trial.Patient, _ int) float64 { return p.PrimaryOutcome })),
			Secondary: moments(lo.Map(ps, func(p trial.Patient, _ int) float64 { return p.SecondaryOutcome })),
		})
	}

	type key struct {
		arm trial.Arm
		tp  trial.Timepoint
	}
	byVisit := lo.GroupBy(ds.Observations, func(o trial.Observation) key { return key{o.Arm, o.Timepoint} })
	for _, arm := range trial.Arms {
		for _, tp := range trial.Timepoints {
			obs, ok := byVisit[key{arm, tp}]
			if !ok {
				continue
			}
			d.Visits = append(d.Visits, VisitSummary{
				Arm:       arm,
				Timepoint: tp,
				Biomarker: moments(lo.Map(obs, func(o trial.Observation, _ int) float64 { return o.Value })),
			})
		}
	}
	return d
}

// Print writes the description as two plain tables.
func (d Description) Print(w io.Writer) {
	fmt.Fprintln(w, "Trial Data Summary")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "%-10s %5s %10s %10s %10s %10s\n", "Arm", "N", "Prim.Mean", "Prim.SD", "Sec.Mean", "Sec.SD")
	for _, a := range d.Arms {
		fmt.Fprintf(w, "%-10s %5d %10.3f %10.3f %10.3f %10.3f\n",
			a.Arm, a.Primary.N, a.Primary.Mean, a.Primary.SD, a.Secondary.Mean, a.Secondary.SD)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Biomarker Data Summary")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "%-10s %-9s %5s %10s %10s\n", "Arm", "Timepoint", "N", "Mean", "SD")
	for _, v := range d.Visits {
		fmt.Fprintf(w, "%-10s %-9s %5d %10.3f %10.3f\n",
			v.Arm, v.Timepoint, v.Biomarker.N, v.Biomarker.Mean, v.Biomarker.SD)
	}
}
