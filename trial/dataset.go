package trial

import (
	"errors"
	"fmt"
)

// Dataset is the pair of tables produced by the generator and consumed by
// the analysis pipeline.
type Dataset struct {
	Patients     []Patient
	Observations []Observation
}

// Validate checks the cross-table invariants. All violations are joined
// into a single error.
func (d Dataset) Validate() error {
	var errs []error

	byID := make(map[int]Patient, len(d.Patients))
	for _, p := range d.Patients {
		if _, dup := byID[p.ID]; dup {
			errs = append(errs, fmt.Errorf("patient %d: duplicate id", p.ID))
			continue
		}
		if p.Arm != Treatment && p.Arm != Control {
			errs = append(errs, fmt.Errorf("patient %d: bad arm %q", p.ID, p.Arm))
		}
		if p.Sex != Male && p.Sex != Female {
			errs = append(errs, fmt.Errorf("patient %d: bad sex %q", p.ID, p.Sex))
		}
		byID[p.ID] = p
	}

	type visit struct {
		id int
		tp Timepoint
	}
	seen := make(map[visit]bool, len(d.Observations))
	for i, o := range d.Observations {
		p, ok := byID[o.PatientID]
		if !ok {
			errs = append(errs, fmt.Errorf("observation %d: unknown patient %d", i, o.PatientID))
			continue
		}
		if o.Arm != p.Arm {
			errs = append(errs, fmt.Errorf("observation %d: arm %q does not match patient %d arm %q", i, o.Arm, p.ID, p.Arm))
		}
		if o.Timepoint.Index() < 0 {
			errs = append(errs, fmt.Errorf("observation %d: bad timepoint %q", i, o.Timepoint))
			continue
		}
		v := visit{o.PatientID, o.Timepoint}
		if seen[v] {
			errs = append(errs, fmt.Errorf("observation %d: patient %d already has a %s value", i, o.PatientID, o.Timepoint))
		}
		seen[v] = true
	}

	return errors.Join(errs...)
}

// CountByArm returns the number of patients per arm.
func CountByArm(patients []Patient) map[Arm]int {
	out := make(map[Arm]int, len(Arms))
	for _, p := range patients {
		out[p.Arm]++
	}
	return out
}
