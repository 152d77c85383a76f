// Package trial holds the typed records shared by the generator and the
// analysis pipeline: patients, biomarker observations and their categorical
// fields.
package trial

import (
	"fmt"
	"strings"
)

// Arm is a trial group.
type Arm string

const (
	Treatment Arm = "Treatment"
	Control   Arm = "Control"
)

// Arms lists the arms in table order.
var Arms = []Arm{Treatment, Control}

// ParseArm accepts the exact CSV labels only.
func ParseArm(s string) (Arm, error) {
	switch a := Arm(strings.TrimSpace(s)); a {
	case Treatment, Control:
		return a, nil
	default:
		return "", fmt.Errorf("unknown treatment arm %q", s)
	}
}

// Treated reports whether a is the treatment arm.
func (a Arm) Treated() bool { return a == Treatment }

// Sex is the recorded patient sex.
type Sex string

const (
	Male   Sex = "Male"
	Female Sex = "Female"
)

func ParseSex(s string) (Sex, error) {
	switch x := Sex(strings.TrimSpace(s)); x {
	case Male, Female:
		return x, nil
	default:
		return "", fmt.Errorf("unknown sex %q", s)
	}
}

// AgeBracket partitions ages into three fixed bands.
type AgeBracket string

const (
	Under60    AgeBracket = "<60"
	From60To70 AgeBracket = "60-70"
	Over70     AgeBracket = ">70"
)

// BracketFor maps an age to its bracket. Cut points are inclusive on the
// upper side: 60 is "<60" and 70 is "60-70".
func BracketFor(age int) AgeBracket {
	switch {
	case age <= 60:
		return Under60
	case age <= 70:
		return From60To70
	default:
		return Over70
	}
}

// Timepoint is an ordered visit label.
type Timepoint string

const (
	Baseline Timepoint = "Baseline"
	Week6    Timepoint = "Week 6"
	Week12   Timepoint = "Week 12"
)

// Timepoints is the visit schedule in order.
var Timepoints = []Timepoint{Baseline, Week6, Week12}

// Index returns the numeric time used by the longitudinal model
// (0, 1, 2), or -1 for an unknown label.
func (t Timepoint) Index() int {
	for i, tp := range Timepoints {
		if tp == t {
			return i
		}
	}
	return -1
}

func ParseTimepoint(s string) (Timepoint, error) {
	tp := Timepoint(strings.TrimSpace(s))
	if tp.Index() < 0 {
		return "", fmt.Errorf("unknown timepoint %q", s)
	}
	return tp, nil
}

// Patient is one row of the patient table.
type Patient struct {
	ID               int
	Arm              Arm
	Age              int
	Sex              Sex
	BaselineRisk     float64
	PrimaryOutcome   float64
	SecondaryOutcome float64
}

// AgeBracket derives the bracket from Age.
func (p Patient) AgeBracket() AgeBracket { return BracketFor(p.Age) }

// Observation is one biomarker measurement of a patient at a visit.
type Observation struct {
	PatientID int
	Arm       Arm
	Timepoint Timepoint
	Value     float64
}
