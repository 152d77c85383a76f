package dataset

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/trialsim/trial"
)

func samplePatients() []trial.Patient {
	return []trial.Patient{
		{ID: 1, Arm: trial.Treatment, Age: 58, Sex: trial.Male, BaselineRisk: 5.25, PrimaryOutcome: 7.5, SecondaryOutcome: 4.125},
		{ID: 2, Arm: trial.Control, Age: 70, Sex: trial.Female, BaselineRisk: 4.5, PrimaryOutcome: 5.0, SecondaryOutcome: 3.0},
	}
}

func sampleObservations() []trial.Observation {
	return []trial.Observation{
		{PatientID: 1, Arm: trial.Treatment, Timepoint: trial.Baseline, Value: 51.5},
		{PatientID: 1, Arm: trial.Treatment, Timepoint: trial.Week6, Value: 59.25},
		{PatientID: 2, Arm: trial.Control, Timepoint: trial.Week12, Value: 60},
	}
}

func TestWritePatientsHeaderAndRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WritePatients(&buf, samplePatients()))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, PatientHeader, rows[0])
	assert.Equal(t, []string{"1", "Treatment", "58", "Male", "5.250000", "7.500000", "4.125000", "<60"}, rows[1])
	assert.Equal(t, "60-70", rows[2][7])
}

func TestPatientsRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WritePatients(&buf, samplePatients()))

	got, err := ReadPatients(&buf)
	require.NoError(t, err)
	assert.Equal(t, samplePatients(), got)
}

func TestObservationsRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteObservations(&buf, sampleObservations()))
	assert.True(t, strings.HasPrefix(buf.String(), "patient_id,treatment,timepoint,biomarker_value\n"))

	got, err := ReadObservations(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleObservations(), got)
}

func TestReadPatientsColumnOrderIndependent(t *testing.T) {
	t.Parallel()

	in := "sex,patient_id,age,treatment,primary_outcome,baseline_risk,secondary_outcome\n" +
		"Female,9,72,Control,6.5,5,3.5\n"
	got, err := ReadPatients(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].ID)
	assert.Equal(t, trial.Female, got[0].Sex)
	assert.Equal(t, trial.Over70, got[0].AgeBracket())
}

func TestReadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"empty", "", "no header row"},
		{"missing column", "patient_id,treatment,age,sex,baseline_risk,primary_outcome\n", "secondary_outcome"},
		{"bad int", "patient_id,treatment,age,sex,baseline_risk,primary_outcome,secondary_outcome\nx,Control,60,Male,1,2,3\n", "bad patient_id"},
		{"bad arm", "patient_id,treatment,age,sex,baseline_risk,primary_outcome,secondary_outcome\n1,Placebo,60,Male,1,2,3\n", "unknown treatment arm"},
		{"short row", "patient_id,treatment,age,sex,baseline_risk,primary_outcome,secondary_outcome\n1,Control,60\n", "row 2"},
		{"bracket mismatch", "patient_id,treatment,age,sex,baseline_risk,primary_outcome,secondary_outcome,age_group\n1,Control,60,Male,1,2,3,>70\n", "does not match age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPatients(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := ReadObservations(strings.NewReader("patient_id,treatment,biomarker_value\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadObservations(strings.NewReader("patient_id,treatment,timepoint,biomarker_value\n1,Control,Week 3,1\n"))
	assert.ErrorContains(t, err, "unknown timepoint")
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data")
	ds := trial.Dataset{Patients: samplePatients(), Observations: sampleObservations()}
	require.NoError(t, Save(dir, ds))

	_, err := os.Stat(filepath.Join(dir, PatientsFile))
	require.NoError(t, err)

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestLoadRejectsInconsistentTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := sampleObservations()
	bad[0].PatientID = 42
	require.NoError(t, Save(dir, trial.Dataset{Patients: samplePatients(), Observations: bad}))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown patient 42")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
