// Package dataset reads and writes the patient and biomarker tables as
// header-named CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rustyeddy/trialsim/trial"
)

const (
	PatientsFile     = "trial_data.csv"
	ObservationsFile = "biomarker_data.csv"
)

var (
	PatientHeader     = []string{"patient_id", "treatment", "age", "sex", "baseline_risk", "primary_outcome", "secondary_outcome", "age_group"}
	ObservationHeader = []string{"patient_id", "treatment", "timepoint", "biomarker_value"}
)

// ErrMissingColumn is returned when a required column is absent from the
// header row.
var ErrMissingColumn = errors.New("missing column")

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// WritePatients writes the header and one row per patient.
func WritePatients(w io.Writer, patients []trial.Patient) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PatientHeader); err != nil {
		return err
	}
	for _, p := range patients {
		err := cw.Write([]string{
			strconv.Itoa(p.ID),
			string(p.Arm),
			strconv.Itoa(p.Age),
			string(p.Sex),
			f(p.BaselineRisk),
			f(p.PrimaryOutcome),
			f(p.SecondaryOutcome),
			string(p.AgeBracket()),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteObservations writes the header and one row per observation.
func WriteObservations(w io.Writer, obs []trial.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ObservationHeader); err != nil {
		return err
	}
	for _, o := range obs {
		err := cw.Write([]string{
			strconv.Itoa(o.PatientID),
			string(o.Arm),
			string(o.Timepoint),
			f(o.Value),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// table is a CSV body with columns addressed by header name.
type table struct {
	cols map[string]int
	rows [][]string
}

func readTable(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return nil, err
	}

	t := &table{cols: make(map[string]int, len(header))}
	for i, h := range header {
		t.cols[strings.TrimSpace(h)] = i
	}
	for _, name := range required {
		if _, ok := t.cols[name]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		t.rows = append(t.rows, row)
	}
}

// cell returns the trimmed value of column name in row, or an error when
// the row is too short.
func (t *table) cell(row []string, name string) (string, error) {
	i := t.cols[name]
	if i >= len(row) {
		return "", fmt.Errorf("short row: no %s", name)
	}
	return strings.TrimSpace(row[i]), nil
}

func (t *table) intCell(row []string, name string) (int, error) {
	s, err := t.cell(row, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", name, s, err)
	}
	return v, nil
}

func (t *table) floatCell(row []string, name string) (float64, error) {
	s, err := t.cell(row, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", name, s, err)
	}
	return v, nil
}

// ReadPatients parses a patient table. The age_group column is optional;
// when present it must agree with the age.
func ReadPatients(r io.Reader) ([]trial.Patient, error) {
	t, err := readTable(r, PatientHeader[:7])
	if err != nil {
		return nil, fmt.Errorf("patients: %w", err)
	}

	out := make([]trial.Patient, 0, len(t.rows))
	for i, row := range t.rows {
		p, err := t.patient(row)
		if err != nil {
			return nil, fmt.Errorf("patients row %d: %w", i+2, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (t *table) patient(row []string) (trial.Patient, error) {
	var p trial.Patient
	var err error

	if p.ID, err = t.intCell(row, "patient_id"); err != nil {
		return p, err
	}
	s, err := t.cell(row, "treatment")
	if err != nil {
		return p, err
	}
	if p.Arm, err = trial.ParseArm(s); err != nil {
		return p, err
	}
	if p.Age, err = t.intCell(row, "age"); err != nil {
		return p, err
	}
	if s, err = t.cell(row, "sex"); err != nil {
		return p, err
	}
	if p.Sex, err = trial.ParseSex(s); err != nil {
		return p, err
	}
	if p.BaselineRisk, err = t.floatCell(row, "baseline_risk"); err != nil {
		return p, err
	}
	if p.PrimaryOutcome, err = t.floatCell(row, "primary_outcome"); err != nil {
		return p, err
	}
	if p.SecondaryOutcome, err = t.floatCell(row, "secondary_outcome"); err != nil {
		return p, err
	}

	if _, ok := t.cols["age_group"]; ok {
		g, err := t.cell(row, "age_group")
		if err != nil {
			return p, err
		}
		if g != "" && trial.AgeBracket(g) != p.AgeBracket() {
			return p, fmt.Errorf("age_group %q does not match age %d", g, p.Age)
		}
	}
	return p, nil
}

// ReadObservations parses a biomarker table.
func ReadObservations(r io.Reader) ([]trial.Observation, error) {
	t, err := readTable(r, ObservationHeader)
	if err != nil {
		return nil, fmt.Errorf("biomarkers: %w", err)
	}

	out := make([]trial.Observation, 0, len(t.rows))
	for i, row := range t.rows {
		o, err := t.observation(row)
		if err != nil {
			return nil, fmt.Errorf("biomarkers row %d: %w", i+2, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (t *table) observation(row []string) (trial.Observation, error) {
	var o trial.Observation
	var err error

	if o.PatientID, err = t.intCell(row, "patient_id"); err != nil {
		return o, err
	}
	s, err := t.cell(row, "treatment")
	if err != nil {
		return o, err
	}
	if o.Arm, err = trial.ParseArm(s); err != nil {
		return o, err
	}
	if s, err = t.cell(row, "timepoint"); err != nil {
		return o, err
	}
	if o.Timepoint, err = trial.ParseTimepoint(s); err != nil {
		return o, err
	}
	if o.Value, err = t.floatCell(row, "biomarker_value"); err != nil {
		return o, err
	}
	return o, nil
}

// Save writes both tables into dir, creating it if needed.
func Save(dir string, ds trial.Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := writeFile(filepath.Join(dir, PatientsFile), func(w io.Writer) error {
		return WritePatients(w, ds.Patients)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, ObservationsFile), func(w io.Writer) error {
		return WriteObservations(w, ds.Observations)
	})
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(fh); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Load reads both tables from dir and validates them together.
func Load(dir string) (trial.Dataset, error) {
	var ds trial.Dataset

	pf, err := os.Open(filepath.Join(dir, PatientsFile))
	if err != nil {
		return ds, err
	}
	defer pf.Close()
	if ds.Patients, err = ReadPatients(pf); err != nil {
		return ds, err
	}

	of, err := os.Open(filepath.Join(dir, ObservationsFile))
	if err != nil {
		return ds, err
	}
	defer of.Close()
	if ds.Observations, err = ReadObservations(of); err != nil {
		return ds, err
	}

	if err := ds.Validate(); err != nil {
		return ds, fmt.Errorf("invalid dataset in %s: %w", dir, err)
	}
	return ds, nil
}
