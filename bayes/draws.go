package bayes

import (
	"encoding/gob"
	"fmt"
	"os"
	"slices"
)

// Draws is a table of posterior samples with one named column per
// parameter. Rows are pooled across chains in chain order.
type Draws struct {
	Names  []string
	Values [][]float64
}

// NewDraws returns an empty table with the given columns.
func NewDraws(names ...string) Draws {
	return Draws{
		Names:  slices.Clone(names),
		Values: make([][]float64, len(names)),
	}
}

// Append adds one draw. row must have one value per column.
func (d *Draws) Append(row []float64) {
	if len(row) != len(d.Names) {
		panic(fmt.Sprintf("bayes: draw has %d values, want %d", len(row), len(d.Names)))
	}
	for j, v := range row {
		d.Values[j] = append(d.Values[j], v)
	}
}

// Len is the number of draws.
func (d Draws) Len() int {
	if len(d.Values) == 0 {
		return 0
	}
	return len(d.Values[0])
}

// Column returns the samples of a parameter. The slice is shared with d.
func (d Draws) Column(name string) ([]float64, error) {
	i := slices.Index(d.Names, name)
	if i < 0 {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownColumn, name, d.Names)
	}
	return d.Values[i], nil
}

// Save writes the fit as a gob stream.
func (f *Fit) Save(path string) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model artifact: %w", err)
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	if err := gob.NewEncoder(fh).Encode(f); err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}
	return nil
}

// Load reads a fit written by Save.
func Load(path string) (*Fit, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer fh.Close()

	var f Fit
	if err := gob.NewDecoder(fh).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return &f, nil
}
