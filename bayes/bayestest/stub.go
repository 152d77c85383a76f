// Package bayestest provides a deterministic bayes.Fitter for tests.
package bayestest

import (
	"context"
	"sync"

	"github.com/rustyeddy/trialsim/bayes"
)

// Stub returns fixed draws without sampling. Columns holds the draws of
// named parameters; every other column is filled from Default. The draw
// count is the length of Default.
type Stub struct {
	Columns map[string][]float64
	Default []float64
	Err     error

	mu     sync.Mutex
	models []bayes.Model
}

// Fit records m and returns the configured draws.
func (s *Stub) Fit(ctx context.Context, m bayes.Model, prior bayes.Prior, opts bayes.Options) (*bayes.Fit, error) {
	s.mu.Lock()
	s.models = append(s.models, m)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	names := []string{bayes.InterceptName}
	terms := make([]string, 0, len(m.Terms))
	for _, t := range m.Terms {
		terms = append(terms, t.Name)
	}
	names = append(names, terms...)
	names = append(names, bayes.SigmaName)

	d := bayes.NewDraws(names...)
	for i := range s.Default {
		row := make([]float64, len(names))
		for j, name := range names {
			if col, ok := s.Columns[name]; ok && i < len(col) {
				row[j] = col[i]
			} else {
				row[j] = s.Default[i]
			}
		}
		d.Append(row)
	}

	return &bayes.Fit{
		Name:    m.Name,
		Formula: m.Formula(),
		Terms:   terms,
		Prior:   prior,
		Options: opts,
		Draws:   d,
	}, nil
}

// Models returns the models passed to Fit, in call order.
func (s *Stub) Models() []bayes.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bayes.Model(nil), s.models...)
}

// Ramp returns n evenly spaced values starting at from.
func Ramp(from, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

// Const returns n copies of v.
func Const(v float64, n int) []float64 {
	return Ramp(v, 0, n)
}
