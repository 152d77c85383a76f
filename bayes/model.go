// Package bayes defines the Bayesian regression contract consumed by the
// analysis pipeline and ships a Gibbs sampler that satisfies it.
package bayes

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConverged  = errors.New("sampler did not converge")
	ErrUnknownColumn = errors.New("unknown posterior column")
)

// InterceptName is the draw column of the model intercept.
const InterceptName = "Intercept"

// SigmaName is the draw column of the residual standard deviation.
const SigmaName = "sigma"

// Term is one fixed-effect predictor column.
type Term struct {
	Name string
	X    []float64
}

// Group adds a random intercept per group level and, when Slope is set, a
// random slope on that covariate.
type Group struct {
	Name  string
	Index []int // level of each row, 0..Levels-1
	Slope *Term
}

// Levels is one more than the largest index.
func (g *Group) Levels() int {
	n := 0
	for _, i := range g.Index {
		if i+1 > n {
			n = i + 1
		}
	}
	return n
}

// Model is a Gaussian linear model: Response ~ Intercept + Terms (+ Group).
type Model struct {
	Name     string
	Response string
	Y        []float64
	Terms    []Term
	Group    *Group
}

// Formula renders the model in the usual R-like notation.
func (m Model) Formula() string {
	parts := make([]string, 0, len(m.Terms)+1)
	for _, t := range m.Terms {
		parts = append(parts, t.Name)
	}
	if len(parts) == 0 {
		parts = append(parts, "1")
	}
	if g := m.Group; g != nil {
		slope := "1"
		if g.Slope != nil {
			slope = g.Slope.Name
		}
		parts = append(parts, fmt.Sprintf("(%s | %s)", slope, g.Name))
	}
	return m.Response + " ~ " + strings.Join(parts, " + ")
}

// Validate checks that every column has one value per response row.
func (m Model) Validate() error {
	n := len(m.Y)
	if n == 0 {
		return fmt.Errorf("model %s: no observations", m.Name)
	}
	seen := map[string]bool{InterceptName: true, SigmaName: true}
	for _, t := range m.Terms {
		if len(t.X) != n {
			return fmt.Errorf("model %s: term %s has %d rows, want %d", m.Name, t.Name, len(t.X), n)
		}
		if seen[t.Name] {
			return fmt.Errorf("model %s: duplicate term %s", m.Name, t.Name)
		}
		seen[t.Name] = true
	}
	if g := m.Group; g != nil {
		if len(g.Index) != n {
			return fmt.Errorf("model %s: group %s has %d rows, want %d", m.Name, g.Name, len(g.Index), n)
		}
		for _, i := range g.Index {
			if i < 0 {
				return fmt.Errorf("model %s: group %s has negative level", m.Name, g.Name)
			}
		}
		if g.Slope != nil && len(g.Slope.X) != n {
			return fmt.Errorf("model %s: group slope %s has %d rows, want %d", m.Name, g.Slope.Name, len(g.Slope.X), n)
		}
	}
	return nil
}

// Normal is a normal prior given by location and scale.
type Normal struct {
	Mean  float64 `json:"mean" yaml:"mean" toml:"mean"`
	Scale float64 `json:"scale" yaml:"scale" toml:"scale"`
}

// Prior configures the sampler's priors. Variances get inverse-gamma priors
// with the given shape and scale.
type Prior struct {
	Intercept    Normal  `json:"intercept" yaml:"intercept" toml:"intercept"`
	Coefficients Normal  `json:"coefficients" yaml:"coefficients" toml:"coefficients"`
	SigmaShape   float64 `json:"sigma_shape" yaml:"sigma_shape" toml:"sigma_shape"`
	SigmaScale   float64 `json:"sigma_scale" yaml:"sigma_scale" toml:"sigma_scale"`
	GroupShape   float64 `json:"group_shape" yaml:"group_shape" toml:"group_shape"`
	GroupScale   float64 `json:"group_scale" yaml:"group_scale" toml:"group_scale"`
}

func (p Prior) Validate() error {
	if p.Intercept.Scale <= 0 || p.Coefficients.Scale <= 0 {
		return fmt.Errorf("prior scales must be positive")
	}
	if p.SigmaShape <= 0 || p.SigmaScale <= 0 {
		return fmt.Errorf("sigma prior shape and scale must be positive")
	}
	if p.GroupShape <= 0 || p.GroupScale <= 0 {
		return fmt.Errorf("group prior shape and scale must be positive")
	}
	return nil
}

// Options controls a sampler run.
type Options struct {
	Chains     int     `json:"chains" yaml:"chains" toml:"chains"`
	Iterations int     `json:"iterations" yaml:"iterations" toml:"iterations"`
	Warmup     int     `json:"warmup" yaml:"warmup" toml:"warmup"`
	Seed       uint64  `json:"seed" yaml:"seed" toml:"seed"`
	MaxRhat    float64 `json:"max_rhat" yaml:"max_rhat" toml:"max_rhat"` // 0 disables the check
}

func (o Options) Validate() error {
	if o.Chains <= 0 {
		return fmt.Errorf("chains must be positive")
	}
	if o.Warmup < 0 || o.Iterations <= o.Warmup {
		return fmt.Errorf("iterations must exceed warmup")
	}
	return nil
}

// Fitter turns a model into posterior draws.
type Fitter interface {
	Fit(ctx context.Context, m Model, prior Prior, opts Options) (*Fit, error)
}

// Fit is a fitted model: its definition and the posterior draws.
type Fit struct {
	Name    string
	Formula string
	Terms   []string
	Prior   Prior
	Options Options
	Draws   Draws
}
