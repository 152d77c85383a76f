package bayes

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Gibbs is a blocked Gibbs sampler for Gaussian linear models with an
// optional random intercept and slope per group.
//
// Coefficients get independent normal priors; the residual variance and
// each group variance get inverse-gamma priors. Each chain reads from its
// own PCG stream derived from Options.Seed, so a fit is reproducible.
type Gibbs struct {
	logger *zap.Logger
}

// NewGibbs returns a sampler logging to logger (nil for none).
func NewGibbs(logger *zap.Logger) *Gibbs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gibbs{logger: logger}
}

// Fit runs every chain, pools the post-warmup draws and checks R-hat of the
// fixed effects.
func (g *Gibbs) Fit(ctx context.Context, m Model, prior Prior, opts Options) (*Fit, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := prior.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", m.Name, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", m.Name, err)
	}

	s := newSampler(m, prior)
	names := s.columns()
	pooled := NewDraws(names...)
	chains := make([]Draws, opts.Chains)

	g.logger.Debug("sampling",
		zap.String("model", m.Name),
		zap.String("formula", m.Formula()),
		zap.Int("rows", s.n),
		zap.Int("chains", opts.Chains),
		zap.Int("iterations", opts.Iterations))

	for c := range chains {
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(c)+1))
		chain, err := s.run(ctx, rng, opts, names)
		if err != nil {
			return nil, fmt.Errorf("model %s chain %d: %w", m.Name, c+1, err)
		}
		chains[c] = chain
		for i := 0; i < chain.Len(); i++ {
			row := make([]float64, len(names))
			for j := range names {
				row[j] = chain.Values[j][i]
			}
			pooled.Append(row)
		}
	}

	if opts.MaxRhat > 0 && opts.Chains > 1 {
		for j := 0; j < s.p; j++ {
			r := rhat(chains, j)
			if r > opts.MaxRhat {
				return nil, fmt.Errorf("model %s: %w: R-hat of %s is %.3f (max %.3f)",
					m.Name, ErrNotConverged, names[j], r, opts.MaxRhat)
			}
		}
	}

	return &Fit{
		Name:    m.Name,
		Formula: m.Formula(),
		Terms:   s.terms,
		Prior:   prior,
		Options: opts,
		Draws:   pooled,
	}, nil
}

type sampler struct {
	n, p  int
	terms []string
	y     []float64
	x     *mat.Dense
	xtx   *mat.SymDense

	m0, p0 []float64 // prior mean and precision of the coefficients
	prior  Prior

	group  *Group
	q      int // random effects per level: 1 or 2
	levels int
	rows   [][]int
	ztz    []*mat.SymDense
}

func newSampler(m Model, prior Prior) *sampler {
	n, p := len(m.Y), len(m.Terms)+1
	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, t := range m.Terms {
			x.Set(i, j+1, t.X[i])
		}
	}
	xtx := mat.NewSymDense(p, nil)
	xtx.SymOuterK(1, x.T())

	m0 := make([]float64, p)
	p0 := make([]float64, p)
	m0[0] = prior.Intercept.Mean
	p0[0] = 1 / (prior.Intercept.Scale * prior.Intercept.Scale)
	for j := 1; j < p; j++ {
		m0[j] = prior.Coefficients.Mean
		p0[j] = 1 / (prior.Coefficients.Scale * prior.Coefficients.Scale)
	}

	s := &sampler{n: n, p: p, y: m.Y, x: x, xtx: xtx, m0: m0, p0: p0, prior: prior}
	for _, t := range m.Terms {
		s.terms = append(s.terms, t.Name)
	}

	if g := m.Group; g != nil {
		s.group = g
		s.q = 1
		if g.Slope != nil {
			s.q = 2
		}
		s.levels = g.Levels()
		s.rows = make([][]int, s.levels)
		for i, l := range g.Index {
			s.rows[l] = append(s.rows[l], i)
		}
		s.ztz = make([]*mat.SymDense, s.levels)
		for l, rows := range s.rows {
			z := mat.NewSymDense(s.q, nil)
			for _, i := range rows {
				zi := s.z(i)
				for a := 0; a < s.q; a++ {
					for b := a; b < s.q; b++ {
						z.SetSym(a, b, z.At(a, b)+zi[a]*zi[b])
					}
				}
			}
			s.ztz[l] = z
		}
	}
	return s
}

// z is the random-effects design row of observation i.
func (s *sampler) z(i int) [2]float64 {
	if s.q == 2 {
		return [2]float64{1, s.group.Slope.X[i]}
	}
	return [2]float64{1, 0}
}

func (s *sampler) columns() []string {
	names := append([]string{InterceptName}, s.terms...)
	names = append(names, SigmaName)
	if s.group != nil {
		names = append(names, "sd_"+s.group.Name+"__"+InterceptName)
		if s.q == 2 {
			names = append(names, "sd_"+s.group.Name+"__"+s.group.Slope.Name)
		}
	}
	return names
}

// run draws one chain and returns its post-warmup samples.
func (s *sampler) run(ctx context.Context, rng *rand.Rand, opts Options, names []string) (Draws, error) {
	out := NewDraws(names...)

	beta := append([]float64(nil), s.m0...)
	sigma2 := stat.Variance(s.y, nil)
	if !(sigma2 > 0) {
		sigma2 = 1
	}
	var b [][2]float64
	tau2 := [2]float64{1, 1}
	if s.group != nil {
		b = make([][2]float64, s.levels)
	}

	xb := mat.NewVecDense(s.n, nil)

	for it := 0; it < opts.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return Draws{}, err
		}

		// Coefficients, with the group effects integrated out when present.
		if s.group == nil {
			if err := s.drawBeta(rng, beta, s.y, sigma2); err != nil {
				return Draws{}, err
			}
		} else if err := s.drawBetaMarginal(rng, beta, sigma2, tau2); err != nil {
			return Draws{}, err
		}
		xb.MulVec(s.x, mat.NewVecDense(s.p, beta))

		// Group effects and their variances.
		if s.group != nil {
			if err := s.drawGroups(rng, b, xb, sigma2, tau2); err != nil {
				return Draws{}, err
			}
			for k := 0; k < s.q; k++ {
				ss := 0.0
				for l := range b {
					ss += b[l][k] * b[l][k]
				}
				tau2[k] = distuv.InverseGamma{
					Alpha: s.prior.GroupShape + float64(s.levels)/2,
					Beta:  s.prior.GroupScale + ss/2,
					Src:   rng,
				}.Rand()
			}
		}

		// Residual variance.
		sse := 0.0
		for i := 0; i < s.n; i++ {
			e := s.y[i] - xb.AtVec(i) - s.groupPart(b, i)
			sse += e * e
		}
		sigma2 = distuv.InverseGamma{
			Alpha: s.prior.SigmaShape + float64(s.n)/2,
			Beta:  s.prior.SigmaScale + sse/2,
			Src:   rng,
		}.Rand()

		if it < opts.Warmup {
			continue
		}
		row := append([]float64(nil), beta...)
		row = append(row, math.Sqrt(sigma2))
		for k := 0; k < s.q; k++ {
			row = append(row, math.Sqrt(tau2[k]))
		}
		out.Append(row)
	}
	return out, nil
}

func (s *sampler) groupPart(b [][2]float64, i int) float64 {
	if s.group == nil {
		return 0
	}
	l := s.group.Index[i]
	zi := s.z(i)
	return b[l][0]*zi[0] + b[l][1]*zi[1]
}

// drawBeta samples the coefficients of a model without groups.
func (s *sampler) drawBeta(rng *rand.Rand, beta, r []float64, sigma2 float64) error {
	prec := mat.NewSymDense(s.p, nil)
	rhs := mat.NewVecDense(s.p, nil)
	xtr := mat.NewVecDense(s.p, nil)
	xtr.MulVec(s.x.T(), mat.NewVecDense(s.n, r))

	for a := 0; a < s.p; a++ {
		for c := a; c < s.p; c++ {
			v := s.xtx.At(a, c) / sigma2
			if a == c {
				v += s.p0[a]
			}
			prec.SetSym(a, c, v)
		}
		rhs.SetVec(a, s.p0[a]*s.m0[a]+xtr.AtVec(a)/sigma2)
	}

	draw, err := drawPrecision(rng, prec, rhs)
	if err != nil {
		return fmt.Errorf("coefficients: %w", err)
	}
	copy(beta, draw)
	return nil
}

// drawBetaMarginal samples the coefficients from p(beta | y, sigma2, tau2)
// with the group effects integrated out. Each level contributes
// X'V⁻¹X and X'V⁻¹y with V = Z diag(tau2) Z' + sigma2 I. Followed by
// drawGroups this is a joint draw of beta and the group effects.
func (s *sampler) drawBetaMarginal(rng *rand.Rand, beta []float64, sigma2 float64, tau2 [2]float64) error {
	acc := mat.NewDense(s.p, s.p, nil)
	rhs := mat.NewVecDense(s.p, nil)
	for a := 0; a < s.p; a++ {
		acc.Set(a, a, s.p0[a])
		rhs.SetVec(a, s.p0[a]*s.m0[a])
	}

	for l, rows := range s.rows {
		k := len(rows)
		if k == 0 {
			continue
		}
		v := mat.NewSymDense(k, nil)
		xl := mat.NewDense(k, s.p, nil)
		yl := mat.NewVecDense(k, nil)
		for a, i := range rows {
			za := s.z(i)
			for c := a; c < k; c++ {
				zc := s.z(rows[c])
				cov := 0.0
				for q := 0; q < s.q; q++ {
					cov += za[q] * zc[q] * tau2[q]
				}
				if a == c {
					cov += sigma2
				}
				v.SetSym(a, c, cov)
			}
			xl.SetRow(a, s.x.RawRowView(i))
			yl.SetVec(a, s.y[i])
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(v); !ok {
			return fmt.Errorf("group %s level %d: covariance is not positive definite", s.group.Name, l)
		}
		var vx mat.Dense
		if err := chol.SolveTo(&vx, xl); err != nil {
			return err
		}
		var vy mat.VecDense
		if err := chol.SolveVecTo(&vy, yl); err != nil {
			return err
		}
		var xvx mat.Dense
		xvx.Mul(xl.T(), &vx)
		acc.Add(acc, &xvx)
		var xvy mat.VecDense
		xvy.MulVec(xl.T(), &vy)
		rhs.AddVec(rhs, &xvy)
	}

	prec := mat.NewSymDense(s.p, nil)
	for a := 0; a < s.p; a++ {
		for c := a; c < s.p; c++ {
			prec.SetSym(a, c, (acc.At(a, c)+acc.At(c, a))/2)
		}
	}
	draw, err := drawPrecision(rng, prec, rhs)
	if err != nil {
		return fmt.Errorf("coefficients: %w", err)
	}
	copy(beta, draw)
	return nil
}

func (s *sampler) drawGroups(rng *rand.Rand, b [][2]float64, xb *mat.VecDense, sigma2 float64, tau2 [2]float64) error {
	for l, rows := range s.rows {
		prec := mat.NewSymDense(s.q, nil)
		rhs := mat.NewVecDense(s.q, nil)
		for a := 0; a < s.q; a++ {
			for c := a; c < s.q; c++ {
				v := s.ztz[l].At(a, c) / sigma2
				if a == c {
					v += 1 / tau2[a]
				}
				prec.SetSym(a, c, v)
			}
		}
		for _, i := range rows {
			zi := s.z(i)
			e := s.y[i] - xb.AtVec(i)
			for a := 0; a < s.q; a++ {
				rhs.SetVec(a, rhs.AtVec(a)+zi[a]*e/sigma2)
			}
		}
		draw, err := drawPrecision(rng, prec, rhs)
		if err != nil {
			return fmt.Errorf("group %s level %d: %w", s.group.Name, l, err)
		}
		b[l] = [2]float64{}
		copy(b[l][:], draw)
	}
	return nil
}

// drawPrecision samples N(P⁻¹h, P⁻¹) for precision P and linear term h.
func drawPrecision(rng *rand.Rand, prec *mat.SymDense, h *mat.VecDense) ([]float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(prec); !ok {
		return nil, fmt.Errorf("precision matrix is not positive definite")
	}
	var mu mat.VecDense
	if err := chol.SolveVecTo(&mu, h); err != nil {
		return nil, err
	}
	dist, ok := distmv.NewNormalPrecision(mu.RawVector().Data, prec, rng)
	if !ok {
		return nil, fmt.Errorf("precision matrix is not positive definite")
	}
	return dist.Rand(nil), nil
}

// rhat is the Gelman-Rubin potential scale reduction of column j.
func rhat(chains []Draws, j int) float64 {
	m := float64(len(chains))
	n := float64(chains[0].Len())
	if n < 2 {
		return 1
	}
	means := make([]float64, len(chains))
	w := 0.0
	for c, ch := range chains {
		mean, v := stat.MeanVariance(ch.Values[j], nil)
		means[c] = mean
		w += v
	}
	w /= m
	if w == 0 {
		return 1
	}
	bOverN := stat.Variance(means, nil)
	varPlus := (n-1)/n*w + bOverN
	return math.Sqrt(varPlus / w)
}
