// Package plots renders the trial's figures with gonum/plot. The output
// format follows the file extension (.pdf, .png, .svg).
package plots

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/rustyeddy/trialsim/analysis"
	"github.com/rustyeddy/trialsim/trial"
)

// Standard figure file names.
const (
	PosteriorFile          = "primary_outcome_posterior.pdf"
	ConditionalEffectsFile = "biomarker_conditional_effects.pdf"
	ForestFile             = "subgroup_forest_plot.pdf"
	BoxplotFile            = "primary_outcome_boxplot.png"
	TrajectoryFile         = "biomarker_trajectory.png"
)

var ErrNoData = errors.New("nothing to plot")

// errPoints feeds the error bar plotters.
type errPoints struct {
	plotter.XYs
	plotter.XErrors
	plotter.YErrors
}

func dashed(l *plotter.Line) {
	l.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
}

// vline is a vertical line at x spanning [y0, y1].
func vline(x, y0, y1 float64) (*plotter.Line, error) {
	return plotter.NewLine(plotter.XYs{{X: x, Y: y0}, {X: x, Y: y1}})
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// PosteriorDensity draws a normalized histogram of the treatment draws with
// the credible interval bounds (dashed) and zero (solid grey).
func PosteriorDensity(path string, draws []float64, est analysis.Estimate) error {
	if len(draws) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Posterior Distribution of Treatment Effect"
	p.X.Label.Text = "Treatment effect"
	p.Y.Label.Text = "Density"

	h, err := plotter.NewHist(plotter.Values(draws), 40)
	if err != nil {
		return err
	}
	h.Normalize(1)
	h.FillColor = color.RGBA{R: 120, G: 160, B: 210, A: 255}
	p.Add(h)

	top := 0.0
	for _, b := range h.Bins {
		top = math.Max(top, b.Weight)
	}

	for _, x := range []float64{est.Lower, est.Upper} {
		l, err := vline(x, 0, top)
		if err != nil {
			return err
		}
		dashed(l)
		p.Add(l)
	}
	mean, err := vline(est.Mean, 0, top)
	if err != nil {
		return err
	}
	mean.Width = vg.Points(1.5)
	zero, err := vline(0, 0, top)
	if err != nil {
		return err
	}
	zero.Color = color.Gray{Y: 128}
	p.Add(mean, zero)
	p.Legend.Add("mean", mean)

	return save(p, 8*vg.Inch, 6*vg.Inch, path)
}

// ConditionalEffects draws the fitted biomarker mean and its interval per
// arm over the time index, over the observed values.
func ConditionalEffects(path string, traj []analysis.Trajectory, obs []trial.Observation) error {
	if len(traj) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Biomarker by Treatment over Time"
	p.X.Label.Text = "Time index"
	p.Y.Label.Text = "Biomarker value"

	for i, arm := range trial.Arms {
		shift := 0.05 * float64(2*i-1)

		pts := lo.FilterMap(obs, func(o trial.Observation, _ int) (plotter.XY, bool) {
			return plotter.XY{X: float64(o.Timepoint.Index()) + shift, Y: o.Value}, o.Arm == arm
		})
		if len(pts) > 0 {
			s, err := plotter.NewScatter(plotter.XYs(pts))
			if err != nil {
				return err
			}
			c := plotutil.Color(i)
			r, g, b, _ := c.RGBA()
			s.Color = color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 77}
			s.Radius = vg.Points(1.5)
			p.Add(s)
		}

		var ep errPoints
		for _, t := range traj {
			if t.Arm != arm {
				continue
			}
			ep.XYs = append(ep.XYs, plotter.XY{X: float64(t.Time), Y: t.Mean})
			ep.YErrors = append(ep.YErrors, struct{ Low, High float64 }{t.Mean - t.Lower, t.Upper - t.Mean})
		}
		if len(ep.XYs) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(ep.XYs)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		bars, err := plotter.NewYErrorBars(ep)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(i)
		p.Add(line, points, bars)
		p.Legend.Add(string(arm), line, points)
	}

	return save(p, 10*vg.Inch, 6*vg.Inch, path)
}

// Forest draws one row per subgroup: the effect estimate with its interval
// and a dashed line at zero.
func Forest(path string, rows []analysis.SubgroupResult) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Treatment Effect by Subgroup"
	p.X.Label.Text = "Effect Size"
	p.Y.Label.Text = "Subgroup"

	var ep errPoints
	for i, r := range rows {
		ep.XYs = append(ep.XYs, plotter.XY{X: r.EffectSize, Y: float64(i)})
		ep.XErrors = append(ep.XErrors, struct{ Low, High float64 }{r.EffectSize - r.LowerCI, r.UpperCI - r.EffectSize})
	}

	s, err := plotter.NewScatter(ep.XYs)
	if err != nil {
		return err
	}
	s.Radius = vg.Points(3)
	bars, err := plotter.NewXErrorBars(ep)
	if err != nil {
		return err
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: -0.5}, {X: 0, Y: float64(len(rows)) - 0.5}})
	if err != nil {
		return err
	}
	dashed(zero)

	p.Add(zero, bars, s)
	p.NominalY(lo.Map(rows, func(r analysis.SubgroupResult, _ int) string { return r.Subgroup })...)

	return save(p, 8*vg.Inch, 6*vg.Inch, path)
}

// OutcomeBoxplot draws the primary outcome distribution of each arm.
func OutcomeBoxplot(path string, patients []trial.Patient) error {
	if len(patients) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Primary Outcome by Treatment Group"
	p.Y.Label.Text = "Primary outcome"

	byArm := lo.GroupBy(patients, func(pt trial.Patient) trial.Arm { return pt.Arm })
	var names []string
	for _, arm := range trial.Arms {
		ps, ok := byArm[arm]
		if !ok {
			continue
		}
		vals := lo.Map(ps, func(pt trial.Patient, _ int) float64 { return pt.PrimaryOutcome })
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(len(names)), plotter.Values(vals))
		if err != nil {
			return err
		}
		box.FillColor = plotutil.Color(len(names))
		p.Add(box)
		names = append(names, string(arm))
	}
	p.NominalX(names...)

	return save(p, 6*vg.Inch, 5*vg.Inch, path)
}

// BiomarkerTrajectory draws the observed biomarker mean of each arm per
// visit with a normal-approximation 95% interval.
func BiomarkerTrajectory(path string, obs []trial.Observation) error {
	if len(obs) == 0 {
		return ErrNoData
	}
	p := plot.New()
	p.Title.Text = "Biomarker Trajectory by Treatment Group"
	p.Y.Label.Text = "Biomarker value"

	type key struct {
		arm trial.Arm
		tp  trial.Timepoint
	}
	groups := lo.GroupBy(obs, func(o trial.Observation) key { return key{o.Arm, o.Timepoint} })

	for i, arm := range trial.Arms {
		var ep errPoints
		for _, tp := range trial.Timepoints {
			g, ok := groups[key{arm, tp}]
			if !ok {
				continue
			}
			vals := lo.Map(g, func(o trial.Observation, _ int) float64 { return o.Value })
			mean, half := stat.Mean(vals, nil), 0.0
			if len(vals) > 1 {
				half = 1.96 * stat.StdDev(vals, nil) / math.Sqrt(float64(len(vals)))
			}
			ep.XYs = append(ep.XYs, plotter.XY{X: float64(tp.Index()), Y: mean})
			ep.YErrors = append(ep.YErrors, struct{ Low, High float64 }{half, half})
		}
		if len(ep.XYs) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(ep.XYs)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		bars, err := plotter.NewYErrorBars(ep)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(i)
		p.Add(line, points, bars)
		p.Legend.Add(string(arm), line, points)
	}
	p.NominalX(lo.Map(trial.Timepoints, func(tp trial.Timepoint, _ int) string { return string(tp) })...)

	return save(p, 8*vg.Inch, 6*vg.Inch, path)
}
