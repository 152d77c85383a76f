package analysis

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// ErrNoDraws is returned when a posterior has no samples to summarize.
var ErrNoDraws = errors.New("no posterior draws")

// Estimate reduces the draws of one scalar quantity.
type Estimate struct {
	N               int
	Mean            float64
	Lower           float64
	Upper           float64
	ProbPositive    float64 // P(x > 0)
	ProbAbove       float64 // P(x > threshold)
	ProbNonPositive float64 // P(x <= 0)
}

// Summarize computes the mean, the equal-tailed credible interval at level
// and the tail probabilities of draws. Quantiles interpolate linearly
// between order statistics.
func Summarize(draws []float64, level, threshold float64) (Estimate, error) {
	if len(draws) == 0 {
		return Estimate{}, ErrNoDraws
	}
	if !(level > 0 && level < 1) {
		return Estimate{}, fmt.Errorf("credible level %v outside (0, 1)", level)
	}

	sorted := slices.Clone(draws)
	slices.Sort(sorted)
	tail := (1 - level) / 2

	var pos, nonPos, above int
	for _, x := range sorted {
		if x > 0 {
			pos++
		} else {
			nonPos++
		}
		if x > threshold {
			above++
		}
	}
	n := float64(len(sorted))

	return Estimate{
		N:               len(sorted),
		Mean:            stat.Mean(sorted, nil),
		Lower:           stat.Quantile(tail, stat.LinInterp, sorted, nil),
		Upper:           stat.Quantile(1-tail, stat.LinInterp, sorted, nil),
		ProbPositive:    float64(pos) / n,
		ProbAbove:       float64(above) / n,
		ProbNonPositive: float64(nonPos) / n,
	}, nil
}
