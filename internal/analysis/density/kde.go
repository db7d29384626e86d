// Package density estimates per-category kernel densities and splits them
// into marked, unmarked and gap segments for violin rendering.
package density

import (
	"math"
	"sort"

	"catdist/domain/chart"
	"catdist/internal/analysis/guard"

	mstats "github.com/aclements/go-moremath/stats"
)

// checkEvery is how many density evaluations run between guard checks.
const checkEvery = 256

// tailBandwidths extends an unlimited curve this many bandwidths past the data.
const tailBandwidths = 3

// Options configures curve evaluation.
type Options struct {
	BandwidthFactor float64 // bandwidth = (max - min) * factor
	Resolution      int     // evenly spaced evaluation points
	LimitToExtents  bool    // restrict the support to [min, max]
	Axis            chart.AxisMode
}

// DefaultOptions mirrors the chart defaults: violins are trimmed to the data.
func DefaultOptions() Options {
	return Options{BandwidthFactor: 0.1, Resolution: 100, LimitToExtents: true, Axis: chart.AxisLinear}
}

// Bandwidth derives the kernel bandwidth from a category's extent.
func Bandwidth(min, max, factor float64) float64 {
	return (max - min) * factor
}

// bandwidthFor picks the category bandwidth, falling back to the global
// extent and finally to the magnitude of the data for constant samples.
func (s *Segmenter) bandwidthFor(sorted []float64, g Global) float64 {
	factor := s.opts.BandwidthFactor
	bw := Bandwidth(sorted[0], sorted[len(sorted)-1], factor)
	if bw > 0 {
		return bw
	}
	if bw = Bandwidth(g.MinY, g.MaxY, factor); bw > 0 {
		return bw
	}
	return factor * math.Max(math.Abs(sorted[0]), 1)
}

// evaluationPoints merges an even grid with every distinct data value so each
// run of rows is guaranteed at least one point on the curve.
func (s *Segmenter) evaluationPoints(sorted []float64, bw float64) []float64 {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if !s.opts.LimitToExtents {
		lo -= tailBandwidths * bw
		hi += tailBandwidths * bw
	}

	n := s.opts.Resolution
	if n < 2 {
		n = 2
	}
	xs := make([]float64, 0, n+len(sorted))
	if hi > lo {
		step := (hi - lo) / float64(n-1)
		for i := 0; i < n-1; i++ {
			xs = append(xs, lo+float64(i)*step)
		}
		xs = append(xs, hi)
	} else {
		xs = append(xs, lo)
	}
	xs = append(xs, sorted...)
	sort.Float64s(xs)

	out := xs[:0]
	for i, x := range xs {
		if i > 0 && x == out[len(out)-1] {
			continue
		}
		out = append(out, x)
	}
	return out
}

// Curve evaluates the kernel density of sorted values. Points with NaN
// density are dropped, as are non-positive values on a log axis.
func (s *Segmenter) Curve(gd guard.Guard, sorted []float64, bw float64) ([]chart.DensityPoint, error) {
	if len(sorted) == 0 {
		return nil, nil
	}
	kde := &mstats.KDE{
		Sample:    mstats.Sample{Xs: sorted, Sorted: true},
		Bandwidth: bw,
	}

	xs := s.evaluationPoints(sorted, bw)
	points := make([]chart.DensityPoint, 0, len(xs))
	for i, x := range xs {
		if i%checkEvery == 0 {
			if err := gd.Check("density"); err != nil {
				return nil, err
			}
		}
		if s.opts.Axis.ExcludesNonPositive() && x <= 0 {
			continue
		}
		d := kde.PDF(x)
		if math.IsNaN(d) {
			continue
		}
		points = append(points, chart.DensityPoint{Value: x, Density: d})
	}
	return points, nil
}
