// Package fence computes per-category box-plot statistics: moments,
// quartiles, Tukey fences, adjacent values and outlier counts.
package fence

import (
	"math"
	"sort"

	"catdist/domain/chart"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Options controls which statistics are computed and how values are filtered.
type Options struct {
	Metrics    chart.MetricSet
	Axis       chart.AxisMode
	Confidence float64 // level for the mean's confidence interval, default 0.95
}

// DefaultOptions requests every metric on a linear axis.
func DefaultOptions() Options {
	return Options{Metrics: chart.FullMetricSet(), Axis: chart.AxisLinear, Confidence: 0.95}
}

// Computer produces CategorySummary values. It holds no state between calls.
type Computer struct {
	opts Options
}

// NewComputer creates a summary computer
func NewComputer(opts Options) *Computer {
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		opts.Confidence = 0.95
	}
	return &Computer{opts: opts}
}

// Values extracts the sorted values StatFence works on: NaN is dropped and,
// on a log axis, so are values <= 0.
func Values(rows []chart.Row, axis chart.AxisMode) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.Y) {
			continue
		}
		if axis.ExcludesNonPositive() && r.Y <= 0 {
			continue
		}
		out = append(out, r.Y)
	}
	sort.Float64s(out)
	return out
}

// Summarize computes the requested statistics for one category.
func (c *Computer) Summarize(category string, rows []chart.Row) chart.CategorySummary {
	return c.SummarizeValues(category, Values(rows, c.opts.Axis))
}

// SummarizeValues works on already filtered, ascending values.
func (c *Computer) SummarizeValues(category string, sorted []float64) chart.CategorySummary {
	want := c.opts.Metrics
	s := chart.NewCategorySummary(category)
	s.Present = want

	if want.Has(chart.MetricCount) {
		s.Count = len(sorted)
	}
	if want.Has(chart.MetricSum) {
		s.Sum = orNaN(stats.Sum(sorted))
	}
	if want.Has(chart.MetricMean) {
		s.Mean = orNaN(stats.Mean(sorted))
	}
	if want.Has(chart.MetricStdDev) {
		s.StdDev = orNaN(stats.StandardDeviationPopulation(sorted))
	}
	if want.Has(chart.MetricMin) {
		s.Min = orNaN(stats.Min(sorted))
	}
	if want.Has(chart.MetricMax) {
		s.Max = orNaN(stats.Max(sorted))
	}

	// Quartiles are only computed when asked for; everything derived from
	// them silently becomes NaN otherwise.
	q1, q3 := math.NaN(), math.NaN()
	if want.Has(chart.MetricQ1) {
		q1 = Quantile(sorted, 0.25)
		s.Q1 = q1
	}
	if want.Has(chart.MetricMedian) {
		s.Median = Quantile(sorted, 0.5)
	}
	if want.Has(chart.MetricQ3) {
		q3 = Quantile(sorted, 0.75)
		s.Q3 = q3
	}

	iqr := q3 - q1
	f := Fences(q1, q3)
	if want.Has(chart.MetricIQR) {
		s.IQR = iqr
	}
	if want.Has(chart.MetricLIF) {
		s.LIF = f.LIF
	}
	if want.Has(chart.MetricUIF) {
		s.UIF = f.UIF
	}
	if want.Has(chart.MetricLOF) {
		s.LOF = f.LOF
	}
	if want.Has(chart.MetricUOF) {
		s.UOF = f.UOF
	}

	lav, uav := AdjacentValues(sorted, q1, q3)
	if want.Has(chart.MetricLAV) {
		s.LAV = lav
	}
	if want.Has(chart.MetricUAV) {
		s.UAV = uav
	}

	outliers := CountOutliers(sorted, lav, uav)
	if want.Has(chart.MetricOutlierCount) {
		s.OutlierCount = outliers
	}
	if want.Has(chart.MetricOutlierPct) {
		if len(sorted) > 0 && !(math.IsNaN(lav) && math.IsNaN(uav)) {
			s.OutlierPct = float64(outliers) / float64(len(sorted))
		}
	}

	if want.Has(chart.MetricConfidenceLow) || want.Has(chart.MetricConfidenceHigh) {
		lo, hi := c.meanInterval(sorted)
		if want.Has(chart.MetricConfidenceLow) {
			s.ConfidenceLow = lo
		}
		if want.Has(chart.MetricConfidenceHigh) {
			s.ConfidenceHigh = hi
		}
	}

	return s
}

// meanInterval is the two-sided Student t interval for the mean.
func (c *Computer) meanInterval(sorted []float64) (float64, float64) {
	n := len(sorted)
	if n < 2 {
		return math.NaN(), math.NaN()
	}
	mean := orNaN(stats.Mean(sorted))
	sd := orNaN(stats.StandardDeviationSample(sorted))
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(1 - (1-c.opts.Confidence)/2)
	half := t * sd / math.Sqrt(float64(n))
	return mean - half, mean + half
}

func orNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}
