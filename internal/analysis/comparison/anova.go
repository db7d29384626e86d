package comparison

import (
	"math"

	"catdist/domain/chart"

	"gonum.org/v1/gonum/stat/distuv"
)

// OneWayANOVA tests equality of category means from their summaries.
// Fewer than two categories with data, or no residual degrees of freedom,
// makes the test inapplicable rather than undefined.
func OneWayANOVA(summaries []chart.CategorySummary) chart.PValue {
	var groups, n int
	var total float64
	for _, s := range summaries {
		if s.Count > 0 && !math.IsNaN(s.Mean) {
			groups++
			n += s.Count
			total += float64(s.Count) * s.Mean
		}
	}
	if groups < 2 || n <= groups {
		return chart.NotApplicable
	}
	grand := total / float64(n)

	var ssb, ssw float64
	for _, s := range summaries {
		if s.Count == 0 || math.IsNaN(s.Mean) {
			continue
		}
		d := s.Mean - grand
		ssb += float64(s.Count) * d * d
		if !math.IsNaN(s.StdDev) {
			ssw += float64(s.Count) * s.StdDev * s.StdDev
		}
	}

	df1, df2 := float64(groups-1), float64(n-groups)
	if ssw == 0 {
		if ssb == 0 {
			return chart.NewPValue(math.NaN())
		}
		return chart.NewPValue(0)
	}
	f := (ssb / df1) / (ssw / df2)
	return chart.NewPValue(1 - distuv.F{D1: df1, D2: df2}.CDF(f))
}
