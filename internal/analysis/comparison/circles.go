// Package comparison computes Tukey-Kramer style comparison circles for
// category means and a one-way ANOVA across categories.
package comparison

import (
	"math"

	"catdist/domain/chart"
)

// Options configures the comparison.
type Options struct {
	Alpha     float64
	Reference string // category the per-circle flag compares against; empty means any
}

// Engine computes comparison circles from category summaries.
type Engine struct {
	opts Options
}

// NewEngine creates a comparison engine
func NewEngine(opts Options) *Engine {
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = 0.05
	}
	return &Engine{opts: opts}
}

// pooled is the error term shared by every circle.
type pooled struct {
	df     int
	groups int
	sumSq  float64
}

// poolVariance sums over categories with more than one observation and a
// defined standard deviation. StdDev is the population deviation, so
// count*stdDev^2 is the within-group sum of squares.
func poolVariance(summaries []chart.CategorySummary) pooled {
	var p pooled
	for _, s := range summaries {
		if s.Count > 1 && !math.IsNaN(s.StdDev) {
			p.df += s.Count - 1
			p.sumSq += float64(s.Count) * s.StdDev * s.StdDev
			p.groups++
		}
	}
	return p
}

// CriticalValue returns the studentized range quantile at 1-alpha divided by
// sqrt(2), or 0 when no meaningful comparison exists. The sqrt(2) scaling
// matches the reference comparison-circle rendering and is kept as is.
func CriticalValue(alpha float64, groups, df int) (scaled, raw float64) {
	if groups < 2 || df < 3 || df <= groups {
		return 0, 0
	}
	raw = StudentizedRangeQuantile(1-alpha, groups, float64(df))
	if math.IsNaN(raw) {
		return 0, 0
	}
	return raw / math.Sqrt2, raw
}

// Compare builds circles in the order of summaries.
func (e *Engine) Compare(summaries []chart.CategorySummary) chart.Comparison {
	p := poolVariance(summaries)
	q, raw := CriticalValue(e.opts.Alpha, p.groups, p.df)

	stdErr := math.NaN()
	if p.df > 0 {
		stdErr = p.sumSq / float64(p.df)
	}

	out := chart.Comparison{
		Alpha:         e.opts.Alpha,
		PooledStdErr:  stdErr,
		PooledRootMSE: math.Sqrt(stdErr),
		CriticalValue: q,
		RawCritical:   raw,
		DF:            p.df,
		Groups:        p.groups,
		Circles:       make([]chart.ComparisonCircle, len(summaries)),
		Significant:   make([][]bool, len(summaries)),
		AnovaP:        OneWayANOVA(summaries),
	}

	for i, s := range summaries {
		radius := math.NaN()
		if s.Count > 0 && !math.IsNaN(stdErr) {
			radius = q * math.Sqrt(stdErr/float64(s.Count))
		}
		out.Circles[i] = chart.ComparisonCircle{Category: s.Category, Center: s.Mean, Radius: radius}
		out.Significant[i] = make([]bool, len(summaries))
	}

	if !out.Displayable() {
		return out
	}

	for i := range out.Circles {
		for j := i + 1; j < len(out.Circles); j++ {
			sig := Different(out.Circles[i], out.Circles[j])
			out.Significant[i][j] = sig
			out.Significant[j][i] = sig
		}
	}

	ref := -1
	for i, s := range summaries {
		if e.opts.Reference != "" && s.Category == e.opts.Reference {
			ref = i
		}
	}
	for i := range out.Circles {
		if ref >= 0 {
			out.Circles[i].SignificantlyDifferent = out.Significant[i][ref]
			continue
		}
		for j := range out.Circles {
			if out.Significant[i][j] {
				out.Circles[i].SignificantlyDifferent = true
				break
			}
		}
	}
	return out
}

// Different applies the Pythagorean overlap test: two circles differ when
// their centers are further apart than the hypotenuse of their radii.
// Circles with undefined centers or radii never differ.
func Different(a, b chart.ComparisonCircle) bool {
	d := math.Abs(a.Center - b.Center)
	limit := math.Sqrt(a.Radius*a.Radius + b.Radius*b.Radius)
	if math.IsNaN(d) || math.IsNaN(limit) {
		return false
	}
	return d > limit
}
