package report

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"catdist/domain/chart"
	"catdist/internal/analysis/pipeline"
)

func fixture() *pipeline.Result {
	a := chart.NewCategorySummary("A")
	a.Present = chart.NewMetricSet(chart.MetricCount, chart.MetricMean)
	a.Count = 4
	a.Mean = 2.5
	b := chart.NewCategorySummary("B|C")
	b.Present = a.Present

	return &pipeline.Result{
		RequestID:  "req-1",
		Categories: []string{"A", "B|C"},
		Summaries:  []chart.CategorySummary{a, b},
		Metrics:    chart.NewMetricSet(chart.MetricCount, chart.MetricMean),
		Comparison: chart.Comparison{Groups: 1, AnovaP: chart.NotApplicable},
		Axis: pipeline.Axis{
			Mode:         chart.AxisAsinh,
			Ticks:        []float64{0, 1, 10},
			VisibleTicks: []float64{0, 10},
		},
	}
}

func TestMarkdownTable(t *testing.T) {
	md := Markdown("", fixture())

	assert.Contains(t, md, "# Category distribution")
	assert.Contains(t, md, "| category | count | mean |")
	assert.Contains(t, md, "| A | 4 | 2.5 |")
	assert.Contains(t, md, `| B\|C | 0 |  |`, "NaN mean renders blank")
	assert.Contains(t, md, "Not enough data for a comparison")
	assert.Contains(t, md, "Ticks: 0, 10")
}

func TestMarkdownComparison(t *testing.T) {
	res := fixture()
	res.Comparison = chart.Comparison{
		Alpha:         0.05,
		CriticalValue: 2.5,
		DF:            27,
		Groups:        3,
		AnovaP:        chart.NewPValue(0.001),
		Circles: []chart.ComparisonCircle{
			{Category: "A", Center: 5, Radius: 0.8, SignificantlyDifferent: true},
			{Category: "B|C", Center: 5, Radius: math.NaN()},
		},
	}

	md := Markdown("Run", res)

	assert.Contains(t, md, "ANOVA p 0.001")
	assert.Contains(t, md, "| A | 5 | 0.8 | yes |")
	assert.Contains(t, md, `| B\|C | 5 |  |  |`)
}

func TestHTML(t *testing.T) {
	out := string(HTML("Run", fixture()))

	assert.True(t, strings.Contains(out, "<h1"))
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>A</td>")
}
