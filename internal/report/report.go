// Package report renders a computed chart as a markdown summary and, from
// that, as HTML.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"catdist/domain/chart"
	"catdist/internal/analysis/pipeline"
)

// Markdown renders the per-category statistics table, the comparison
// circles and the axis ticks. NaN cells are left blank.
func Markdown(title string, res *pipeline.Result) string {
	var b strings.Builder
	if title == "" {
		title = "Category distribution"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Request `%s`, %d categories, axis %s.\n\n", res.RequestID, len(res.Categories), res.Axis.Mode)

	writeSummaryTable(&b, res)
	writeComparison(&b, res.Comparison)

	if len(res.Axis.Ticks) > 0 {
		b.WriteString("## Axis\n\n")
		ticks := make([]string, len(res.Axis.VisibleTicks))
		for i, t := range res.Axis.VisibleTicks {
			ticks[i] = formatFloat(t)
		}
		fmt.Fprintf(&b, "Ticks: %s\n", strings.Join(ticks, ", "))
	}
	return b.String()
}

func writeSummaryTable(b *strings.Builder, res *pipeline.Result) {
	metrics := res.Metrics.Metrics()
	if len(metrics) == 0 || len(res.Summaries) == 0 {
		return
	}
	b.WriteString("## Statistics\n\n| category |")
	for _, m := range metrics {
		fmt.Fprintf(b, " %s |", m)
	}
	b.WriteString("\n|---|")
	for range metrics {
		b.WriteString("---:|")
	}
	b.WriteString("\n")
	for _, s := range res.Summaries {
		fmt.Fprintf(b, "| %s |", escapeCell(s.Category))
		for _, m := range metrics {
			v, ok := s.Value(m)
			cell := ""
			if ok {
				cell = formatFloat(v)
			}
			fmt.Fprintf(b, " %s |", cell)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeComparison(b *strings.Builder, c chart.Comparison) {
	b.WriteString("## Comparison circles\n\n")
	if !c.Displayable() {
		fmt.Fprintf(b, "Not enough data for a comparison (groups %d, df %d).\n\n", c.Groups, c.DF)
		return
	}
	fmt.Fprintf(b, "Alpha %s, critical value %s, df %d, ANOVA p %s.\n\n",
		formatFloat(c.Alpha), formatFloat(c.CriticalValue), c.DF, c.AnovaP)
	b.WriteString("| category | center | radius | different |\n|---|---:|---:|:---:|\n")
	for _, circle := range c.Circles {
		mark := ""
		if circle.SignificantlyDifferent {
			mark = "yes"
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			escapeCell(circle.Category), formatFloat(circle.Center), formatFloat(circle.Radius), mark)
	}
	b.WriteString("\n")
}

// HTML converts the markdown report.
func HTML(title string, res *pipeline.Result) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(Markdown(title, res)))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
