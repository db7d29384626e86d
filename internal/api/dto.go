package api

import (
	"math"
	"strconv"

	"catdist/domain/chart"
	"catdist/internal/analysis/pipeline"
)

// num is a float that encodes NaN and infinities as JSON null.
type num float64

func (n num) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func nums(fs []float64) []num {
	out := make([]num, len(fs))
	for i, f := range fs {
		out[i] = num(f)
	}
	return out
}

// rowDTO is one input row. A null or missing y is treated as missing data.
type rowDTO struct {
	Y        *float64 `json:"y"`
	Category string   `json:"category"`
	Trellis  string   `json:"trellis,omitempty"`
	Marked   bool     `json:"marked,omitempty"`
	Color    string   `json:"color,omitempty"`
}

func (r rowDTO) toRow() chart.Row {
	y := math.NaN()
	if r.Y != nil {
		y = *r.Y
	}
	return chart.Row{Y: y, Category: r.Category, Trellis: r.Trellis, Marked: r.Marked, Color: r.Color}
}

type summaryDTO struct {
	Category string         `json:"category"`
	Metrics  map[string]num `json:"metrics"`
}

type pointDTO struct {
	Value   num `json:"value"`
	Density num `json:"density"`
}

type segmentDTO struct {
	Start  int  `json:"start"`
	End    int  `json:"end"`
	Marked bool `json:"marked"`
	Gap    bool `json:"gap"`
	Count  int  `json:"count"`
}

type densityDTO struct {
	Category  string       `json:"category"`
	Bandwidth num          `json:"bandwidth"`
	Points    []pointDTO   `json:"points"`
	Segments  []segmentDTO `json:"segments"`
}

type circleDTO struct {
	Category    string `json:"category"`
	Center      num    `json:"center"`
	Radius      num    `json:"radius"`
	Significant bool   `json:"significantlyDifferent"`
}

type comparisonDTO struct {
	Displayable   bool         `json:"displayable"`
	Alpha         num          `json:"alpha"`
	CriticalValue num          `json:"criticalValue"`
	PooledStdErr  num          `json:"pooledStdErr"`
	DF            int          `json:"df"`
	Groups        int          `json:"groups"`
	AnovaP        chart.PValue `json:"anovaP"`
	Circles       []circleDTO  `json:"circles"`
	Significant   [][]bool     `json:"significant"`
}

type axisDTO struct {
	Mode          chart.AxisMode `json:"mode"`
	Min           num            `json:"min"`
	Max           num            `json:"max"`
	LinearPortion num            `json:"linearPortion"`
	Ticks         []num          `json:"ticks"`
	VisibleTicks  []num          `json:"visibleTicks"`
}

type chartDTO struct {
	RequestID    string        `json:"requestId"`
	SettingsHash string        `json:"settingsHash"`
	Categories   []string      `json:"categories"`
	Summaries    []summaryDTO  `json:"summaries"`
	Densities    []densityDTO  `json:"densities"`
	Comparison   comparisonDTO `json:"comparison"`
	Axis         axisDTO       `json:"axis"`
	ElapsedMS    int64         `json:"elapsedMs"`
}

type panelDTO struct {
	Name  string   `json:"name"`
	Chart chartDTO `json:"chart"`
}

type chartResponse struct {
	chartDTO
	Panels []panelDTO `json:"panels,omitempty"`
}

func toChartDTO(res *pipeline.Result) chartDTO {
	out := chartDTO{
		RequestID:    res.RequestID.String(),
		SettingsHash: res.SettingsHash.Short(),
		Categories:   res.Categories,
		Summaries:    make([]summaryDTO, len(res.Summaries)),
		Densities:    make([]densityDTO, len(res.Densities)),
		ElapsedMS:    res.Elapsed.Milliseconds(),
	}
	for i, s := range res.Summaries {
		m := make(map[string]num)
		for _, metric := range s.Present.Metrics() {
			v, _ := s.Value(metric)
			m[metric.String()] = num(v)
		}
		out.Summaries[i] = summaryDTO{Category: s.Category, Metrics: m}
	}
	for i, d := range res.Densities {
		dd := densityDTO{
			Category:  d.Category,
			Bandwidth: num(d.Bandwidth),
			Points:    make([]pointDTO, len(d.All)),
			Segments:  make([]segmentDTO, len(d.Segments)),
		}
		for j, p := range d.All {
			dd.Points[j] = pointDTO{Value: num(p.Value), Density: num(p.Density)}
		}
		for j, seg := range d.Segments {
			dd.Segments[j] = segmentDTO{Start: seg.Start, End: seg.End, Marked: seg.Marked, Gap: seg.IsGap, Count: seg.Count}
		}
		out.Densities[i] = dd
	}

	c := res.Comparison
	out.Comparison = comparisonDTO{
		Displayable:   c.Displayable(),
		Alpha:         num(c.Alpha),
		CriticalValue: num(c.CriticalValue),
		PooledStdErr:  num(c.PooledStdErr),
		DF:            c.DF,
		Groups:        c.Groups,
		AnovaP:        c.AnovaP,
		Circles:       make([]circleDTO, len(c.Circles)),
		Significant:   c.Significant,
	}
	for i, circle := range c.Circles {
		out.Comparison.Circles[i] = circleDTO{
			Category:    circle.Category,
			Center:      num(circle.Center),
			Radius:      num(circle.Radius),
			Significant: circle.SignificantlyDifferent,
		}
	}

	out.Axis = axisDTO{
		Mode:          res.Axis.Mode,
		Min:           num(res.Axis.Min),
		Max:           num(res.Axis.Max),
		LinearPortion: num(res.Axis.LinearPortion),
		Ticks:         nums(res.Axis.Ticks),
		VisibleTicks:  nums(res.Axis.VisibleTicks),
	}
	return out
}
