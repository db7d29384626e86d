package chart

import (
	"math"

	"catdist/domain/core"
)

// Row is one observation as delivered by the data-access layer.
// Source is an opaque back-reference owned by that layer and is never mutated here.
type Row struct {
	ID       core.RowID `json:"id"`
	Y        float64    `json:"y"`
	Category string     `json:"category"`
	Trellis  string     `json:"trellis,omitempty"`
	Marked   bool       `json:"marked"`
	Color    string     `json:"color,omitempty"`
	Source   any        `json:"-"`
}

// AxisMode selects how the value axis is displayed.
type AxisMode string

const (
	AxisLinear AxisMode = "linear"
	AxisLog    AxisMode = "log"
	AxisAsinh  AxisMode = "asinh"
)

// ParseAxisMode returns AxisLinear for unknown input.
func ParseAxisMode(s string) AxisMode {
	switch AxisMode(s) {
	case AxisLog:
		return AxisLog
	case AxisAsinh:
		return AxisAsinh
	default:
		return AxisLinear
	}
}

// ExcludesNonPositive reports whether values <= 0 cannot be displayed.
func (m AxisMode) ExcludesNonPositive() bool {
	return m == AxisLog
}

// CategorySummary holds the statistics of one category. Fields for metrics
// not in Present are NaN (or 0 for the integer count fields).
type CategorySummary struct {
	Category string    `json:"category"`
	Present  MetricSet `json:"-"`

	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	IQR    float64 `json:"iqr"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	LAV    float64 `json:"lav"`
	UAV    float64 `json:"uav"`
	LIF    float64 `json:"lif"`
	UIF    float64 `json:"uif"`
	LOF    float64 `json:"lof"`
	UOF    float64 `json:"uof"`

	OutlierCount int     `json:"outlierCount"`
	OutlierPct   float64 `json:"outlierPct"`

	ConfidenceLow  float64 `json:"confidenceLow"`
	ConfidenceHigh float64 `json:"confidenceHigh"`
}

// NewCategorySummary returns a summary with every float field undefined.
func NewCategorySummary(category string) CategorySummary {
	nan := math.NaN()
	return CategorySummary{
		Category: category,
		Sum:      nan, Mean: nan, StdDev: nan,
		Q1: nan, Median: nan, Q3: nan, IQR: nan,
		Min: nan, Max: nan,
		LAV: nan, UAV: nan,
		LIF: nan, UIF: nan, LOF: nan, UOF: nan,
		OutlierPct:     nan,
		ConfidenceLow:  nan,
		ConfidenceHigh: nan,
	}
}

// Value returns the metric as a float. ok is false when the metric was not
// requested; a requested but undefined metric returns NaN with ok true.
func (s CategorySummary) Value(m Metric) (v float64, ok bool) {
	if !s.Present.Has(m) {
		return math.NaN(), false
	}
	switch m {
	case MetricCount:
		return float64(s.Count), true
	case MetricSum:
		return s.Sum, true
	case MetricMean:
		return s.Mean, true
	case MetricStdDev:
		return s.StdDev, true
	case MetricQ1:
		return s.Q1, true
	case MetricMedian:
		return s.Median, true
	case MetricQ3:
		return s.Q3, true
	case MetricIQR:
		return s.IQR, true
	case MetricMin:
		return s.Min, true
	case MetricMax:
		return s.Max, true
	case MetricLAV:
		return s.LAV, true
	case MetricUAV:
		return s.UAV, true
	case MetricLIF:
		return s.LIF, true
	case MetricUIF:
		return s.UIF, true
	case MetricLOF:
		return s.LOF, true
	case MetricUOF:
		return s.UOF, true
	case MetricOutlierCount:
		// An outlier count is meaningless without at least one adjacent value.
		if math.IsNaN(s.LAV) && math.IsNaN(s.UAV) {
			return math.NaN(), true
		}
		return float64(s.OutlierCount), true
	case MetricOutlierPct:
		return s.OutlierPct, true
	case MetricConfidenceLow:
		return s.ConfidenceLow, true
	case MetricConfidenceHigh:
		return s.ConfidenceHigh, true
	}
	return math.NaN(), false
}

// DensityPoint is one sample of a density curve.
type DensityPoint struct {
	Value   float64 `json:"value"`
	Density float64 `json:"density"`
}

// DensitySegment is a contiguous slice of a category's density curve.
// Start and End are inclusive indexes into the full curve.
type DensitySegment struct {
	Points []DensityPoint `json:"points"`
	Start  int            `json:"start"`
	End    int            `json:"end"`
	Marked bool           `json:"marked"`
	IsGap  bool           `json:"isGap"`
	Count  int            `json:"count"`
}

// CategoryDensity carries the full curve and its marking split.
type CategoryDensity struct {
	Category  string           `json:"category"`
	Bandwidth float64          `json:"bandwidth"`
	All       []DensityPoint   `json:"all"`
	Segments  []DensitySegment `json:"segments"`
}

// ComparisonCircle encodes one category's multiple-comparison interval.
type ComparisonCircle struct {
	Category               string  `json:"category"`
	Center                 float64 `json:"center"`
	Radius                 float64 `json:"radius"`
	SignificantlyDifferent bool    `json:"significantlyDifferent"`
}

// Comparison is the full multiple-comparison result across categories.
type Comparison struct {
	Alpha         float64            `json:"alpha"`
	PooledStdErr  float64            `json:"pooledStdErr"`
	PooledRootMSE float64            `json:"pooledRootMse"`
	CriticalValue float64            `json:"criticalValue"`
	RawCritical   float64            `json:"rawCriticalValue"`
	DF            int                `json:"df"`
	Groups        int                `json:"groups"`
	Circles       []ComparisonCircle `json:"circles"`
	Significant   [][]bool           `json:"significant"`
	AnovaP        PValue             `json:"anovaP"`
}

// Displayable reports whether circles carry any visual meaning.
func (c Comparison) Displayable() bool {
	return c.CriticalValue > 0
}
