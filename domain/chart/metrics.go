package chart

import (
	"fmt"
	"strings"
)

// Metric names one statistic StatFence can compute.
type Metric uint8

const (
	MetricCount Metric = iota
	MetricSum
	MetricMean
	MetricStdDev
	MetricQ1
	MetricMedian
	MetricQ3
	MetricIQR
	MetricMin
	MetricMax
	MetricLAV
	MetricUAV
	MetricLIF
	MetricUIF
	MetricLOF
	MetricUOF
	MetricOutlierCount
	MetricOutlierPct
	MetricConfidenceLow
	MetricConfidenceHigh

	metricCount
)

var metricNames = [metricCount]string{
	"count", "sum", "mean", "stddev", "q1", "median", "q3", "iqr", "min", "max",
	"lav", "uav", "lif", "uif", "lof", "uof", "outliercount", "outlierpct",
	"ci_low", "ci_high",
}

func (m Metric) String() string {
	if m < metricCount {
		return metricNames[m]
	}
	return fmt.Sprintf("metric(%d)", m)
}

// ParseMetric accepts the names produced by String, case-insensitively.
func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range metricNames {
		if name == s {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

// AllMetrics lists every metric in declaration order.
func AllMetrics() []Metric {
	out := make([]Metric, metricCount)
	for i := range out {
		out[i] = Metric(i)
	}
	return out
}

// MetricSet is an enum-keyed set of requested metrics.
type MetricSet uint32

// NewMetricSet builds a set from the given metrics.
func NewMetricSet(ms ...Metric) MetricSet {
	var s MetricSet
	for _, m := range ms {
		s = s.With(m)
	}
	return s
}

// FullMetricSet requests every metric.
func FullMetricSet() MetricSet {
	return NewMetricSet(AllMetrics()...)
}

func (s MetricSet) Has(m Metric) bool {
	return m < metricCount && s&(1<<m) != 0
}

func (s MetricSet) With(m Metric) MetricSet {
	if m >= metricCount {
		return s
	}
	return s | 1<<m
}

func (s MetricSet) Without(m Metric) MetricSet {
	return s &^ (1 << m)
}

// Metrics returns the members in declaration order.
func (s MetricSet) Metrics() []Metric {
	var out []Metric
	for _, m := range AllMetrics() {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s MetricSet) String() string {
	names := make([]string, 0, metricCount)
	for _, m := range s.Metrics() {
		names = append(names, m.String())
	}
	return strings.Join(names, ",")
}
