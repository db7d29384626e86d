package ports

import (
	"context"

	"catdist/domain/chart"
)

// RowSource resolves the rows a chart is computed from. Resolution of
// filters and queries happens behind this port.
type RowSource interface {
	LoadRows(ctx context.Context) ([]chart.Row, error)
}

// Liveness answers whether the data source backing a request has been
// invalidated since the request began.
type Liveness interface {
	Invalidated() bool
}

// Capabilities answers which metrics are enabled and how the axis is displayed.
type Capabilities interface {
	MetricEnabled(m chart.Metric) bool
	AxisMode() chart.AxisMode
}

// AlwaysLive is a Liveness for sources that cannot go stale.
type AlwaysLive struct{}

func (AlwaysLive) Invalidated() bool { return false }

// ResolveMetrics collapses a Capabilities into a MetricSet once per invocation.
func ResolveMetrics(c Capabilities) chart.MetricSet {
	var set chart.MetricSet
	for _, m := range chart.AllMetrics() {
		if c.MetricEnabled(m) {
			set = set.With(m)
		}
	}
	return set
}
