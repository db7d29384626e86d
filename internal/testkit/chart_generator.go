package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"catdist/domain/chart"
	"catdist/domain/core"
)

// CategorySpec describes one synthetic category
type CategorySpec struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	// LogNormal draws exp(N(Mean, StdDev)) for a right-skewed category.
	LogNormal bool `json:"log_normal"`
}

// ChartGeneratorConfig configures the synthetic chart data generator
type ChartGeneratorConfig struct {
	Categories     []CategorySpec `json:"categories"`
	Trellis        []string       `json:"trellis"`
	MarkedFraction float64        `json:"marked_fraction"`
	MissingRate    float64        `json:"missing_rate"`
	OutlierRate    float64        `json:"outlier_rate"`
	Seed           int64          `json:"seed"`
}

// DefaultChartConfig returns a small three-category dataset with one
// clearly shifted category
func DefaultChartConfig() ChartGeneratorConfig {
	return ChartGeneratorConfig{
		Categories: []CategorySpec{
			{Name: "control", Count: 120, Mean: 10, StdDev: 2},
			{Name: "treatment", Count: 120, Mean: 10.5, StdDev: 2},
			{Name: "shifted", Count: 80, Mean: 16, StdDev: 3},
			{Name: "skewed", Count: 60, Mean: 2, StdDev: 0.6, LogNormal: true},
		},
		MarkedFraction: 0.2,
		MissingRate:    0.02,
		OutlierRate:    0.01,
		Seed:           42,
	}
}

// ChartDataGenerator generates reproducible chart rows
type ChartDataGenerator struct {
	config ChartGeneratorConfig
	rng    *rand.Rand
}

// NewChartDataGenerator creates a new generator
func NewChartDataGenerator(config ChartGeneratorConfig) *ChartDataGenerator {
	return &ChartDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRows draws every category in order. Marked rows form contiguous
// value ranges so density segmentation has something to split.
func (g *ChartDataGenerator) GenerateRows() []chart.Row {
	var rows []chart.Row
	for _, spec := range g.config.Categories {
		for i := 0; i < spec.Count; i++ {
			y := g.draw(spec)
			if g.rng.Float64() < g.config.OutlierRate {
				y = spec.Mean + math.Copysign(8*spec.StdDev, g.rng.Float64()-0.5)
			}
			if g.rng.Float64() < g.config.MissingRate {
				y = math.NaN()
			}
			row := chart.Row{
				ID:       core.StableRowID(fmt.Sprintf("testkit:%d", g.config.Seed), len(rows)),
				Y:        y,
				Category: spec.Name,
				Marked:   g.marked(spec, y),
			}
			if len(g.config.Trellis) > 0 {
				row.Trellis = g.config.Trellis[g.rng.Intn(len(g.config.Trellis))]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (g *ChartDataGenerator) draw(spec CategorySpec) float64 {
	z := g.rng.NormFloat64()*spec.StdDev + spec.Mean
	if spec.LogNormal {
		return math.Exp(z)
	}
	return z
}

// marked selects the top MarkedFraction of the distribution by value.
func (g *ChartDataGenerator) marked(spec CategorySpec, y float64) bool {
	if g.config.MarkedFraction <= 0 || math.IsNaN(y) {
		return false
	}
	z := (y - spec.Mean) / spec.StdDev
	if spec.LogNormal {
		z = (math.Log(y) - spec.Mean) / spec.StdDev
	}
	// Standard normal upper tail probability.
	return 0.5*math.Erfc(z/math.Sqrt2) < g.config.MarkedFraction
}
