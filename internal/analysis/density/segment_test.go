package density

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"catdist/domain/chart"
	"catdist/domain/core"
	"catdist/internal/analysis/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staleSource struct{}

func (staleSource) Invalidated() bool { return true }

func live() guard.Guard {
	return guard.New(context.Background(), nil)
}

func globalOf(rows []chart.Row) Global {
	g := Global{MinY: math.Inf(1), MaxY: math.Inf(-1)}
	for _, r := range rows {
		g.MinY = math.Min(g.MinY, r.Y)
		g.MaxY = math.Max(g.MaxY, r.Y)
		g.AnyMarked = g.AnyMarked || r.Marked
	}
	return g
}

// coverage counts how many segments include each curve index.
func coverage(t *testing.T, d chart.CategoryDensity) []int {
	t.Helper()
	counts := make([]int, len(d.All))
	for _, seg := range d.Segments {
		require.NotEmpty(t, seg.Points, "empty segments must be omitted")
		require.Equal(t, seg.End-seg.Start+1, len(seg.Points))
		assert.Equal(t, d.All[seg.Start], seg.Points[0])
		for i := seg.Start; i <= seg.End; i++ {
			counts[i]++
		}
	}
	return counts
}

func TestSegment_MarkingScenario(t *testing.T) {
	rows := []chart.Row{
		{Category: "x", Y: 1, Marked: false},
		{Category: "x", Y: 2, Marked: true},
		{Category: "x", Y: 3, Marked: false},
	}
	s := NewSegmenter(DefaultOptions())

	d, err := s.Segment(live(), "x", rows, globalOf(rows))

	require.NoError(t, err)
	require.Len(t, d.Segments, 3)
	assert.Equal(t, []bool{false, true, false}, []bool{d.Segments[0].Marked, d.Segments[1].Marked, d.Segments[2].Marked})
	for _, seg := range d.Segments {
		assert.False(t, seg.IsGap)
		assert.Equal(t, 1, seg.Count)
	}
	assert.Equal(t, 0, d.Segments[0].Start)
	assert.Equal(t, d.Segments[0].End, d.Segments[1].Start, "adjacent runs share a boundary point")
	assert.Equal(t, d.Segments[1].End, d.Segments[2].Start, "adjacent runs share a boundary point")
	assert.Equal(t, len(d.All)-1, d.Segments[2].End)
	assert.Less(t, d.Segments[0].Points[0].Value, d.Segments[1].Points[0].Value)
	assert.Less(t, d.Segments[1].Points[0].Value, d.Segments[2].Points[0].Value)
}

func TestSegment_AdjacentRunsNeverLeaveInteriorGaps(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	rows := make([]chart.Row, 60)
	for i := range rows {
		rows[i] = chart.Row{Y: rng.NormFloat64() * 3, Marked: rng.Intn(3) == 0}
	}
	s := NewSegmenter(DefaultOptions())

	d, err := s.Segment(live(), "x", rows, globalOf(rows))

	require.NoError(t, err)
	for _, seg := range d.Segments {
		assert.False(t, seg.IsGap, "gap at %d-%d", seg.Start, seg.End)
	}
	for i := 1; i < len(d.Segments); i++ {
		assert.Equal(t, d.Segments[i-1].End, d.Segments[i].Start)
		assert.NotEqual(t, d.Segments[i-1].Marked, d.Segments[i].Marked)
	}
	for i, c := range coverage(t, d) {
		assert.GreaterOrEqual(t, c, 1, "index %d uncovered", i)
	}
}

func TestSegment_NoMarkingSingleSegment(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	rows := make([]chart.Row, 40)
	for i := range rows {
		rows[i] = chart.Row{Category: "a", Y: rng.NormFloat64()}
	}
	s := NewSegmenter(DefaultOptions())

	d, err := s.Segment(live(), "a", rows, globalOf(rows))

	require.NoError(t, err)
	require.Len(t, d.Segments, 1)
	seg := d.Segments[0]
	assert.False(t, seg.Marked)
	assert.False(t, seg.IsGap)
	assert.Equal(t, 40, seg.Count)
	for i, c := range coverage(t, d) {
		assert.Equal(t, 1, c, "index %d covered exactly once", i)
	}
}

func TestSegment_TailGapsBeyondTheData(t *testing.T) {
	rows := []chart.Row{
		{Y: 1}, {Y: 1.5}, {Y: 2},
		{Y: 5, Marked: true}, {Y: 5.5, Marked: true},
		{Y: 9}, {Y: 10},
	}
	s := NewSegmenter(Options{BandwidthFactor: 0.1, Resolution: 60})

	d, err := s.Segment(live(), "x", rows, globalOf(rows))

	require.NoError(t, err)
	var data, gaps []chart.DensitySegment
	for _, seg := range d.Segments {
		if seg.IsGap {
			gaps = append(gaps, seg)
		} else {
			data = append(data, seg)
		}
	}
	require.Len(t, data, 3)
	assert.Equal(t, []bool{false, true, false}, []bool{data[0].Marked, data[1].Marked, data[2].Marked})
	assert.Equal(t, []int{3, 2, 2}, []int{data[0].Count, data[1].Count, data[2].Count})
	assert.Equal(t, data[0].End, data[1].Start)
	assert.Equal(t, data[1].End, data[2].Start)
	require.Len(t, gaps, 2, "below the first run and above the last")
	assert.Equal(t, 0, gaps[0].Start)
	assert.Equal(t, data[0].Start, gaps[0].End)
	assert.Equal(t, data[2].End, gaps[1].Start)
	assert.Equal(t, len(d.All)-1, gaps[1].End)

	for i, c := range coverage(t, d) {
		assert.GreaterOrEqual(t, c, 1, "index %d uncovered", i)
	}

	// Gaps touch data segments only at their boundary points.
	for _, gap := range gaps {
		for _, seg := range data {
			overlapLo := max(gap.Start, seg.Start)
			overlapHi := min(gap.End, seg.End)
			assert.LessOrEqual(t, overlapHi-overlapLo, 0, "gap %d-%d overlaps data %d-%d", gap.Start, gap.End, seg.Start, seg.End)
		}
	}

	for i := 1; i < len(d.Segments); i++ {
		assert.LessOrEqual(t, d.Segments[i-1].Start, d.Segments[i].Start, "segments in curve order")
	}
}

func TestSegment_MarkingElsewhereIsStrict(t *testing.T) {
	rows := []chart.Row{{Y: 1}, {Y: 2}, {Y: 3}}
	g := globalOf(rows)
	g.AnyMarked = true
	s := NewSegmenter(Options{BandwidthFactor: 0.2, Resolution: 40})

	d, err := s.Segment(live(), "x", rows, g)

	require.NoError(t, err)
	var gaps int
	for _, seg := range d.Segments {
		if seg.IsGap {
			gaps++
			continue
		}
		assert.GreaterOrEqual(t, seg.Points[0].Value, 1.0)
		assert.LessOrEqual(t, seg.Points[len(seg.Points)-1].Value, 3.0)
	}
	assert.Equal(t, 2, gaps, "tails beyond the data are gaps while marking exists")
}

func TestBlocks_WidenDegenerate(t *testing.T) {
	rows := []chart.Row{{Y: 0}, {Y: 4, Marked: true}, {Y: 10}, {Y: 20}}

	blocks := Blocks(rows, Global{MinY: 0, MaxY: 200})

	require.Len(t, blocks, 3)
	assert.Equal(t, Block{Min: 0, Max: 0, Lo: -1, Hi: 2}, blocks[0])
	assert.Equal(t, Block{Min: 4, Max: 4, Lo: 2, Hi: 7, Marked: true}, blocks[1])
	assert.Equal(t, Block{Min: 10, Max: 20, Lo: 7, Hi: 20}, blocks[2])

	last := Blocks([]chart.Row{{Y: 0}, {Y: 4, Marked: true}}, Global{MinY: 0, MaxY: 200})
	assert.Equal(t, Block{Min: 4, Max: 4, Lo: 2, Hi: 5, Marked: true}, last[1])
}

func TestSegment_LogAxisDropsNonPositive(t *testing.T) {
	rows := []chart.Row{{Y: -3}, {Y: 0}, {Y: 0.5}, {Y: 2}, {Y: 4}}
	s := NewSegmenter(Options{BandwidthFactor: 0.3, Resolution: 50, Axis: chart.AxisLog})

	d, err := s.Segment(live(), "x", rows, globalOf(rows))

	require.NoError(t, err)
	require.NotEmpty(t, d.All)
	for _, p := range d.All {
		assert.Greater(t, p.Value, 0.0)
		assert.False(t, math.IsNaN(p.Density))
	}
	assert.Equal(t, 3, d.Segments[0].Count)
}

func TestSegment_ConstantCategoryUsesFallbackBandwidth(t *testing.T) {
	rows := []chart.Row{{Y: 5}, {Y: 5}, {Y: 5}}
	s := NewSegmenter(DefaultOptions())

	d, err := s.Segment(live(), "x", rows, Global{MinY: 0, MaxY: 10})

	require.NoError(t, err)
	assert.InDelta(t, 1.0, d.Bandwidth, 1e-12)
	assert.NotEmpty(t, d.All)
}

func TestSegment_EmptyCategory(t *testing.T) {
	s := NewSegmenter(DefaultOptions())

	d, err := s.Segment(live(), "x", []chart.Row{{Y: math.NaN()}}, Global{})

	require.NoError(t, err)
	assert.Empty(t, d.All)
	assert.Empty(t, d.Segments)
	assert.True(t, math.IsNaN(d.Bandwidth))
}

func TestSegment_StaleSourceAborts(t *testing.T) {
	rows := []chart.Row{{Y: 1}, {Y: 2}}
	s := NewSegmenter(DefaultOptions())

	_, err := s.Segment(guard.New(context.Background(), staleSource{}), "x", rows, globalOf(rows))

	assert.True(t, core.IsStaleSource(err))
}

func TestCurve_ValuesAscending(t *testing.T) {
	s := NewSegmenter(Options{BandwidthFactor: 0.25, Resolution: 20})
	values := []float64{1, 2.2, 2.3, 7}

	points, err := s.Curve(live(), values, 1.5)

	require.NoError(t, err)
	for i := 1; i < len(points); i++ {
		assert.Less(t, points[i-1].Value, points[i].Value)
	}
	for _, v := range values {
		assert.Contains(t, pointValues(points), v, "data values are always evaluated")
	}
	assert.InDelta(t, 1-4.5, points[0].Value, 1e-12)
	assert.InDelta(t, 7+4.5, points[len(points)-1].Value, 1e-12)
}

func pointValues(points []chart.DensityPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
