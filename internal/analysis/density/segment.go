package density

import (
	"math"
	"sort"

	"catdist/domain/chart"
	"catdist/internal/analysis/guard"
)

// widenDivisor sets how much a single-valued block is widened, as a
// fraction of the global value range.
const widenDivisor = 200

// Global carries dataset-wide facts every category needs.
type Global struct {
	MinY, MaxY float64
	AnyMarked  bool
}

// Block is a maximal run of value-sorted rows sharing a marking state.
// Min/Max are the observed bounds; Lo/Hi are the selection bounds. Adjacent
// blocks meet halfway between their runs, so Hi of one block is Lo of the next.
type Block struct {
	Min, Max float64
	Lo, Hi   float64
	Marked   bool
}

// Segmenter builds marking-aware density curves.
type Segmenter struct {
	opts Options
}

// NewSegmenter creates a density segmenter
func NewSegmenter(opts Options) *Segmenter {
	return &Segmenter{opts: opts}
}

// sortedRows filters rows like StatFence does and orders them by value.
func (s *Segmenter) sortedRows(rows []chart.Row) []chart.Row {
	out := make([]chart.Row, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.Y) {
			continue
		}
		if s.opts.Axis.ExcludesNonPositive() && r.Y <= 0 {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Y < out[j].Y })
	return out
}

// Blocks partitions value-sorted rows into runs of equal marking. A
// single-valued run at either end is widened outward by the global range/200.
func Blocks(sorted []chart.Row, g Global) []Block {
	var blocks []Block
	for i, r := range sorted {
		if i == 0 || r.Marked != blocks[len(blocks)-1].Marked {
			blocks = append(blocks, Block{Min: r.Y, Max: r.Y, Marked: r.Marked})
			continue
		}
		blocks[len(blocks)-1].Max = r.Y
	}
	widen := (g.MaxY - g.MinY) / widenDivisor
	for i := range blocks {
		b := &blocks[i]
		if i == 0 {
			b.Lo = b.Min
			if b.Min == b.Max {
				b.Lo -= widen
			}
		} else {
			b.Lo = blocks[i-1].Hi
		}
		if i == len(blocks)-1 {
			b.Hi = b.Max
			if b.Min == b.Max {
				b.Hi += widen
			}
		} else {
			b.Hi = b.Max + (blocks[i+1].Min-b.Max)/2
		}
	}
	return blocks
}

// Segment computes the full curve of one category and its segmentation.
func (s *Segmenter) Segment(gd guard.Guard, category string, rows []chart.Row, g Global) (chart.CategoryDensity, error) {
	out := chart.CategoryDensity{Category: category, Bandwidth: math.NaN()}

	sorted := s.sortedRows(rows)
	if len(sorted) == 0 {
		return out, nil
	}
	values := make([]float64, len(sorted))
	for i, r := range sorted {
		values[i] = r.Y
	}

	bw := s.bandwidthFor(values, g)
	points, err := s.Curve(gd, values, bw)
	if err != nil {
		return out, err
	}
	out.Bandwidth = bw
	out.All = points
	if len(points) == 0 {
		return out, nil
	}

	if !g.AnyMarked {
		out.Segments = []chart.DensitySegment{{
			Points: points,
			Start:  0,
			End:    len(points) - 1,
			Count:  len(sorted),
		}}
		return out, nil
	}

	if err := gd.Check("density segments"); err != nil {
		return out, err
	}
	out.Segments = splitByBlocks(points, values, Blocks(sorted, g))
	return out, nil
}

// splitByBlocks selects each block's slice of the curve and fills every
// uncovered stretch with a gap segment sharing its boundary points. Adjacent
// blocks share the first point at or above their common bound, so gaps only
// remain beyond the outermost blocks.
func splitByBlocks(points []chart.DensityPoint, values []float64, blocks []Block) []chart.DensitySegment {
	n := len(points)
	covered := make([]bool, n)
	var segments []chart.DensitySegment

	for i, b := range blocks {
		start := firstAtLeast(points, b.Lo)
		end := firstAbove(points, b.Hi) - 1
		if i < len(blocks)-1 {
			end = min(firstAtLeast(points, b.Hi), n-1)
		}
		if start > end {
			continue
		}
		for i := start; i <= end; i++ {
			covered[i] = true
		}
		segments = append(segments, chart.DensitySegment{
			Points: points[start : end+1],
			Start:  start,
			End:    end,
			Marked: b.Marked,
			Count:  countWithin(values, b.Min, b.Max),
		})
	}

	for i := 0; i < n; {
		if covered[i] {
			i++
			continue
		}
		j := i
		for j+1 < n && !covered[j+1] {
			j++
		}
		start, end := clampIndex(i-1, n), clampIndex(j+1, n)
		segments = append(segments, chart.DensitySegment{
			Points: points[start : end+1],
			Start:  start,
			End:    end,
			IsGap:  true,
		})
		i = j + 1
	}

	sort.SliceStable(segments, func(a, b int) bool {
		if segments[a].Start != segments[b].Start {
			return segments[a].Start < segments[b].Start
		}
		return segments[a].End < segments[b].End
	})
	return segments
}

// firstAtLeast returns the first index whose value is >= x, or len(points).
func firstAtLeast(points []chart.DensityPoint, x float64) int {
	return sort.Search(len(points), func(i int) bool { return points[i].Value >= x })
}

// firstAbove returns the first index whose value exceeds x, or len(points).
func firstAbove(points []chart.DensityPoint, x float64) int {
	return sort.Search(len(points), func(i int) bool { return points[i].Value > x })
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// countWithin counts ascending values in [lo, hi].
func countWithin(sorted []float64, lo, hi float64) int {
	from := sort.SearchFloat64s(sorted, lo)
	to := sort.Search(len(sorted), func(i int) bool { return sorted[i] > hi })
	return to - from
}
