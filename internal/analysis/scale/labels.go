package scale

import (
	"sort"
)

// Box is an axis-aligned label rectangle in pixel space, Y growing down.
type Box struct {
	X0, Y0, X1, Y1 float64
}

// Overlaps reports whether two boxes share interior area. Touching edges
// do not count.
func (b Box) Overlaps(o Box) bool {
	return b.X0 < o.X1 && o.X0 < b.X1 && b.Y0 < o.Y1 && o.Y0 < b.Y1
}

// Label is a rendered tick label.
type Label struct {
	Value float64
	Box   Box
}

type phase int

const (
	phaseNormal phase = iota
	// phaseEscalated no longer protects power-of-ten labels.
	phaseEscalated
)

type direction int

const (
	topDown direction = iota
	bottomUp
)

// collisionState tracks the alternating removal passes.
type collisionState struct {
	phase      phase
	passes     [2]int
	total      int
	clean      [2]bool
	escalateAt int
	maxPasses  int
}

// RemoveCollisions drops labels until no two remaining boxes overlap.
// Passes alternate top-down and bottom-up; within a pass each label is
// compared with the last kept one and removed on overlap, except that
// power-of-ten labels survive until a direction has run three passes per
// label. A final unprotected pass runs if the pass budget is exhausted. The result is ordered top to bottom.
func RemoveCollisions(labels []Label) []Label {
	kept := make([]Label, len(labels))
	copy(kept, labels)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Box.Y0 < kept[j].Box.Y0 })
	if len(kept) < 2 {
		return kept
	}

	n := len(labels)
	st := collisionState{escalateAt: 3 * n, maxPasses: 6 * n}
	dir := topDown
	for st.total < st.maxPasses {
		var overlap bool
		kept, overlap = st.pass(kept, dir)
		st.passes[dir]++
		st.total++
		// A pass is clean when it sees no overlap, not merely no removal:
		// blocked power-of-ten collisions must keep passes running toward escalation.
		if overlap {
			st.clean = [2]bool{}
		} else {
			st.clean[dir] = true
		}
		if st.clean[topDown] && st.clean[bottomUp] {
			break
		}
		if st.phase == phaseNormal && st.passes[dir] >= st.escalateAt {
			st.phase = phaseEscalated
		}
		dir = 1 - dir
	}
	if !(st.clean[topDown] && st.clean[bottomUp]) {
		st.phase = phaseEscalated
		kept, _ = st.pass(kept, topDown)
	}
	return kept
}

// pass walks kept in the given direction and returns the survivors in
// top-to-bottom order.
func (st *collisionState) pass(kept []Label, dir direction) ([]Label, bool) {
	order := make([]int, len(kept))
	for i := range order {
		if dir == topDown {
			order[i] = i
		} else {
			order[i] = len(kept) - 1 - i
		}
	}

	removed := make([]bool, len(kept))
	overlap := false
	prev := order[0]
	for _, idx := range order[1:] {
		if !kept[prev].Box.Overlaps(kept[idx].Box) {
			prev = idx
			continue
		}
		overlap = true
		if st.phase == phaseNormal && IsPowerOfTen(kept[idx].Value) {
			prev = idx
			continue
		}
		removed[idx] = true
	}

	out := kept[:0:0]
	for i, l := range kept {
		if !removed[i] {
			out = append(out, l)
		}
	}
	return out, overlap
}

// VisibleTicks lays ticks out on a vertical axis with labels of the given
// pixel height and width, and returns the values whose labels survive
// collision removal, ascending.
func VisibleTicks(s *Asinh, ticks []float64, labelHeight, labelWidth float64) []float64 {
	labels := make([]Label, 0, len(ticks))
	for _, v := range ticks {
		y := s.Scale(v)
		labels = append(labels, Label{
			Value: v,
			Box:   Box{X0: 0, Y0: y - labelHeight/2, X1: labelWidth, Y1: y + labelHeight/2},
		})
	}
	kept := RemoveCollisions(labels)
	out := make([]float64, 0, len(kept))
	for _, l := range kept {
		out = append(out, l.Value)
	}
	sort.Float64s(out)
	return out
}
