package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catdist/domain/core"
)

func TestNewAsinhRejectsBadLinearPortion(t *testing.T) {
	for _, l := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewAsinh(l)
		assert.ErrorIs(t, err, core.ErrInvalidSettings, "L=%v", l)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	s, err := NewAsinh(1)
	require.NoError(t, err)

	for _, x := range []float64{0, 1e-9, -0.5, 1, -1, 42, -1e6, 1e12, -1e100} {
		got := s.Untransform(s.Transform(x))
		assert.InDelta(t, x, got, 1e-12*math.Max(1, math.Abs(x)), "x=%v", x)
	}
}

func TestTransformShape(t *testing.T) {
	s, err := NewAsinh(2)
	require.NoError(t, err)

	assert.Equal(t, 0.0, s.Transform(0))
	assert.InDelta(t, 0.005, s.Transform(0.01), 1e-6, "near-linear around zero")
	assert.InDelta(t, -s.Transform(1000), s.Transform(-1000), 1e-12, "odd function")
}

func TestScaleAndInvert(t *testing.T) {
	s, err := NewAsinh(1)
	require.NoError(t, err)
	require.NoError(t, s.SetDomain(-150, 300))
	s.SetRange(400, 0)

	assert.InDelta(t, 400, s.Scale(-150), 1e-9)
	assert.InDelta(t, 0, s.Scale(300), 1e-9)
	for _, x := range []float64{-150, -3, 0, 7.5, 300} {
		assert.InDelta(t, x, s.Invert(s.Scale(x)), 1e-9)
	}
}

func TestSetDomainRejectsNonFinite(t *testing.T) {
	s, err := NewAsinh(1)
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetDomain(math.NaN(), 1), core.ErrInvalidDomain)
	assert.ErrorIs(t, s.SetDomain(0, math.Inf(1)), core.ErrInvalidDomain)
}

func TestAdaptiveTicksMixedSign(t *testing.T) {
	ticks := AdaptiveTicks(-150, 300, 10)

	assert.Contains(t, ticks, -150.0)
	assert.Contains(t, ticks, 300.0)
	assert.Contains(t, ticks, 0.0)
	assert.Contains(t, ticks, 100.0)
	assert.Contains(t, ticks, -90.0)

	seen := map[float64]bool{}
	for i, v := range ticks {
		assert.False(t, seen[v], "duplicate tick %v", v)
		seen[v] = true
		assert.GreaterOrEqual(t, v, -150.0)
		assert.LessOrEqual(t, v, 300.0)
		if i > 0 {
			assert.Less(t, ticks[i-1], v)
		}
	}
}

func TestAdaptiveTicksSubUnit(t *testing.T) {
	ticks := AdaptiveTicks(-0.5, 2, 10)

	for _, want := range []float64{-0.5, -0.4, -0.1, 0, 0.1, 0.3, 0.9, 1, 2} {
		assert.Contains(t, ticks, want)
	}
	assert.NotContains(t, ticks, -1.0)
	assert.NotContains(t, ticks, 3.0)
}

func TestAdaptiveTicksSubUnitStraddlingZero(t *testing.T) {
	ticks := AdaptiveTicks(-0.05, 0.3, 10)

	assert.Contains(t, ticks, 0.0)
	assert.Contains(t, ticks, -0.05)
	assert.Contains(t, ticks, 0.3)
	assert.Contains(t, ticks, 0.01)
	for i := 1; i < len(ticks); i++ {
		assert.Less(t, ticks[i-1], ticks[i])
	}

	assert.NotContains(t, AdaptiveTicks(0.02, 0.3, 10), 0.0, "zero only when the domain straddles it")
}

func TestAdaptiveTicksFallsBackToLinear(t *testing.T) {
	got := AdaptiveTicks(0.99999, 1.00001, 10)
	assert.Equal(t, LinearTicks(0.99999, 1.00001, 10), got)
	assert.Greater(t, len(got), 5)
}

func TestAdaptiveTicksReversedDomain(t *testing.T) {
	assert.Equal(t, AdaptiveTicks(-150, 300, 10), AdaptiveTicks(300, -150, 10))
}

func TestLinearTicks(t *testing.T) {
	assert.Equal(t, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}, LinearTicks(0, 1, 5))
	assert.Equal(t, []float64{0, 20, 40, 60, 80, 100}, LinearTicks(0, 100, 5))
	assert.Equal(t, []float64{100, 80, 60, 40, 20, 0}, LinearTicks(100, 0, 5))
	assert.Equal(t, []float64{3}, LinearTicks(3, 3, 5))
	assert.Nil(t, LinearTicks(0, 1, 0))
}

func TestIsPowerOfTen(t *testing.T) {
	for _, v := range []float64{1, 10, 100, 0.1, 0.001, -10, 1e20} {
		assert.True(t, IsPowerOfTen(v), "%v", v)
	}
	for _, v := range []float64{0, 2, 20, 0.3, -15, math.NaN()} {
		assert.False(t, IsPowerOfTen(v), "%v", v)
	}
}

func label(v, y float64) Label {
	return Label{Value: v, Box: Box{X0: 0, Y0: y - 5, X1: 30, Y1: y + 5}}
}

func values(ls []Label) []float64 {
	out := make([]float64, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Value)
	}
	return out
}

func assertNoOverlap(t *testing.T, ls []Label) {
	t.Helper()
	for i := range ls {
		for j := i + 1; j < len(ls); j++ {
			assert.False(t, ls[i].Box.Overlaps(ls[j].Box), "%v overlaps %v", ls[i].Value, ls[j].Value)
		}
	}
}

func TestRemoveCollisionsDropsLaterLabel(t *testing.T) {
	got := RemoveCollisions([]Label{label(2, 0), label(3, 5), label(4, 20)})
	assert.Equal(t, []float64{2, 4}, values(got))
	assertNoOverlap(t, got)
}

func TestRemoveCollisionsProtectsPowerOfTen(t *testing.T) {
	got := RemoveCollisions([]Label{label(3, 0), label(10, 5)})
	assert.Equal(t, []float64{10}, values(got))
}

func TestRemoveCollisionsEscalatesBetweenAnchors(t *testing.T) {
	got := RemoveCollisions([]Label{label(10, 0), label(100, 5)})
	assert.Len(t, got, 1)
	assertNoOverlap(t, got)
}

func TestRemoveCollisionsDenseAxis(t *testing.T) {
	var ls []Label
	for i := 0; i < 40; i++ {
		ls = append(ls, label(float64(i+1), float64(i)*3))
	}
	got := RemoveCollisions(ls)
	assert.NotEmpty(t, got)
	assert.Less(t, len(got), 40)
	assertNoOverlap(t, got)
	assert.Contains(t, values(got), 10.0)
}

func TestRemoveCollisionsTrivial(t *testing.T) {
	assert.Empty(t, RemoveCollisions(nil))
	assert.Len(t, RemoveCollisions([]Label{label(1, 0)}), 1)
	touching := []Label{label(1, 0), label(2, 10)}
	assert.Len(t, RemoveCollisions(touching), 2)
}

func TestVisibleTicks(t *testing.T) {
	s, err := NewAsinh(1)
	require.NoError(t, err)
	require.NoError(t, s.SetDomain(-150, 300))
	s.SetRange(300, 0)

	ticks := s.Ticks(10)
	visible := VisibleTicks(s, ticks, 12, 40)

	assert.NotEmpty(t, visible)
	assert.LessOrEqual(t, len(visible), len(ticks))
	for i := 1; i < len(visible); i++ {
		assert.Less(t, visible[i-1], visible[i])
		assert.GreaterOrEqual(t, math.Abs(s.Scale(visible[i])-s.Scale(visible[i-1])), 12.0-1e-9)
	}
}
