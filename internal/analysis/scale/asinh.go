// Package scale implements the signed asinh axis: a transform that is
// linear near zero and logarithmic toward both infinities, plus tick
// generation and tick-label collision removal.
package scale

import (
	"fmt"
	"math"

	"catdist/domain/core"
)

// DefaultTickCount is the target tick count when none is given.
const DefaultTickCount = 10

// Asinh maps a numeric domain onto a pixel range through asinh(x / L).
type Asinh struct {
	linearPortion float64
	domain        [2]float64
	rng           [2]float64
}

// NewAsinh creates a scale with domain and range [0, 1].
func NewAsinh(linearPortion float64) (*Asinh, error) {
	if !(linearPortion > 0) || math.IsInf(linearPortion, 1) {
		return nil, fmt.Errorf("%w: linear portion must be a positive finite number, got %v", core.ErrInvalidSettings, linearPortion)
	}
	return &Asinh{linearPortion: linearPortion, domain: [2]float64{0, 1}, rng: [2]float64{0, 1}}, nil
}

// LinearPortion returns L.
func (s *Asinh) LinearPortion() float64 { return s.linearPortion }

// SetDomain sets the input extent. min may exceed max for a reversed axis.
func (s *Asinh) SetDomain(min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return fmt.Errorf("%w: [%v, %v]", core.ErrInvalidDomain, min, max)
	}
	s.domain = [2]float64{min, max}
	return nil
}

// Domain returns the input extent as set.
func (s *Asinh) Domain() (float64, float64) { return s.domain[0], s.domain[1] }

// SetRange sets the output extent.
func (s *Asinh) SetRange(r0, r1 float64) {
	s.rng = [2]float64{r0, r1}
}

// Range returns the output extent.
func (s *Asinh) Range() (float64, float64) { return s.rng[0], s.rng[1] }

// Transform is asinh(x / L).
func (s *Asinh) Transform(x float64) float64 {
	return math.Asinh(x / s.linearPortion)
}

// Untransform is sinh(y) * L, the exact inverse of Transform.
func (s *Asinh) Untransform(y float64) float64 {
	return math.Sinh(y) * s.linearPortion
}

// Scale maps a domain value to the range.
func (s *Asinh) Scale(x float64) float64 {
	t0, t1 := s.Transform(s.domain[0]), s.Transform(s.domain[1])
	if t0 == t1 {
		return (s.rng[0] + s.rng[1]) / 2
	}
	return s.rng[0] + (s.Transform(x)-t0)/(t1-t0)*(s.rng[1]-s.rng[0])
}

// Invert maps a range value back to the domain.
func (s *Asinh) Invert(px float64) float64 {
	t0, t1 := s.Transform(s.domain[0]), s.Transform(s.domain[1])
	if s.rng[0] == s.rng[1] {
		return s.Untransform(t0)
	}
	t := t0 + (px-s.rng[0])/(s.rng[1]-s.rng[0])*(t1-t0)
	return s.Untransform(t)
}

// Ticks returns the adaptive tick set for the current domain.
func (s *Asinh) Ticks(n int) []float64 {
	return AdaptiveTicks(s.domain[0], s.domain[1], n)
}
