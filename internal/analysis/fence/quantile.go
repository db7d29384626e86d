package fence

import "math"

// Quantile returns the p-quantile of ascending data using linear
// interpolation between order statistics (Hyndman-Fan type 7).
// Empty input yields NaN.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= n {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// FenceSet holds Tukey's inner and outer fences.
type FenceSet struct {
	LIF, UIF, LOF, UOF float64
}

// Fences derives the fences from the quartiles; NaN quartiles give NaN fences.
func Fences(q1, q3 float64) FenceSet {
	iqr := q3 - q1
	return FenceSet{
		LIF: q1 - 1.5*iqr,
		UIF: q3 + 1.5*iqr,
		LOF: q1 - 3*iqr,
		UOF: q3 + 3*iqr,
	}
}

// AdjacentValues returns the most extreme values inside the inner fences.
//
// The result is then clamped toward the quartiles: uav = max(uav, q3) and
// lav = min(lav, q1). The clamp runs after the fence filter, so uav may end
// up above the upper inner fence. Box plots downstream rely on whiskers never
// retracting into the box.
func AdjacentValues(sorted []float64, q1, q3 float64) (lav, uav float64) {
	f := Fences(q1, q3)
	lav, uav = math.NaN(), math.NaN()
	for _, v := range sorted {
		if v >= f.LIF {
			lav = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= f.UIF {
			uav = sorted[i]
			break
		}
	}
	if !math.IsNaN(uav) {
		uav = math.Max(uav, q3)
	}
	if !math.IsNaN(lav) {
		lav = math.Min(lav, q1)
	}
	return lav, uav
}

// CountOutliers counts values strictly outside [lav, uav]. An undefined
// bound excludes nothing on its side.
func CountOutliers(sorted []float64, lav, uav float64) int {
	n := 0
	for _, v := range sorted {
		if v > uav || v < lav {
			n++
		}
	}
	return n
}
