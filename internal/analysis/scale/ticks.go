package scale

import (
	"math"
	"sort"
)

const base = 10

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// LinearTicks returns about n round values spanning [start, stop], in the
// direction of the arguments (descending when stop < start).
func LinearTicks(start, stop float64, n int) []float64 {
	if n <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	i1, i2, inc := tickSpec(start, stop, float64(n))
	if i2 < i1 {
		return nil
	}
	count := int(i2 - i1 + 1)
	ticks := make([]float64, count)
	for i := 0; i < count; i++ {
		var k float64
		if reverse {
			k = i2 - float64(i)
		} else {
			k = i1 + float64(i)
		}
		if inc < 0 {
			ticks[i] = k / -inc
		} else {
			ticks[i] = k * inc
		}
	}
	return ticks
}

// tickSpec picks a 1, 2 or 5 times power-of-ten step. A negative inc means
// the step is 1/-inc, which keeps sub-unit ticks exact.
func tickSpec(start, stop, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && 0.5 <= count && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

// tickSet accumulates ticks inside [lo, hi] without duplicates.
type tickSet struct {
	lo, hi float64
	seen   map[float64]bool
	values []float64
}

func newTickSet(lo, hi float64) *tickSet {
	return &tickSet{lo: lo, hi: hi, seen: make(map[float64]bool)}
}

func (t *tickSet) add(v float64) {
	if t.seen[v] {
		return
	}
	t.seen[v] = true
	t.values = append(t.values, v)
}

// scan offers ascending candidates; values below lo are skipped and the
// scan stops at the first value above hi.
func (t *tickSet) scan(candidates []float64) {
	for _, v := range candidates {
		if v < t.lo {
			continue
		}
		if v > t.hi {
			return
		}
		t.add(v)
	}
}

// decade returns k * 10^i for k in from..to, ascending in value for the
// given sign. Negative exponents divide to keep values like 0.3 exact.
func decade(i, from, to int, sign float64) []float64 {
	unit := func(k int) float64 {
		if i < 0 {
			return float64(k) / math.Pow10(-i)
		}
		return float64(k) * math.Pow10(i)
	}
	out := make([]float64, 0, to-from+1)
	if sign < 0 {
		for k := to; k >= from; k-- {
			out = append(out, 0-unit(k))
		}
		return out
	}
	for k := from; k <= to; k++ {
		out = append(out, unit(k))
	}
	return out
}

// exponent is floor/ceil(log10|x|), with 0 mapped to exponent 0.
func exponent(x float64, round func(float64) float64) int {
	if x == 0 {
		return 0
	}
	return int(round(math.Log10(math.Abs(x))))
}

// AdaptiveTicks generates ticks suited to an asinh axis: the domain
// endpoints, mantissa ticks for every sub-unit decade, and linear ticks per
// decade on both sides of zero. If that yields fewer than n/2 ticks the
// plain LinearTicks partition is returned instead. Output is ascending.
func AdaptiveTicks(min, max float64, n int) []float64 {
	if n <= 0 {
		n = DefaultTickCount
	}
	if math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	lo, hi := math.Min(min, max), math.Max(min, max)
	ts := newTickSet(lo, hi)
	ts.add(lo)
	ts.add(hi)
	if lo < 0 && hi > 0 {
		ts.add(0)
	}

	powMin := exponent(lo, math.Floor)
	powMax := exponent(hi, math.Ceil)

	if powMin < 0 {
		for i := powMin; i <= 0; i++ {
			ts.scan(decade(i, 1, base-1, -1))
			ts.scan(decade(i, 1, base-1, 1))
		}
	}

	for i := 0; i < powMin; i++ {
		ts.scan(decade(i, 0, base-1, -1))
	}
	for i := 0; i < powMax; i++ {
		ts.scan(decade(i, 0, base-1, 1))
	}

	if float64(len(ts.values)) < float64(n)/2 {
		ticks := LinearTicks(lo, hi, n)
		sort.Float64s(ticks)
		return ticks
	}

	sort.Float64s(ts.values)
	return ts.values
}

// IsPowerOfTen reports whether |v| is an integral power of ten.
func IsPowerOfTen(v float64) bool {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	a := math.Abs(v)
	p := math.Round(math.Log10(a))
	return math.Abs(a-math.Pow(10, p)) <= 1e-12*a
}
