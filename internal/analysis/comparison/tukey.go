package comparison

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// Nodes per Gauss-Legendre panel for the two nested integrals.
const legendreNodes = 24

// Above this many degrees of freedom the scale factor is treated as exactly 1.
const largeDF = 25000

// rangePanels split z for the range integral; the normal density is
// negligible outside them.
var rangePanels = [][2]float64{{-8, -4}, {-4, -1.5}, {-1.5, 0}, {0, 1.5}, {1.5, 4}, {4, 8}}

// scalePanels split the chi-square probability axis, denser in both tails.
var scalePanels = [][2]float64{{0, 0.001}, {0.001, 0.02}, {0.02, 0.2}, {0.2, 0.8}, {0.8, 0.98}, {0.98, 0.999}, {0.999, 1}}

// quantiles memoizes StudentizedRangeQuantile by quantileKey. Each solve
// costs hundreds of CDF integrations, and charts reuse the same alpha, group
// count and df across requests.
var quantiles sync.Map

type quantileKey struct {
	p  float64
	k  int
	df float64
}

// rangeCDF is P(range of k standard normals <= w).
func rangeCDF(w float64, k int) float64 {
	if w <= 0 {
		return 0
	}
	kf := float64(k)
	f := func(z float64) float64 {
		d := distuv.UnitNormal.CDF(z) - distuv.UnitNormal.CDF(z-w)
		if d <= 0 {
			return 0
		}
		return distuv.UnitNormal.Prob(z) * math.Pow(d, kf-1)
	}
	var sum float64
	for _, p := range rangePanels {
		sum += quad.Fixed(f, p[0], p[1], legendreNodes, quad.Legendre{}, 1)
	}
	return math.Min(1, kf*sum)
}

// StudentizedRangeCDF is P(Q <= q) for the studentized range of k groups
// with df error degrees of freedom.
//
// Q = R / S where S^2 ~ chi2(df)/df. Integrating over the chi-square
// probability u instead of S keeps every panel finite:
// P(Q <= q) = integral over u in (0,1) of rangeCDF(q * sqrt(chi2inv(u)/df)).
func StudentizedRangeCDF(q float64, k int, df float64) float64 {
	if q <= 0 || k < 2 || df < 1 || math.IsNaN(q) {
		return 0
	}
	if math.IsInf(q, 1) {
		return 1
	}
	if df > largeDF {
		return rangeCDF(q, k)
	}
	chi := distuv.ChiSquared{K: df}
	f := func(u float64) float64 {
		s := math.Sqrt(chi.Quantile(u) / df)
		return rangeCDF(q*s, k)
	}
	var sum float64
	for _, p := range scalePanels {
		sum += quad.Fixed(f, p[0], p[1], legendreNodes, quad.Legendre{}, 1)
	}
	return math.Max(0, math.Min(1, sum))
}

// StudentizedRangeQuantile returns q with P(Q <= q) = p, found by
// bracketing and bisection. Returns NaN for unusable parameters.
func StudentizedRangeQuantile(p float64, k int, df float64) float64 {
	if p <= 0 || p >= 1 || k < 2 || df < 1 {
		return math.NaN()
	}
	key := quantileKey{p: p, k: k, df: df}
	if q, ok := quantiles.Load(key); ok {
		return q.(float64)
	}
	q := solveQuantile(p, k, df)
	quantiles.Store(key, q)
	return q
}

func solveQuantile(p float64, k int, df float64) float64 {
	lo, hi := 0.0, 1.0
	for StudentizedRangeCDF(hi, k, df) < p {
		lo = hi
		hi *= 2
		if hi > 1e4 {
			return math.NaN()
		}
	}
	for i := 0; i < 60 && hi-lo > 1e-9*hi; i++ {
		mid := (lo + hi) / 2
		if StudentizedRangeCDF(mid, k, df) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
