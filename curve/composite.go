package curve

import (
	"sort"

	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/domain"
)

// CompositeMaxIterations bounds the AshSwap V2 / Curve-crypto family's Newton
// solvers. AshSwap's own reference tolerates more iterations than the
// stable-swap family's MaxIterations before giving up (ashswap.py's
// MAX_ITERATIONS = 255); reusing the stable-swap cap here would reject
// legitimate composite-pool quotes that need the extra headroom to converge.
const CompositeMaxIterations = 255

// Constants for the two-asset composite reserve-invariant solver (AshSwap
// V2 / Curve-crypto style), ported from the Python AMPLIFICATION/GAMMA bounds.
var (
	aMultiplier = math.NewInt(10_000)
	minGamma    = math.NewInt(10_000_000_000)         // 10**10
	maxGamma    = math.NewInt(20_000_000_000_000_000) // 2 * 10**16
	precision   = pow10(18)
)

func pow10(n int) math.Int {
	v := math.NewInt(1)
	ten := math.NewInt(10)
	for i := 0; i < n; i++ {
		v = v.Mul(ten)
	}
	return v
}

// GeometricMean computes the n-asset geometric mean used to seed NewtonD's
// initial guess, iterating the same fixed-point scheme as Curve's reference
// simulation.
func GeometricMean(x []math.Int) (math.Int, error) {
	nCoins := math.NewInt(int64(len(x)))
	d := x[0]

	for iter := 0; iter < CompositeMaxIterations; iter++ {
		dPrev := d
		tmp := precision
		for _, xi := range x {
			tmp = tmp.Mul(xi).Quo(d)
		}
		d = d.Mul(nCoins.SubRaw(1).Mul(precision).Add(tmp)).Quo(nCoins.Mul(precision))

		diff := absDiff(d, dPrev)
		if diff.LTE(one) || diff.Mul(precision).LT(d) {
			return d, nil
		}
	}

	return math.Int{}, domain.DidNotConvergeError{Solver: "curve.GeometricMean", Iterations: CompositeMaxIterations}
}

// NewtonD solves for the composite invariant D given unsorted balances x and
// the pool's current ann/gamma parameters. It enforces the same safety bounds
// on ann, gamma, and x as the Python reference and reports violations as
// domain.UnsafeValueError rather than panicking.
func NewtonD(ann, gamma math.Int, xUnsorted []math.Int) (math.Int, error) {
	nCoins := int64(len(xUnsorted))
	n := math.NewInt(nCoins)

	minA := n.Mul(n).Mul(aMultiplier).QuoRaw(10)
	maxA := n.Mul(n).Mul(aMultiplier).MulRaw(10_000)
	if ann.LTE(minA.SubRaw(1)) || ann.GTE(maxA.AddRaw(1)) {
		return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonD", Reason: "invalid ann"}
	}
	if gamma.LTE(minGamma.SubRaw(1)) || gamma.GTE(maxGamma.AddRaw(1)) {
		return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonD", Reason: "invalid gamma"}
	}

	x := make([]math.Int, len(xUnsorted))
	copy(x, xUnsorted)
	sort.Slice(x, func(i, j int) bool { return x[i].LT(x[j]) })

	if x[0].LTE(pow10(9).SubRaw(1)) || x[0].GT(pow10(33)) {
		return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonD", Reason: "invalid x0"}
	}
	if x[1].Mul(precision).Quo(x[0]).LTE(pow10(14).SubRaw(1)) {
		return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonD", Reason: "invalid x1"}
	}

	gm, err := GeometricMean(x)
	if err != nil {
		return math.Int{}, err
	}
	d := gm.Mul(n)
	s := sum(x)

	nPowN := n.Mul(n) // n_coins ** n_coins, only valid for n_coins == 2

	for iter := 0; iter < CompositeMaxIterations; iter++ {
		dPrev := d

		k0 := x[0].Mul(precision).Mul(nPowN).Mul(x[1]).Quo(d.Mul(d))

		g1k0 := absDiff(k0, gamma.Add(precision)).AddRaw(1)

		mul1 := d.Mul(precision).Mul(g1k0).Mul(g1k0).Mul(aMultiplier).Quo(gamma.Mul(gamma).Mul(ann))
		mul2 := precision.MulRaw(2).Mul(n).Mul(k0).Quo(g1k0)

		negFprime := s.Add(s.Mul(mul2).Quo(precision)).Add(mul1.Mul(n).Quo(k0)).Sub(mul2.Mul(d).Quo(precision))

		dPlus := d.Mul(negFprime.Add(s)).Quo(negFprime)
		dMinus := d.Mul(d).Quo(negFprime)

		if precision.GT(k0) {
			dMinus = dMinus.Add(d.Mul(mul1.Quo(negFprime)).Quo(precision).Mul(precision.Sub(k0)).Quo(k0))
		} else {
			dMinus = dMinus.Sub(d.Mul(mul1.Quo(negFprime)).Quo(precision).Mul(k0.Sub(precision)).Quo(k0))
		}

		if dPlus.GT(dMinus) {
			d = dPlus.Sub(dMinus)
		} else {
			d = dMinus.Sub(dPlus).QuoRaw(2)
		}

		diff := absDiff(d, dPrev)
		maxD := bignumMax(d, pow10(16))

		if diff.MulRaw(100_000_000_000_000).LT(maxD) {
			for _, xi := range x {
				frac := xi.Mul(precision).Quo(d)
				if frac.LTE(pow10(16).SubRaw(1)) || frac.GT(pow10(20).AddRaw(1)) {
					return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonD", Reason: "unsafe value"}
				}
			}
			return d, nil
		}
	}

	return math.Int{}, domain.DidNotConvergeError{Solver: "curve.NewtonD", Iterations: CompositeMaxIterations}
}

// NewtonY solves for x[i] in the composite two-asset invariant, holding D and
// the other token's balance fixed.
func NewtonY(ann, gamma math.Int, x []math.Int, d math.Int, i int) (math.Int, error) {
	nCoins := int64(len(x))
	n := math.NewInt(nCoins)

	minA := n.Mul(n).Mul(aMultiplier).QuoRaw(10)
	maxA := n.Mul(n).Mul(aMultiplier).MulRaw(10_000)
	if ann.LTE(minA.SubRaw(1)) || ann.GTE(maxA.AddRaw(1)) {
		return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonY", Reason: "unsafe value A"}
	}
	if gamma.LTE(minGamma.SubRaw(1)) || gamma.GTE(maxGamma.AddRaw(1)) {
		return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonY", Reason: "unsafe value gamma"}
	}
	if d.LTE(pow10(17).SubRaw(1)) || d.GT(pow10(33)) {
		return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonY", Reason: "invalid d"}
	}

	for k := 0; k < len(x); k++ {
		if k == i {
			continue
		}
		frac := x[k].Mul(precision).Quo(d)
		if frac.LTE(pow10(16).SubRaw(1)) || frac.GTE(pow10(20).SubRaw(1)) {
			return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonY", Reason: "unsafe value"}
		}
	}

	j := 1 - i
	xj := x[j]
	y := d.Mul(d).Quo(xj.Mul(n).Mul(n))
	k0i := xj.Mul(precision).Mul(n).Quo(d)
	if k0i.LTE(n.Mul(pow10(16)).SubRaw(1)) || k0i.GT(n.Mul(pow10(20)).AddRaw(1)) {
		return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonY", Reason: "unsafe value"}
	}

	convergenceLimit := bignumMax(xj.Quo(pow10(14)), d.Quo(pow10(14)))
	convergenceLimit = bignumMax(convergenceLimit, math.NewInt(100))

	y2 := math.NewInt(2)

	for iter := 0; iter < CompositeMaxIterations; iter++ {
		yPrev := y
		k0 := k0i.Mul(y).Mul(n).Quo(d)
		s := xj.Add(y)

		g1k0 := absDiff(k0, gamma.Add(precision)).AddRaw(1)

		mul1 := d.Mul(precision).Quo(gamma).Mul(g1k0).Quo(gamma).Mul(g1k0).Mul(aMultiplier).Quo(ann)
		mul2 := k0.MulRaw(2).Mul(precision).Quo(g1k0).Add(precision)

		yfprime := y.Mul(precision).Add(s.Mul(mul2)).Add(mul1)
		dyfprime := d.Mul(mul2)

		if yfprime.LT(dyfprime) {
			y = yPrev.Quo(y2)
			continue
		}
		yfprime = yfprime.Sub(dyfprime)

		fprime := yfprime.Quo(y)

		yMinus := mul1.Quo(fprime)
		yPlus := d.Mul(precision).Add(yfprime).Quo(fprime).Add(yMinus.Mul(precision).Quo(k0))
		yMinus = yMinus.Add(s.Mul(precision).Quo(fprime))

		if yPlus.LT(yMinus) {
			y = yPrev.Quo(y2)
		} else {
			y = yPlus.Sub(yMinus)
		}

		diff := absDiff(y, yPrev)
		limit := bignumMax(convergenceLimit, y.Quo(pow10(14)))

		if diff.LT(limit) {
			frac := y.Mul(precision).Quo(d)
			if frac.LTE(pow10(16).SubRaw(1)) || frac.GT(pow10(20).AddRaw(1)) {
				return math.Int{}, domain.UnsafeValueError{Solver: "curve.NewtonY", Reason: "unsafe value for y"}
			}
			return y, nil
		}
	}

	return math.Int{}, domain.DidNotConvergeError{Solver: "curve.NewtonY", Iterations: CompositeMaxIterations}
}

func bignumMax(a, b math.Int) math.Int {
	if a.GT(b) {
		return a
	}
	return b
}
