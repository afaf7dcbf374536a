// Package curve implements the Curve-style stable-swap invariant solvers
// (D, y, y_D) shared by the stable-swap pricing models in package pools.
// Every solver is a direct, faithful port of the Python reference
// implementation's fixed-point Newton iteration, translated to
// cosmossdk.io/math.Int arithmetic with floor division throughout.
package curve

import (
	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/domain"
)

// MaxIterations bounds every solver below; none of them are expected to need
// more than a handful of iterations for realistic reserves, but a hard cap
// keeps a malformed pool snapshot from hanging the evaluator.
const MaxIterations = 128

var one = math.NewInt(1)

func absDiff(a, b math.Int) math.Int {
	if a.GT(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

func sum(xs []math.Int) math.Int {
	s := math.ZeroInt()
	for _, x := range xs {
		s = s.Add(x)
	}
	return s
}

// D computes the stable-swap invariant for n balanced token amounts, given
// amplification coefficient amp. Returns domain.DidNotConvergeError if the
// fixed-point iteration fails to settle within MaxIterations.
func D(amp math.Int, amounts []math.Int) (math.Int, error) {
	nCoins := math.NewInt(int64(len(amounts)))
	ann := amp.Mul(nCoins)
	s := sum(amounts)
	if s.IsZero() {
		return math.ZeroInt(), nil
	}

	d := s
	dPrev := math.ZeroInt()

	for i := 0; i < MaxIterations; i++ {
		dP := d
		for _, a := range amounts {
			dP = dP.Mul(d).Quo(a.Mul(nCoins))
		}
		dPrev = d

		dNum := ann.Mul(s).Add(dP.Mul(nCoins)).Mul(d)
		dDen := ann.SubRaw(1).Mul(d).Add(nCoins.AddRaw(1).Mul(dP))
		d = dNum.Quo(dDen)

		if absDiff(dPrev, d).LTE(one) {
			return d, nil
		}
	}

	return math.Int{}, domain.DidNotConvergeError{Solver: "curve.D", Iterations: MaxIterations}
}

// Y solves for x[iTokenOut] given that x[iTokenIn] is fixed to
// tokenInBalance, holding the invariant D constant. amounts is consumed as a
// working copy; callers must pass a fresh slice (or one they don't need
// afterwards) since this mutates amounts[iTokenIn] in place.
func Y(amp math.Int, amounts []math.Int, iTokenIn, iTokenOut int, tokenInBalance math.Int) (math.Int, error) {
	nCoins := math.NewInt(int64(len(amounts)))
	d, err := D(amp, amounts)
	if err != nil {
		return math.Int{}, err
	}
	ann := amp.Mul(nCoins)

	amounts[iTokenIn] = tokenInBalance

	others := make([]math.Int, 0, len(amounts)-1)
	for k, a := range amounts {
		if k != iTokenOut {
			others = append(others, a)
		}
	}

	c := d
	for _, y := range others {
		c = c.Mul(d).Quo(y.Mul(nCoins))
	}
	c = c.Mul(d).Quo(nCoins.Mul(ann))
	b := sum(others).Add(d.Quo(ann)).Sub(d)

	y := d
	yPrev := math.ZeroInt()

	for i := 0; i < MaxIterations; i++ {
		yPrev = y
		y = y.Mul(y).Add(c).Quo(math.NewInt(2).Mul(y).Add(b))

		if absDiff(yPrev, y).LTE(one) {
			return y, nil
		}
	}

	return math.Int{}, domain.DidNotConvergeError{Solver: "curve.Y", Iterations: MaxIterations}
}

// YD solves for x[i] given the target invariant value dTarget, holding every
// other token's amount fixed. Used by imbalanced deposit/withdraw pricing.
func YD(amp math.Int, amounts []math.Int, i int, dTarget math.Int) (math.Int, error) {
	nCoins := math.NewInt(int64(len(amounts)))

	others := make([]math.Int, 0, len(amounts)-1)
	for k, a := range amounts {
		if k != i {
			others = append(others, a)
		}
	}
	s := sum(others)
	ann := amp.Mul(nCoins)

	c := dTarget
	for _, y := range others {
		c = c.Mul(dTarget).Quo(y.Mul(nCoins))
	}
	c = c.Mul(dTarget).Quo(nCoins.Mul(ann))
	b := s.Add(dTarget.Quo(ann))

	y := dTarget
	yPrev := math.ZeroInt()

	for iter := 0; iter < MaxIterations; iter++ {
		yPrev = y
		y = y.Mul(y).Add(c).Quo(math.NewInt(2).Mul(y).Add(b).Sub(dTarget))

		if absDiff(yPrev, y).LTE(one) {
			return y, nil
		}
	}

	return math.Int{}, domain.DidNotConvergeError{Solver: "curve.YD", Iterations: MaxIterations}
}
