// Package bignum collects the small set of arbitrary-precision helpers
// shared by the curve solvers and pricing models: decimal normalization,
// ceiling division, and cached powers of ten. Everything downstream of this
// package uses cosmossdk.io/math.Int exclusively; no floating point is used
// anywhere along the quoting hot path (spec.md §9).
package bignum

import (
	"math/big"
	"sync"

	"cosmossdk.io/math"
)

// Precision18 is the normalization target used by stable-swap and
// constant-price math (spec.md §3, §4.2): every reserve/amount is scaled to
// 18 decimals before it enters curve math.
const Precision18 = 18

var (
	pow10Mu    sync.Mutex
	pow10Cache = map[int]math.Int{}
)

// Pow10 returns 10^n as an Int, memoized since it is recomputed on every
// normalize/denormalize call in the hot path.
func Pow10(n int) math.Int {
	if n < 0 {
		panic("bignum: negative exponent")
	}

	pow10Mu.Lock()
	defer pow10Mu.Unlock()

	if v, ok := pow10Cache[n]; ok {
		return v
	}

	v := math.NewIntFromBigInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil))
	pow10Cache[n] = v
	return v
}

// CeilDiv computes ⌈num/den⌉ for non-negative num and positive den, matching
// the ceiling-division inverse formulas of spec.md §4.2.
func CeilDiv(num, den math.Int) math.Int {
	if den.IsZero() {
		panic("bignum: division by zero")
	}
	q := num.Quo(den)
	r := num.Sub(q.Mul(den))
	if r.IsPositive() {
		q = q.AddRaw(1)
	}
	return q
}

// Normalize rescales amount (expressed with `decimals` decimals) up to the
// 18-decimal normalized space used by stable-swap and constant-price math.
func Normalize(amount math.Int, decimals int) math.Int {
	if decimals >= Precision18 {
		return amount.Quo(Pow10(decimals - Precision18))
	}
	return amount.Mul(Pow10(Precision18 - decimals))
}

// Denormalize is the inverse of Normalize: it rescales an 18-decimal amount
// down to a token's native decimals, floor-dividing.
func Denormalize(amount math.Int, decimals int) math.Int {
	if decimals >= Precision18 {
		return amount.Mul(Pow10(decimals - Precision18))
	}
	return amount.Quo(Pow10(Precision18 - decimals))
}

// Min returns the smaller of a and b.
func Min(a, b math.Int) math.Int {
	if a.LT(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b math.Int) math.Int {
	if a.GT(b) {
		return a
	}
	return b
}

// Sqrt returns the integer square root of a non-negative Int (floor),
// via big.Int's exact-integer Newton implementation. Used by the
// constant-product zap-deposit optimal-swap-amount formula (spec.md §4.2).
func Sqrt(a math.Int) math.Int {
	if a.IsNegative() {
		panic("bignum: sqrt of negative value")
	}
	return math.NewIntFromBigInt(new(big.Int).Sqrt(a.BigInt()))
}
