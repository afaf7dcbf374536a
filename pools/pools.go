// Package pools implements one domain.PricingModel per venue family named in
// SPEC_FULL.md §1. Every constant-product variant holds a shared reserves
// value for its reserve bookkeeping and implements only the fee/quote
// formulas that differ, mirroring the teacher's own embedding-over-inheritance idiom
// (router/usecase/route/route.go's GetTokenOutDenom-style small interfaces).
package pools

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/domain"
)

// reserves is the shared (first_token, second_token) reserve pair every
// constant-product family is built from, grounded on
// opendex_aggregator_api/pools/pools.py's ConstantProductPool.
type reserves struct {
	firstToken     domain.Token
	firstReserves  math.Int
	secondToken    domain.Token
	secondReserves math.Int
}

func (r reserves) pick(tokenIn, tokenOut string) (in, out math.Int, err error) {
	switch {
	case tokenIn == r.firstToken.Identifier && tokenOut == r.secondToken.Identifier:
		return r.firstReserves, r.secondReserves, nil
	case tokenIn == r.secondToken.Identifier && tokenOut == r.firstToken.Identifier:
		return r.secondReserves, r.firstReserves, nil
	default:
		return math.Int{}, math.Int{}, domain.InvalidTokenError{Token: tokenIn}
	}
}

func (r *reserves) apply(tokenIn string, amountIn math.Int, amountOut math.Int) {
	if tokenIn == r.firstToken.Identifier {
		r.firstReserves = r.firstReserves.Add(amountIn)
		r.secondReserves = r.secondReserves.Sub(amountOut)
	} else {
		r.secondReserves = r.secondReserves.Add(amountIn)
		r.firstReserves = r.firstReserves.Sub(amountOut)
	}
}

func (r reserves) exchangeRate(scAddress, source string) []domain.ExchangeRate {
	if r.firstReserves.IsZero() || r.secondReserves.IsZero() {
		return nil
	}

	rateNum := r.secondReserves.Mul(pow10(r.firstToken.Decimals))
	rateDen := r.firstReserves.Mul(pow10(r.secondToken.Decimals))
	if rateDen.IsZero() {
		return nil
	}

	rate, _ := new(big.Rat).SetFrac(rateNum.BigInt(), rateDen.BigInt()).Float64()
	rate2 := 0.0
	if rate != 0 {
		rate2 = 1 / rate
	}

	return []domain.ExchangeRate{{
		BaseToken:      r.firstToken.Identifier,
		QuoteToken:     r.secondToken.Identifier,
		Rate:           rate,
		Rate2:          rate2,
		BaseLiquidity:  r.firstReserves,
		QuoteLiquidity: r.secondReserves,
		SCAddress:      scAddress,
		Source:         source,
	}}
}

func (r reserves) lpComposition(lpToken domain.Token, lpSupply math.Int) (domain.LPComposition, bool) {
	return domain.LPComposition{
		LPTokenIdentifier: lpToken.Identifier,
		LPTokenSupply:     lpSupply,
		TokenIdentifiers:  []string{r.firstToken.Identifier, r.secondToken.Identifier},
		TokenReserves:     []math.Int{r.firstReserves, r.secondReserves},
	}, true
}

func pow10(n int) math.Int {
	v := math.NewInt(1)
	ten := math.NewInt(10)
	for i := 0; i < n; i++ {
		v = v.Mul(ten)
	}
	return v
}
