package usecase

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/jexdex/aggregator-engine/domain"
	"github.com/jexdex/aggregator-engine/pools"
	routeusecase "github.com/jexdex/aggregator-engine/router/usecase"
)

func tok(id string, decimals int) domain.Token {
	return domain.Token{Identifier: id, Decimals: decimals}
}

type edgeKey struct {
	venue             domain.VenueType
	tokenIn, tokenOut string
}

type fakePoolModelSource map[edgeKey]domain.PricingModel

func (f fakePoolModelSource) Model(venue domain.VenueType, tokenIn, tokenOut string) (domain.PricingModel, bool) {
	m, ok := f[edgeKey{venue, tokenIn, tokenOut}]
	return m, ok
}

func hop(scAddress string, venue domain.VenueType, tokenIn, tokenOut string) routeusecase.Hop {
	return routeusecase.Hop{
		Pool:     domain.SwapPool{SCAddress: scAddress, Type: venue, TokensIn: []string{tokenIn}, TokensOut: []string{tokenOut}},
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
	}
}

const (
	wegld = "WEGLD-bd4d79"
	usdc  = "USDC-c76f1f"
	mex   = "MEX-455c57"
)

func TestEvaluate_SingleHop_NeverAppliesAggregatorFee(t *testing.T) {
	poolA := pools.NewXExchangePool("scA", tok("LP-a", 18), math.NewInt(1),
		300, 0, tok(wegld, 18), math.NewInt(50_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(150_000_000_000_000))

	src := fakePoolModelSource{{domain.VenueXExchange, wegld, usdc}: poolA}
	e := NewEvaluator(src, domain.EvaluatorConfig{FeeTokenIdentifier: wegld, FeeMultiplierNumerator: 50, FeeMultiplierDenominator: 100_000})

	route := routeusecase.Route{TokenIn: wegld, TokenOut: usdc, Hops: []routeusecase.Hop{hop("scA", domain.VenueXExchange, wegld, usdc)}}

	eval, err := e.Evaluate(context.Background(), route, math.NewInt(1_000_000_000_000_000_000_000), nil, false)
	require.NoError(t, err)
	require.True(t, eval.FeeAmount.IsZero())
	require.Equal(t, "", eval.FeeToken)
	require.True(t, eval.NetAmountOut.IsPositive())
}

func TestEvaluate_MultiHop_AppliesFeeOnFirstFeeTokenHop(t *testing.T) {
	poolA := pools.NewXExchangePool("scA", tok("LP-a", 18), math.NewInt(1),
		300, 0, tok(wegld, 18), math.NewInt(50_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(150_000_000_000_000))
	poolB := pools.NewXExchangePool("scB", tok("LP-b", 18), math.NewInt(1),
		300, 0, tok(usdc, 6), math.NewInt(150_000_000_000_000),
		tok(mex, 18), math.NewInt(900_000_000_000_000_000_000_000))

	src := fakePoolModelSource{
		{domain.VenueXExchange, wegld, usdc}: poolA,
		{domain.VenueXExchange, usdc, mex}:   poolB,
	}
	e := NewEvaluator(src, domain.EvaluatorConfig{FeeTokenIdentifier: wegld, FeeMultiplierNumerator: 50, FeeMultiplierDenominator: 100_000})

	route := routeusecase.Route{
		TokenIn: wegld, TokenOut: mex,
		Hops: []routeusecase.Hop{
			hop("scA", domain.VenueXExchange, wegld, usdc),
			hop("scB", domain.VenueXExchange, usdc, mex),
		},
	}

	amountIn := math.NewInt(1_000_000_000_000_000_000_000)
	eval, err := e.Evaluate(context.Background(), route, amountIn, nil, false)
	require.NoError(t, err)
	require.Equal(t, wegld, eval.FeeToken)
	require.Equal(t, amountIn.MulRaw(50).QuoRaw(100_000), eval.FeeAmount)
	require.True(t, eval.NetAmountOut.IsPositive())
}

// S7: a two-hop constant-product route (30 bps per hop) nets out exactly the
// second hop's quote_out chained from the first, less the 5 bps aggregator
// fee applied once on the input-side fee token (spec.md §8 S7).
func TestEvaluate_TwoHop_S7NetsOutChainedQuotesMinusAggregatorFee(t *testing.T) {
	poolA := pools.NewXExchangePool("scA", tok("LP-a", 18), math.NewInt(1),
		300, 0, tok(wegld, 18), math.NewInt(50_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(150_000_000_000_000))
	poolB := pools.NewXExchangePool("scB", tok("LP-b", 18), math.NewInt(1),
		300, 0, tok(usdc, 6), math.NewInt(150_000_000_000_000),
		tok(mex, 18), math.NewInt(900_000_000_000_000_000_000_000))

	src := fakePoolModelSource{
		{domain.VenueXExchange, wegld, usdc}: poolA,
		{domain.VenueXExchange, usdc, mex}:   poolB,
	}
	e := NewEvaluator(src, domain.EvaluatorConfig{FeeTokenIdentifier: wegld, FeeMultiplierNumerator: 5, FeeMultiplierDenominator: 10_000})

	route := routeusecase.Route{
		TokenIn: wegld, TokenOut: mex,
		Hops: []routeusecase.Hop{
			hop("scA", domain.VenueXExchange, wegld, usdc),
			hop("scB", domain.VenueXExchange, usdc, mex),
		},
	}

	amountIn := math.NewInt(1_000_000_000_000_000_000_000)
	eval, err := e.Evaluate(context.Background(), route, amountIn, nil, false)
	require.NoError(t, err)

	feeAmount := amountIn.MulRaw(5).QuoRaw(10_000)
	afterFee := amountIn.Sub(feeAmount)
	quote1, err := poolA.QuoteOut(wegld, afterFee, usdc)
	require.NoError(t, err)
	quote2, err := poolB.QuoteOut(usdc, quote1.Amount, mex)
	require.NoError(t, err)

	require.True(t, eval.NetAmountOut.Equal(quote2.Amount))
	require.True(t, eval.FeeAmount.Equal(feeAmount))
	require.Equal(t, wegld, eval.FeeToken)
}

func TestEvaluate_MultiHop_SkipsFeeWhenAnyHopIsANoFeeVenue(t *testing.T) {
	poolA := pools.NewXExchangePool("scA", tok("LP-a", 18), math.NewInt(1),
		300, 0, tok(wegld, 18), math.NewInt(50_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(150_000_000_000_000))
	hEGLD := tok("HEGLD", 18)
	mint := &pools.ConstantPricePool{
		SCAddress: "scMM", Venue: domain.VenueHatomMoneyMarketMint,
		Price: math.NewInt(1_000_000_000_000_000_000), TokenIn: tok(usdc, 6), TokenOut: hEGLD,
		TokenOutReserve: math.NewInt(1_000_000_000_000_000_000_000),
	}

	src := fakePoolModelSource{
		{domain.VenueXExchange, wegld, usdc}:               poolA,
		{domain.VenueHatomMoneyMarketMint, usdc, "HEGLD"}: mint,
	}
	e := NewEvaluator(src, domain.EvaluatorConfig{FeeTokenIdentifier: wegld, FeeMultiplierNumerator: 50, FeeMultiplierDenominator: 100_000})

	route := routeusecase.Route{
		TokenIn: wegld, TokenOut: "HEGLD",
		Hops: []routeusecase.Hop{
			hop("scA", domain.VenueXExchange, wegld, usdc),
			hop("scMM", domain.VenueHatomMoneyMarketMint, usdc, "HEGLD"),
		},
	}

	eval, err := e.Evaluate(context.Background(), route, math.NewInt(1_000_000_000_000_000_000_000), nil, false)
	require.NoError(t, err)
	require.True(t, eval.FeeAmount.IsZero())
	require.Equal(t, "", eval.FeeToken)
}

func TestEvaluate_HopTokenMismatchReturnsInvalidTokenError(t *testing.T) {
	poolA := pools.NewXExchangePool("scA", tok("LP-a", 18), math.NewInt(1),
		300, 0, tok(wegld, 18), math.NewInt(50_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(150_000_000_000_000))
	src := fakePoolModelSource{{domain.VenueXExchange, wegld, usdc}: poolA}
	e := NewEvaluator(src, domain.EvaluatorConfig{})

	route := routeusecase.Route{
		TokenIn: mex, TokenOut: usdc,
		Hops: []routeusecase.Hop{hop("scA", domain.VenueXExchange, wegld, usdc)},
	}

	_, err := e.Evaluate(context.Background(), route, math.NewInt(1_000), nil, false)
	require.Error(t, err)
	var invalidTok domain.InvalidTokenError
	require.ErrorAs(t, err, &invalidTok)
}

func TestEvaluate_UnknownEdgeReturnsInvalidTokenError(t *testing.T) {
	e := NewEvaluator(fakePoolModelSource{}, domain.EvaluatorConfig{})

	route := routeusecase.Route{
		TokenIn: wegld, TokenOut: usdc,
		Hops: []routeusecase.Hop{hop("scA", domain.VenueXExchange, wegld, usdc)},
	}

	_, err := e.Evaluate(context.Background(), route, math.NewInt(1_000), nil, false)
	require.Error(t, err)
}

func TestEvaluate_UpdateReserves_MutatesOnlyTheDeepCopy(t *testing.T) {
	poolA := pools.NewXExchangePool("scA", tok("LP-a", 18), math.NewInt(1),
		300, 0, tok(wegld, 18), math.NewInt(50_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(150_000_000_000_000))
	src := fakePoolModelSource{{domain.VenueXExchange, wegld, usdc}: poolA}
	e := NewEvaluator(src, domain.EvaluatorConfig{})

	route := routeusecase.Route{TokenIn: wegld, TokenOut: usdc, Hops: []routeusecase.Hop{hop("scA", domain.VenueXExchange, wegld, usdc)}}

	cache := map[PoolCacheKey]domain.PricingModel{}
	_, err := e.Evaluate(context.Background(), route, math.NewInt(1_000_000_000_000_000_000_000), cache, true)
	require.NoError(t, err)

	// poolA itself, the value returned by Model(), must be untouched: only
	// the deep copy stashed in poolsCache may have mutated reserves.
	before, err := poolA.TheoreticalOut(wegld, math.NewInt(1_000_000_000_000_000_000_000), usdc)
	require.NoError(t, err)

	second, err := e.Evaluate(context.Background(), route, math.NewInt(1_000_000_000_000_000_000_000), nil, false)
	require.NoError(t, err)
	require.Equal(t, before, second.TheoreticalAmountOut)
}

func TestEvaluateIn_ReverseWalk_GrossesUpAggregatorFee(t *testing.T) {
	poolA := pools.NewXExchangePool("scA", tok("LP-a", 18), math.NewInt(1),
		300, 0, tok(wegld, 18), math.NewInt(50_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(150_000_000_000_000))
	poolB := pools.NewXExchangePool("scB", tok("LP-b", 18), math.NewInt(1),
		300, 0, tok(usdc, 6), math.NewInt(150_000_000_000_000),
		tok(mex, 18), math.NewInt(900_000_000_000_000_000_000_000))

	src := fakePoolModelSource{
		{domain.VenueXExchange, wegld, usdc}: poolA,
		{domain.VenueXExchange, usdc, mex}:   poolB,
	}
	e := NewEvaluator(src, domain.EvaluatorConfig{FeeTokenIdentifier: wegld, FeeMultiplierNumerator: 50, FeeMultiplierDenominator: 100_000})

	route := routeusecase.Route{
		TokenIn: wegld, TokenOut: mex,
		Hops: []routeusecase.Hop{
			hop("scA", domain.VenueXExchange, wegld, usdc),
			hop("scB", domain.VenueXExchange, usdc, mex),
		},
	}

	netOut := math.NewInt(1_000_000_000_000_000_000)
	eval, err := e.EvaluateIn(context.Background(), route, netOut, nil, false)
	require.NoError(t, err)
	require.Equal(t, netOut, eval.NetAmountOut)
	require.True(t, eval.AmountIn.IsPositive())
	require.True(t, eval.FeeAmount.IsPositive())
	// EvaluateIn grosses the fee up on the output side before walking hops,
	// so FeeToken is the route's output token, not the configured fee token.
	require.Equal(t, mex, eval.FeeToken)
}
