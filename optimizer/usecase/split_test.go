package usecase

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/jexdex/aggregator-engine/domain"
	evaluatorusecase "github.com/jexdex/aggregator-engine/evaluator/usecase"
	"github.com/jexdex/aggregator-engine/pools"
	routeusecase "github.com/jexdex/aggregator-engine/router/usecase"
)

func tok(id string, decimals int) domain.Token {
	return domain.Token{Identifier: id, Decimals: decimals}
}

func newTwoPoolEvaluator() (*evaluatorusecase.Evaluator, routeusecase.Route, routeusecase.Route) {
	wegld := "WEGLD-bd4d79"
	usdc := "USDC-c76f1f"

	poolA := pools.NewXExchangePool("scA", tok("LP-a", 18), math.NewInt(1_000_000),
		300, 0,
		tok(wegld, 18), math.NewInt(50_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(150_000_000_000_000))
	poolB := pools.NewOneDexPool("scB", tok("LP-b", 18), math.NewInt(1_000_000),
		300, []string{wegld},
		tok(wegld, 18), math.NewInt(40_000_000_000_000_000_000_000),
		tok(usdc, 6), math.NewInt(120_000_000_000_000))

	source := modelByVenue{
		domain.VenueXExchange: poolA,
		domain.VenueOneDex:    poolB,
	}

	evaluator := evaluatorusecase.NewEvaluator(source, domain.EvaluatorConfig{
		FeeTokenIdentifier:       wegld,
		FeeMultiplierNumerator:   50,
		FeeMultiplierDenominator: 100_000,
	})

	routeA := routeusecase.Route{
		TokenIn: wegld, TokenOut: usdc,
		Hops: []routeusecase.Hop{{
			Pool:     domain.SwapPool{Name: "poolA", SCAddress: "scA", Type: domain.VenueXExchange, TokensIn: []string{wegld, usdc}, TokensOut: []string{wegld, usdc}},
			TokenIn:  wegld,
			TokenOut: usdc,
		}},
	}
	routeB := routeusecase.Route{
		TokenIn: wegld, TokenOut: usdc,
		Hops: []routeusecase.Hop{{
			Pool:     domain.SwapPool{Name: "poolB", SCAddress: "scB", Type: domain.VenueOneDex, TokensIn: []string{wegld, usdc}, TokensOut: []string{wegld, usdc}},
			TokenIn:  wegld,
			TokenOut: usdc,
		}},
	}

	return evaluator, routeA, routeB
}

// modelByVenue resolves a pricing model by venue type, standing in for
// store.PoolStore.Model in these fixtures (each venue maps to exactly one
// pool here, so the (tokenIn, tokenOut) arguments are unambiguous).
type modelByVenue map[domain.VenueType]domain.PricingModel

func (m modelByVenue) Model(venue domain.VenueType, tokenIn, tokenOut string) (domain.PricingModel, bool) {
	model, ok := m[venue]
	return model, ok
}

func TestBucketed_AllocatesAcrossDisjointRoutes(t *testing.T) {
	evaluator, routeA, routeB := newTwoPoolEvaluator()
	opt := NewBucketed(evaluator, 20)

	result, err := opt.Allocate(context.Background(), []routeusecase.Route{routeA, routeB},
		math.NewInt(10_000_000_000_000_000_000_000), 3)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Allocations, 2)
	require.True(t, result.NetAmountOut.IsPositive())

	// Property 8: disjointness holds pairwise across the chosen routes.
	require.True(t, routeusecase.Disjoint(result.Allocations[0].Evaluation.Route, result.Allocations[1].Evaluation.Route))

	sum := math.ZeroInt()
	for _, a := range result.Allocations {
		sum = sum.Add(a.AmountIn)
	}
	require.Equal(t, "10000000000000000000000", sum.String())
}

func TestBucketed_RequiresAtLeastTwoOfflineRoutes(t *testing.T) {
	evaluator, routeA, _ := newTwoPoolEvaluator()
	opt := NewBucketed(evaluator, 20)

	result, err := opt.Allocate(context.Background(), []routeusecase.Route{routeA}, math.NewInt(1_000), 3)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestTenPercentStep_FindsABetterOrEqualSplitThanEdges(t *testing.T) {
	evaluator, routeA, routeB := newTwoPoolEvaluator()
	strat := &TenPercentStep{Evaluator: evaluator}

	amountIn := math.NewInt(10_000_000_000_000_000_000_000)
	result, err := strat.Allocate(context.Background(), []routeusecase.Route{routeA, routeB}, amountIn, 3)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Allocations, 2)

	allA, err := evaluator.Evaluate(context.Background(), routeA, amountIn, nil, false)
	require.NoError(t, err)
	require.True(t, result.NetAmountOut.GTE(allA.NetAmountOut))
}

func TestTheoreticalWeighted_AllocatesProportionally(t *testing.T) {
	evaluator, routeA, routeB := newTwoPoolEvaluator()
	strat := &TheoreticalWeighted{Evaluator: evaluator}

	result, err := strat.Allocate(context.Background(), []routeusecase.Route{routeA, routeB},
		math.NewInt(10_000_000_000_000_000_000_000), 3)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Allocations, 2)

	sum := math.ZeroInt()
	for _, a := range result.Allocations {
		sum = sum.Add(a.AmountIn)
	}
	require.Equal(t, "10000000000000000000000", sum.String())
}
