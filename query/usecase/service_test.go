package usecase

import (
	"context"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/jexdex/aggregator-engine/domain"
	evaluatorusecase "github.com/jexdex/aggregator-engine/evaluator/usecase"
	optimizerusecase "github.com/jexdex/aggregator-engine/optimizer/usecase"
	"github.com/jexdex/aggregator-engine/pools"
	routeusecase "github.com/jexdex/aggregator-engine/router/usecase"
)

func tok(id string, decimals int) domain.Token {
	return domain.Token{Identifier: id, Decimals: decimals}
}

type fakeRouter struct {
	routes []routeusecase.Route
	err    error
}

func (f fakeRouter) Routes(ctx context.Context, tokenIn, tokenOut string) ([]routeusecase.Route, error) {
	return f.routes, f.err
}

type fakeModelByVenue map[domain.VenueType]domain.PricingModel

func (m fakeModelByVenue) Model(venue domain.VenueType, tokenIn, tokenOut string) (domain.PricingModel, bool) {
	model, ok := m[venue]
	return model, ok
}

type fakeTokens struct {
	byID map[string]domain.Token
}

func (f fakeTokens) Known(identifier string) (domain.Token, bool) {
	t, ok := f.byID[identifier]
	return t, ok
}

func (f fakeTokens) All() []domain.Token {
	out := make([]domain.Token, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out
}

type fakeReady struct{ ready bool }

func (f fakeReady) Ready() bool { return f.ready }

func buildFixture(t *testing.T) (*Service, routeusecase.Route, routeusecase.Route) {
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

	modelSrc := fakeModelByVenue{
		domain.VenueXExchange: poolA,
		domain.VenueOneDex:    poolB,
	}

	evalCfg := domain.EvaluatorConfig{
		FeeTokenIdentifier:       wegld,
		FeeMultiplierNumerator:   50,
		FeeMultiplierDenominator: 100_000,
		SplitMaxRoutes:           3,
		SplitBuckets:             20,
	}
	evaluator := evaluatorusecase.NewEvaluator(modelSrc, evalCfg)

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

	router := fakeRouter{routes: []routeusecase.Route{routeA, routeB}}
	optimizer := optimizerusecase.NewBucketed(evaluator, 20)
	tokens := fakeTokens{byID: map[string]domain.Token{wegld: tok(wegld, 18), usdc: tok(usdc, 6)}}
	ready := fakeReady{ready: true}

	routerCfg := domain.RouterConfig{MaxOnlineRoutes: 5}
	svc := NewService(router, evaluator, optimizer, tokens, ready, nil, routerCfg, evalCfg, nil)

	return svc, routeA, routeB
}

func TestService_Evaluate_PicksBestSingleRoute(t *testing.T) {
	svc, _, _ := buildFixture(t)

	amt := math.NewInt(1_000_000_000_000_000_000_000)
	result, err := svc.Evaluate(context.Background(), "WEGLD-bd4d79", "USDC-c76f1f", &amt, nil, 3, false)
	require.NoError(t, err)
	require.NotNil(t, result.Static)
	require.Nil(t, result.Dynamic)
	require.True(t, result.Static.NetAmountOut.IsPositive())
}

func TestService_Evaluate_RejectsBothAmounts(t *testing.T) {
	svc, _, _ := buildFixture(t)

	amt := math.NewInt(1_000)
	_, err := svc.Evaluate(context.Background(), "WEGLD-bd4d79", "USDC-c76f1f", &amt, &amt, 3, false)
	require.ErrorIs(t, err, domain.ErrBothAmountsSupplied)
}

func TestService_Evaluate_WithDynRoutingReturnsSplitWhenBetter(t *testing.T) {
	svc, _, _ := buildFixture(t)

	amt := math.NewInt(10_000_000_000_000_000_000_000)
	result, err := svc.Evaluate(context.Background(), "WEGLD-bd4d79", "USDC-c76f1f", &amt, nil, 3, true)
	require.NoError(t, err)
	require.NotNil(t, result.Static)
	if result.Dynamic != nil {
		require.True(t, result.Dynamic.NetAmountOut.GT(result.Static.NetAmountOut))
	}
}

func TestService_MultiEval_RejectsOversizedBatch(t *testing.T) {
	svc, _, _ := buildFixture(t)

	reqs := make([]MultiEvalRequest, 11)
	for i := range reqs {
		reqs[i] = MultiEvalRequest{TokenIdentifier: "WEGLD-bd4d79", AmountIn: math.NewInt(1)}
	}

	_, err := svc.MultiEval(context.Background(), "USDC-c76f1f", reqs)
	require.ErrorIs(t, err, domain.ErrMultiEvalSizeOutOfRange)
}

func TestService_Ready(t *testing.T) {
	svc, _, _ := buildFixture(t)
	require.True(t, svc.Ready())
}

type countingRouter struct {
	routes []routeusecase.Route
	calls  *int
}

func (c countingRouter) Routes(ctx context.Context, tokenIn, tokenOut string) ([]routeusecase.Route, error) {
	*c.calls++
	return c.routes, nil
}

func TestService_Evaluate_CachesRepeatedRequest(t *testing.T) {
	_, routeA, _ := buildFixture(t)

	wegld, usdc := "WEGLD-bd4d79", "USDC-c76f1f"
	pricing := fakeModelByVenue{domain.VenueXExchange: pools.NewXExchangePool("scA", tok(wegld+usdc+"-LP", 18), math.NewInt(1), 300, 0,
		tok(wegld, 18), math.NewInt(1_000_000_000_000_000_000_000), tok(usdc, 6), math.NewInt(1_000_000_000))}
	evalCfg := domain.EvaluatorConfig{FeeTokenIdentifier: wegld, FeeMultiplierNumerator: 50, FeeMultiplierDenominator: 100_000, SplitMaxRoutes: 3, SplitBuckets: 20}
	evaluator := evaluatorusecase.NewEvaluator(pricing, evalCfg)
	optimizer := optimizerusecase.NewBucketed(evaluator, 20)
	tokens := fakeTokens{byID: map[string]domain.Token{wegld: tok(wegld, 18), usdc: tok(usdc, 6)}}
	ready := fakeReady{ready: true}

	calls := 0
	router := countingRouter{routes: []routeusecase.Route{routeA}, calls: &calls}
	svc := NewService(router, evaluator, optimizer, tokens, ready, nil, domain.RouterConfig{MaxOnlineRoutes: 5, RouteCacheTTL: 0}, evalCfg, nil)

	amt := math.NewInt(1_000_000_000_000_000_000_000)
	_, err := svc.Evaluate(context.Background(), wegld, usdc, &amt, nil, 3, false)
	require.NoError(t, err)
	_, err = svc.Evaluate(context.Background(), wegld, usdc, &amt, nil, 3, false)
	require.NoError(t, err)

	// The second identical Evaluate call is served from the evaluation
	// cache and never reaches router.Routes.
	require.Equal(t, 1, calls)
}

func TestService_Tokens_ListsKnownTokens(t *testing.T) {
	svc, _, _ := buildFixture(t)
	out := svc.Tokens(context.Background())
	require.Len(t, out, 2)
}
