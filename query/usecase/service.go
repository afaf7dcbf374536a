// Package usecase orchestrates route lookup, parallel per-route evaluation,
// and the optional split-route optimizer into the query API spec.md §6
// names: routes, evaluate, multi_eval, tokens, ready. Grounded on the
// teacher's router/usecase/router.go request-handling shape, generalized
// from a single quote computation to this engine's three-stage pipeline.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/math"
	"go.uber.org/zap"

	"github.com/jexdex/aggregator-engine/domain"
	"github.com/jexdex/aggregator-engine/domain/cache"
	evaluatorusecase "github.com/jexdex/aggregator-engine/evaluator/usecase"
	"github.com/jexdex/aggregator-engine/log"
	optimizerusecase "github.com/jexdex/aggregator-engine/optimizer/usecase"
	routeusecase "github.com/jexdex/aggregator-engine/router/usecase"
	"github.com/jexdex/aggregator-engine/slices"
)

// maxTotalRoutes is the total-route cutoff of spec.md §4.6 step 2; the
// online-only cutoff is the per-Service maxOnline field, sourced from
// domain.RouterConfig.MaxOnlineRoutes.
const maxTotalRoutes = 100

// evalChunkSize bounds how many routes are evaluated concurrently at once,
// grounded on the teacher's slices.Split chunking pattern (e.g.
// domain/orderbook/grpcclient's FetchTickUnrealizedCancels), adapted from
// "one sequential RPC call per chunk" to "one bounded burst of goroutines
// per chunk" so a wide candidate set can't spawn hundreds of evaluation
// goroutines in one shot.
const evalChunkSize = 32

// RouterSource is the subset of router.Router the service depends on.
type RouterSource interface {
	Routes(ctx context.Context, tokenIn, tokenOut string) ([]routeusecase.Route, error)
}

// TokenSource resolves and enumerates known tokens for the tokens() API.
type TokenSource interface {
	Known(identifier string) (domain.Token, bool)
	All() []domain.Token
}

// ReadySource reports whether the store has published at least one
// snapshot.
type ReadySource interface {
	Ready() bool
}

// Service is the query façade's single collaborator: everything the HTTP
// delivery layer calls goes through here.
type Service struct {
	router    RouterSource
	evaluator *evaluatorusecase.Evaluator
	optimizer optimizerusecase.SplitStrategy
	tokens    TokenSource
	ready     ReadySource
	usdPrices domain.USDPriceOracle
	config    domain.EvaluatorConfig
	maxOnline int
	logger    log.Logger

	// evalCache/evalLeases cache and coalesce evaluate() results the same
	// way router.Router caches and coalesces routes(): a short-TTL
	// domain/cache.Cache keyed on the full request shape, guarded by a
	// per-key in-flight WaitGroup so concurrent identical evaluate() calls
	// share one evaluation run (spec.md §5).
	evalCache    *cache.Cache
	evalCacheTTL time.Duration
	evalLeaseMu  sync.Mutex
	evalLeases   map[string]*sync.WaitGroup
}

func NewService(router RouterSource, evaluator *evaluatorusecase.Evaluator, optimizer optimizerusecase.SplitStrategy, tokens TokenSource, ready ReadySource, usdPrices domain.USDPriceOracle, cfg domain.RouterConfig, evalCfg domain.EvaluatorConfig, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		router: router, evaluator: evaluator, optimizer: optimizer,
		tokens: tokens, ready: ready, usdPrices: usdPrices, config: evalCfg,
		maxOnline: cfg.MaxOnlineRoutes, logger: logger,
		evalCache: cache.New(), evalCacheTTL: cfg.EvaluationCacheTTL,
		evalLeases: map[string]*sync.WaitGroup{},
	}
}

// TokenOut is the tokens() API's per-token response shape (spec.md §6):
// metadata plus an optional reporting-only USD price, never consulted by
// routing or evaluation (spec.md §1 Non-goals).
type TokenOut struct {
	Identifier string
	Decimals   int
	Ticker     string
	USDPrice   *float64
}

// Tokens implements spec.md §6 tokens(): every token known to the registry,
// enriched with a USD price for the two identifiers the oracle covers
// (typically the fee token and the chain's native wrapped token) when an
// oracle is configured.
func (s *Service) Tokens(ctx context.Context) []TokenOut {
	known := s.tokens.All()
	out := make([]TokenOut, 0, len(known))
	for _, t := range known {
		entry := TokenOut{Identifier: t.Identifier, Decimals: t.Decimals, Ticker: t.Ticker}
		if s.usdPrices != nil {
			if price, ok, err := s.usdPrices.USDPrice(ctx, t.Identifier); err == nil && ok {
				entry.USDPrice = &price
			}
		}
		out = append(out, entry)
	}
	return out
}

// cutoffRoutes applies spec.md §4.6 step 2: at most 100 routes total, and at
// most MaxOnlineRoutes online-only routes among them.
func (s *Service) cutoffRoutes(routes []routeusecase.Route) []routeusecase.Route {
	out := make([]routeusecase.Route, 0, len(routes))
	online := 0
	for _, r := range routes {
		if len(out) >= maxTotalRoutes {
			break
		}
		isOnline := false
		for _, h := range r.Hops {
			if h.Pool.Type.IsOnlineOnly() {
				isOnline = true
				break
			}
		}
		if isOnline {
			if online >= s.maxOnline {
				continue
			}
			online++
		}
		out = append(out, r)
	}
	return out
}

// Routes returns the sorted, cutoff candidate routes for tokenIn/tokenOut
// (spec.md §6 routes()). maxHops is only range-checked (0, or 1 to 4): it
// does not change the search, which always runs at the router's configured
// hop bounds and is cached per token pair regardless of maxHops.
func (s *Service) Routes(ctx context.Context, tokenIn, tokenOut string, maxHops int) ([]routeusecase.Route, error) {
	if maxHops != 0 && (maxHops < 1 || maxHops > 4) {
		return nil, domain.ErrMaxHopsOutOfRange
	}

	routes, err := s.router.Routes(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return s.cutoffRoutes(routes), nil
}

// Evaluation is the query-level result of evaluate(): the best single route
// plus, when requested, a strictly-better split-route plan.
type Evaluation struct {
	Static  *evaluatorusecase.Evaluation
	Dynamic *optimizerusecase.Result
}

// evaluateCacheKey identifies one evaluate() request shape, so concurrent
// identical requests share one evaluation run and a short TTL window of
// repeats serve from cache (spec.md §5).
func evaluateCacheKey(tokenIn, tokenOut string, amountIn, netAmountOut *math.Int, maxHops int, withDynRouting bool) string {
	amount := "in:-"
	if amountIn != nil {
		amount = "in:" + amountIn.String()
	} else if netAmountOut != nil {
		amount = "out:" + netAmountOut.String()
	}
	return fmt.Sprintf("%s->%s|%s|hops:%d|dyn:%t", tokenIn, tokenOut, amount, maxHops, withDynRouting)
}

// Evaluate implements spec.md §6 evaluate(): exactly one of amountIn /
// netAmountOut must be non-nil.
func (s *Service) Evaluate(ctx context.Context, tokenIn, tokenOut string, amountIn, netAmountOut *math.Int, maxHops int, withDynRouting bool) (Evaluation, error) {
	if (amountIn == nil) == (netAmountOut == nil) {
		if amountIn == nil {
			return Evaluation{}, domain.ErrNeitherAmountSupplied
		}
		return Evaluation{}, domain.ErrBothAmountsSupplied
	}

	key := evaluateCacheKey(tokenIn, tokenOut, amountIn, netAmountOut, maxHops, withDynRouting)
	if v, ok := s.evalCache.Get(key); ok {
		return v.(Evaluation), nil
	}

	s.evalLeaseMu.Lock()
	if wg, inFlight := s.evalLeases[key]; inFlight {
		s.evalLeaseMu.Unlock()
		wg.Wait()
		if v, ok := s.evalCache.Get(key); ok {
			return v.(Evaluation), nil
		}
		return s.evaluate(ctx, tokenIn, tokenOut, amountIn, netAmountOut, maxHops, withDynRouting)
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	s.evalLeases[key] = wg
	s.evalLeaseMu.Unlock()

	defer func() {
		s.evalLeaseMu.Lock()
		delete(s.evalLeases, key)
		s.evalLeaseMu.Unlock()
		wg.Done()
	}()

	result, err := s.evaluate(ctx, tokenIn, tokenOut, amountIn, netAmountOut, maxHops, withDynRouting)
	if err == nil {
		s.evalCache.Set(key, result, s.evalCacheTTL)
	}
	return result, err
}

// evaluate runs the actual routes -> evaluation -> optimizer pipeline
// (spec.md §4.6), uncached. Evaluate wraps this with the cache/coalescing
// lease above.
func (s *Service) evaluate(ctx context.Context, tokenIn, tokenOut string, amountIn, netAmountOut *math.Int, maxHops int, withDynRouting bool) (Evaluation, error) {
	routes, err := s.Routes(ctx, tokenIn, tokenOut, maxHops)
	if err != nil {
		return Evaluation{}, err
	}
	if len(routes) == 0 {
		return Evaluation{}, domain.ErrUnknownToken
	}

	evals := s.evaluateAllConcurrently(ctx, routes, amountIn, netAmountOut)
	if len(evals) == 0 {
		return Evaluation{}, domain.InsufficientLiquidityError{PoolAddress: "", AmountOut: math.ZeroInt(), ReserveOut: math.ZeroInt()}
	}

	sortEvaluations(evals, amountIn != nil)
	best := evals[0]

	result := Evaluation{Static: &best}

	if withDynRouting {
		var dyn *optimizerusecase.Result
		if amountIn != nil {
			dyn, err = s.optimizer.Allocate(ctx, routes, *amountIn, s.config.SplitMaxRoutes)
		}
		if err == nil && dyn != nil && dyn.NetAmountOut.GT(best.NetAmountOut) {
			result.Dynamic = dyn
		}
	}

	return result, nil
}

func (s *Service) evaluateAllConcurrently(ctx context.Context, routes []routeusecase.Route, amountIn, netAmountOut *math.Int) []evaluatorusecase.Evaluation {
	out := make([]evaluatorusecase.Evaluation, 0, len(routes))

	for _, chunk := range slices.Split(routes, evalChunkSize) {
		results := make([]*evaluatorusecase.Evaluation, len(chunk))

		var wg sync.WaitGroup
		wg.Add(len(chunk))
		for i, r := range chunk {
			go func(i int, r routeusecase.Route) {
				defer wg.Done()

				var eval evaluatorusecase.Evaluation
				var err error
				if amountIn != nil {
					eval, err = s.evaluator.Evaluate(ctx, r, *amountIn, nil, false)
				} else {
					eval, err = s.evaluator.EvaluateIn(ctx, r, *netAmountOut, nil, false)
				}
				if err != nil {
					s.logger.Debug("route evaluation failed, dropping", zap.Error(err))
					return
				}
				results[i] = &eval
			}(i, r)
		}
		wg.Wait()

		for _, r := range results {
			if r != nil {
				out = append(out, *r)
			}
		}
	}
	return out
}

// sortEvaluations orders by net_amount_out desc for fixed-input, or
// amount_in asc for fixed-output (spec.md §4.6 step 4).
func sortEvaluations(evals []evaluatorusecase.Evaluation, fixedInput bool) {
	sort.SliceStable(evals, func(i, j int) bool {
		if fixedInput {
			return evals[i].NetAmountOut.GT(evals[j].NetAmountOut)
		}
		return evals[i].AmountIn.LT(evals[j].AmountIn)
	})
}

// MultiEvalRequest is one entry of the multi_eval() batch (spec.md §6).
type MultiEvalRequest struct {
	TokenIdentifier string
	AmountIn        math.Int
}

// MultiEval implements spec.md §6 multi_eval(): up to 10 independent
// fixed-input evaluations against a single tokenOut, run concurrently.
func (s *Service) MultiEval(ctx context.Context, tokenOut string, requests []MultiEvalRequest) ([]*evaluatorusecase.Evaluation, error) {
	if len(requests) == 0 || len(requests) > 10 {
		return nil, domain.ErrMultiEvalSizeOutOfRange
	}

	out := make([]*evaluatorusecase.Evaluation, len(requests))
	var wg sync.WaitGroup
	wg.Add(len(requests))
	for i, req := range requests {
		go func(i int, req MultiEvalRequest) {
			defer wg.Done()
			amt := req.AmountIn
			eval, err := s.Evaluate(ctx, req.TokenIdentifier, tokenOut, &amt, nil, 0, false)
			if err != nil {
				s.logger.Debug("multi_eval entry failed, dropping", zap.Error(err))
				return
			}
			out[i] = eval.Static
		}(i, req)
	}
	wg.Wait()

	return out, nil
}

// Ready implements spec.md §6 ready().
func (s *Service) Ready() bool {
	return s.ready.Ready()
}
