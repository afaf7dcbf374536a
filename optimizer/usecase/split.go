// Package usecase implements the split-route optimizer: for a fixed input
// amount, it searches an allocation across pairwise-disjoint routes that
// raises total net output above the best single route (spec.md §4.5).
//
// Three strategies are provided behind the shared SplitStrategy interface,
// grounded on opendex_aggregator_api/services/evaluations.py:
//   - Bucketed (find_best_dynamic_routing_algo3): the mandated strategy,
//     greedy bucketed allocation with a persistent pools_cache.
//   - TenPercentStep (find_best_dynamic_routing_algo1): a binary two-route
//     search in 10% steps. Kept as a diagnostics/test-only alternative.
//   - TheoreticalWeighted (find_best_dynamic_routing_algo2): a single-pass
//     allocation weighted by each route's theoretical (impact-free) output.
//     Kept as a diagnostics/test-only alternative.
package usecase

import (
	"context"

	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/domain"
	evaluatorusecase "github.com/jexdex/aggregator-engine/evaluator/usecase"
	routeusecase "github.com/jexdex/aggregator-engine/router/usecase"
)

// Allocation is one route's share of a split-route plan.
type Allocation struct {
	Evaluation evaluatorusecase.Evaluation
	AmountIn   math.Int
}

// Result is a split-route execution plan: the Python DynamicRoutingSwapEvaluation.
type Result struct {
	Allocations  []Allocation
	NetAmountOut math.Int
}

// SplitStrategy allocates amountIn across some subset of routes, returning
// nil if no allocation is found (fewer than two eligible disjoint routes, or
// every candidate fails to evaluate).
//
// Whether the result is *strictly better* than the best single route is a
// query-service-level decision (spec.md §4.6 step 5), not this interface's
// concern.
type SplitStrategy interface {
	Allocate(ctx context.Context, routes []routeusecase.Route, amountIn math.Int, maxRoutes int) (*Result, error)
}

// offlineOnly filters out routes containing an online-only hop: the
// optimizer only ever reasons about offline (CPU-bound, reserve-mutating)
// evaluation (spec.md §4.5 step 1).
func offlineOnly(routes []routeusecase.Route) []routeusecase.Route {
	out := make([]routeusecase.Route, 0, len(routes))
	for _, r := range routes {
		online := false
		for _, h := range r.Hops {
			if h.Pool.Type.IsOnlineOnly() {
				online = true
				break
			}
		}
		if !online {
			out = append(out, r)
		}
	}
	return out
}

func disjointFromAll(r routeusecase.Route, chosen []routeusecase.Route) bool {
	for _, c := range chosen {
		if !routeusecase.Disjoint(r, c) {
			return false
		}
	}
	return true
}

// Bucketed implements find_best_dynamic_routing_algo3: the greedy bucketed
// allocator spec.md §4.5 mandates the query service use.
type Bucketed struct {
	Evaluator *evaluatorusecase.Evaluator
	// Buckets is N in spec.md §4.5 step 2. spec.md specifies N = 20, a
	// deliberate redesign over the Python original's N = 10 (see
	// SPEC_FULL.md §4.5 / DESIGN.md); domain.EvaluatorConfig.SplitBuckets
	// carries this value at runtime.
	Buckets int
}

func NewBucketed(evaluator *evaluatorusecase.Evaluator, buckets int) *Bucketed {
	if buckets <= 0 {
		buckets = 20
	}
	return &Bucketed{Evaluator: evaluator, Buckets: buckets}
}

// splitAmount divides amountIn into Buckets equal parts, the first bucket
// absorbing the remainder, and drops zero buckets (spec.md §4.5 step 2).
func splitAmount(amountIn math.Int, buckets int) []math.Int {
	if buckets <= 0 {
		buckets = 1
	}
	share := amountIn.QuoRaw(int64(buckets))
	if share.IsZero() {
		return []math.Int{amountIn}
	}
	remainder := amountIn.Sub(share.MulRaw(int64(buckets)))

	out := make([]math.Int, 0, buckets)
	for i := 0; i < buckets; i++ {
		amt := share
		if i == 0 {
			amt = amt.Add(remainder)
		}
		if amt.IsPositive() {
			out = append(out, amt)
		}
	}
	return out
}

func (b *Bucketed) Allocate(ctx context.Context, routes []routeusecase.Route, amountIn math.Int, maxRoutes int) (*Result, error) {
	candidates := offlineOnly(routes)
	if len(candidates) < 2 {
		return nil, nil
	}
	if maxRoutes <= 0 {
		maxRoutes = 3
	}

	buckets := splitAmount(amountIn, b.Buckets)

	// pools_cache: a persistent evaluator cache mutated by update_reserves
	// across buckets (spec.md §4.5 step 3), shared with the package one
	// level up (evaluator/usecase) via the exported PoolCacheKey type.
	poolsCache := map[evaluatorusecase.PoolCacheKey]domain.PricingModel{}

	chosenOrder := make([]routeusecase.Route, 0, maxRoutes)
	amountPerRoute := map[uint64]math.Int{}

	for _, bucketAmount := range buckets {
		pool := candidates
		if len(amountPerRoute) >= maxRoutes {
			pool = chosenOrder
		}

		var bestRoute routeusecase.Route
		var bestEval evaluatorusecase.Evaluation
		haveBest := false

		for _, r := range pool {
			_, alreadyChosen := amountPerRoute[r.ID()]
			if !alreadyChosen && !disjointFromAll(r, chosenOrder) {
				continue
			}

			// Read-only trial: QuoteOut/TheoreticalOut never mutate a cached
			// model, so evaluating every candidate against the live
			// poolsCache with update_reserves=false is safe and still
			// reflects every prior bucket's committed impact (spec.md §4.5
			// step 4, "evaluate each candidate against the current
			// pools_cache (read-only)").
			eval, err := b.Evaluator.Evaluate(ctx, r, bucketAmount, poolsCache, false)
			if err != nil {
				continue
			}
			if !haveBest || eval.NetAmountOut.GT(bestEval.NetAmountOut) {
				bestRoute, bestEval, haveBest = r, eval, true
			}
		}

		if !haveBest {
			continue
		}

		if _, err := b.Evaluator.Evaluate(ctx, bestRoute, bucketAmount, poolsCache, true); err != nil {
			continue
		}

		id := bestRoute.ID()
		if _, ok := amountPerRoute[id]; !ok {
			chosenOrder = append(chosenOrder, bestRoute)
			amountPerRoute[id] = math.ZeroInt()
		}
		amountPerRoute[id] = amountPerRoute[id].Add(bucketAmount)
	}

	if len(amountPerRoute) < 2 {
		return nil, nil
	}

	// Step 5: verify by re-evaluating each chosen route standalone with its
	// final cumulative amount against a fresh cache.
	allocations := make([]Allocation, 0, len(chosenOrder))
	total := math.ZeroInt()
	for _, r := range chosenOrder {
		amt := amountPerRoute[r.ID()]
		eval, err := b.Evaluator.Evaluate(ctx, r, amt, nil, false)
		if err != nil {
			return nil, nil
		}
		allocations = append(allocations, Allocation{Evaluation: eval, AmountIn: amt})
		total = total.Add(eval.NetAmountOut)
	}

	return &Result{Allocations: allocations, NetAmountOut: total}, nil
}
