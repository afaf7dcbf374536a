package usecase

import (
	"context"
	"sort"

	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/domain"
	evaluatorusecase "github.com/jexdex/aggregator-engine/evaluator/usecase"
	routeusecase "github.com/jexdex/aggregator-engine/router/usecase"
)

// TenPercentStep implements find_best_dynamic_routing_algo1: a binary
// two-route search that tries every 10%/90%...90%/10% split between the two
// best-ranked disjoint offline routes and keeps the split with the highest
// combined net output. Supplemental: spec.md §4.5 mandates Bucketed for the
// query service; this strategy exists for diagnostics and tests.
type TenPercentStep struct {
	Evaluator *evaluatorusecase.Evaluator
}

func (s *TenPercentStep) Allocate(ctx context.Context, routes []routeusecase.Route, amountIn math.Int, maxRoutes int) (*Result, error) {
	candidates := offlineOnly(routes)
	if len(candidates) < 2 {
		return nil, nil
	}

	var first, second routeusecase.Route
	foundFirst := false
	for _, r := range candidates {
		if !foundFirst {
			first, foundFirst = r, true
			continue
		}
		if routeusecase.Disjoint(first, r) {
			second = r
			break
		}
	}
	if second.TokenIn == "" {
		return nil, nil
	}

	var best *Result
	for pct := int64(10); pct <= 90; pct += 10 {
		amtA := amountIn.MulRaw(pct).QuoRaw(100)
		amtB := amountIn.Sub(amtA)
		if amtA.IsZero() || amtB.IsZero() {
			continue
		}

		evalA, err := s.Evaluator.Evaluate(ctx, first, amtA, map[evaluatorusecase.PoolCacheKey]domain.PricingModel{}, false)
		if err != nil {
			continue
		}
		evalB, err := s.Evaluator.Evaluate(ctx, second, amtB, map[evaluatorusecase.PoolCacheKey]domain.PricingModel{}, false)
		if err != nil {
			continue
		}

		total := evalA.NetAmountOut.Add(evalB.NetAmountOut)
		if best == nil || total.GT(best.NetAmountOut) {
			best = &Result{
				Allocations: []Allocation{
					{Evaluation: evalA, AmountIn: amtA},
					{Evaluation: evalB, AmountIn: amtB},
				},
				NetAmountOut: total,
			}
		}
	}

	return best, nil
}

// TheoreticalWeighted implements find_best_dynamic_routing_algo2: a
// single-pass allocation that weights amountIn across the top maxRoutes
// pairwise-disjoint routes proportionally to each route's impact-free
// theoretical output for the full amount, then evaluates each at its
// weighted share. Supplemental: see TenPercentStep's doc comment.
type TheoreticalWeighted struct {
	Evaluator *evaluatorusecase.Evaluator
}

func (s *TheoreticalWeighted) Allocate(ctx context.Context, routes []routeusecase.Route, amountIn math.Int, maxRoutes int) (*Result, error) {
	candidates := offlineOnly(routes)
	if len(candidates) < 2 {
		return nil, nil
	}
	if maxRoutes <= 0 {
		maxRoutes = 3
	}

	type weighted struct {
		route   routeusecase.Route
		theoOut math.Int
	}

	var picked []weighted
	for _, r := range candidates {
		ok := true
		for _, p := range picked {
			if !routeusecase.Disjoint(r, p.route) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		eval, err := s.Evaluator.Evaluate(ctx, r, amountIn, map[evaluatorusecase.PoolCacheKey]domain.PricingModel{}, false)
		if err != nil {
			continue
		}
		picked = append(picked, weighted{route: r, theoOut: eval.TheoreticalAmountOut})
		if len(picked) >= maxRoutes {
			break
		}
	}

	if len(picked) < 2 {
		return nil, nil
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].theoOut.GT(picked[j].theoOut)
	})

	totalWeight := math.ZeroInt()
	for _, w := range picked {
		totalWeight = totalWeight.Add(w.theoOut)
	}
	if !totalWeight.IsPositive() {
		return nil, nil
	}

	allocations := make([]Allocation, 0, len(picked))
	allocated := math.ZeroInt()
	total := math.ZeroInt()

	for i, w := range picked {
		var share math.Int
		if i == len(picked)-1 {
			share = amountIn.Sub(allocated)
		} else {
			share = amountIn.Mul(w.theoOut).Quo(totalWeight)
		}
		allocated = allocated.Add(share)
		if !share.IsPositive() {
			continue
		}

		eval, err := s.Evaluator.Evaluate(ctx, w.route, share, map[evaluatorusecase.PoolCacheKey]domain.PricingModel{}, false)
		if err != nil {
			return nil, nil
		}
		allocations = append(allocations, Allocation{Evaluation: eval, AmountIn: share})
		total = total.Add(eval.NetAmountOut)
	}

	if len(allocations) < 2 {
		return nil, nil
	}

	return &Result{Allocations: allocations, NetAmountOut: total}, nil
}
