package usecase

import (
	"github.com/jexdex/aggregator-engine/domain"
)

// PoolSource is the read-only view of the pool graph the router searches,
// satisfied by store.PoolStore.
type PoolSource interface {
	PoolsFrom(token string) []domain.SwapPool
}

// FindRoutes runs the bounded-hop BFS of spec.md §4.3: it searches up to
// maxHops hops first, and if that search yields nothing, keeps extending the
// search one hop at a time up to maxHops2, stopping at the first depth that
// yields a route (the "widen on empty" fallback), grounded on
// opendex_aggregator_api/services/routes.py's find_routes/_find_routes_inner.
func FindRoutes(pools PoolSource, tokenIn, tokenOut string, maxHops, maxHops2, maxRoutes int) []Route {
	results := findRoutesInner(pools, tokenOut, maxHops, maxHops2, maxRoutes,
		[]Route{{TokenIn: tokenIn, TokenOut: ""}})
	return results
}

func findRoutesInner(pools PoolSource, tokenOut string, maxHops, maxHops2, maxRoutes int, candidates []Route) []Route {
	var results []Route
	search(pools, tokenOut, maxHops, maxHops2, maxRoutes, candidates, &results)
	return results
}

func search(pools PoolSource, tokenOut string, maxHops, maxHops2, maxRoutes int, candidates []Route, results *[]Route) {
	if maxHops == 0 && len(*results) > 0 {
		return
	}
	if maxHops2 == 0 {
		return
	}

	var newCandidates []Route

	for _, route := range candidates {
		var tokenIn string
		if len(route.Hops) > 0 {
			tokenIn = route.Hops[len(route.Hops)-1].TokenOut
		} else {
			tokenIn = route.TokenIn
		}

		for _, pool := range pools.PoolsFrom(tokenIn) {
			for _, t := range pool.TokensOut {
				if t == tokenIn || t == route.TokenIn {
					continue
				}

				nextHop := Hop{Pool: pool, TokenIn: tokenIn, TokenOut: t}
				nextRoute := Route{
					TokenIn:  route.TokenIn,
					TokenOut: t,
					Hops:     append(append([]Hop(nil), route.Hops...), nextHop),
				}

				if nextRoute.TokenOut == tokenOut {
					if len(*results) < maxRoutes {
						*results = append(*results, nextRoute)
					}
				} else {
					newCandidates = append(newCandidates, nextRoute)
				}
			}
		}
	}

	if len(newCandidates) > 0 && len(*results) < maxRoutes {
		search(pools, tokenOut, max0(maxHops-1), max0(maxHops2-1), maxRoutes, newCandidates, results)
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
