package usecase

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jexdex/aggregator-engine/domain"
	"github.com/jexdex/aggregator-engine/domain/cache"
)

// maxCachedRoutePairs bounds how many distinct token-pair keys the route
// cache retains at once. The TTL cache alone only bounds entries by time;
// under a long RouteCacheTTL and a wide spread of distinct pairs it would
// otherwise grow unboundedly until entries age out. recentPairs evicts the
// least-recently-used pair's cache entry once this bound is exceeded,
// independent of its TTL.
const maxCachedRoutePairs = 2048

// Router discovers and caches candidate routes between a token pair,
// grounded on the teacher's router/usecase/router.go TTL-cached lookup
// pattern, generalized from single-hop quoting to this engine's
// bounded-hop BFS (spec.md §4.3).
type Router struct {
	pools  PoolSource
	config domain.RouterConfig

	routeCache  *cache.Cache
	recentPairs *lru.Cache[string, struct{}]

	leaseMu sync.Mutex
	leases  map[string]*sync.WaitGroup
}

func NewRouter(pools PoolSource, config domain.RouterConfig) *Router {
	return newRouterWithPairCapacity(pools, config, maxCachedRoutePairs)
}

// newRouterWithPairCapacity lets tests exercise recentPairs eviction without
// actually populating 2048 distinct token pairs.
func newRouterWithPairCapacity(pools PoolSource, config domain.RouterConfig, capacity int) *Router {
	r := &Router{
		pools:      pools,
		config:     config,
		routeCache: cache.New(),
		leases:     map[string]*sync.WaitGroup{},
	}
	// onEvicted always succeeds: NewWithEvict with a fixed positive size
	// never returns an error.
	r.recentPairs, _ = lru.NewWithEvict[string, struct{}](capacity, func(key string, _ struct{}) {
		r.routeCache.Delete(key)
	})
	return r
}

func cacheKey(tokenIn, tokenOut string) string {
	return fmt.Sprintf("%s->%s", tokenIn, tokenOut)
}

// Routes returns the sorted candidate routes for tokenIn -> tokenOut,
// serving from the TTL cache when warm and coalescing concurrent misses for
// the same key onto a single BFS run (spec.md §5: "one caller recomputes,
// concurrent callers wait for the first writer").
func (r *Router) Routes(ctx context.Context, tokenIn, tokenOut string) ([]Route, error) {
	key := cacheKey(tokenIn, tokenOut)

	if v, ok := r.routeCache.Get(key); ok {
		r.recentPairs.Get(key)
		return v.([]Route), nil
	}

	r.leaseMu.Lock()
	if wg, inFlight := r.leases[key]; inFlight {
		r.leaseMu.Unlock()
		wg.Wait()
		if v, ok := r.routeCache.Get(key); ok {
			return v.([]Route), nil
		}
		return nil, domain.ErrNotReady
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	r.leases[key] = wg
	r.leaseMu.Unlock()

	defer func() {
		r.leaseMu.Lock()
		delete(r.leases, key)
		r.leaseMu.Unlock()
		wg.Done()
	}()

	routes := FindRoutes(r.pools, tokenIn, tokenOut, r.config.MaxHops, r.config.MaxHopsWiden, r.config.MaxRoutes)
	SortRoutes(routes)

	r.routeCache.Set(key, routes, r.config.RouteCacheTTL)
	r.recentPairs.Add(key, struct{}{})

	return routes, nil
}
