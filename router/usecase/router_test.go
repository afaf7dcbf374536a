package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jexdex/aggregator-engine/domain"
)

type fakePoolSource struct {
	byToken map[string][]domain.SwapPool
}

func (f fakePoolSource) PoolsFrom(token string) []domain.SwapPool {
	return f.byToken[token]
}

func poolAB(name, scAddress, a, b string) domain.SwapPool {
	return domain.SwapPool{Name: name, SCAddress: scAddress, Type: domain.VenueXExchange, TokensIn: []string{a, b}, TokensOut: []string{a, b}}
}

func TestFindRoutes_DirectHop(t *testing.T) {
	src := fakePoolSource{byToken: map[string][]domain.SwapPool{
		"WEGLD": {poolAB("p1", "sc1", "WEGLD", "USDC")},
	}}

	routes := FindRoutes(src, "WEGLD", "USDC", 3, 5, 500)
	require.Len(t, routes, 1)
	require.Equal(t, "USDC", routes[0].TokenOut)
	require.Len(t, routes[0].Hops, 1)
}

func TestFindRoutes_TwoHopThroughIntermediate(t *testing.T) {
	src := fakePoolSource{byToken: map[string][]domain.SwapPool{
		"WEGLD": {poolAB("p1", "sc1", "WEGLD", "MEX")},
		"MEX":   {poolAB("p2", "sc2", "MEX", "USDC")},
	}}

	routes := FindRoutes(src, "WEGLD", "USDC", 3, 5, 500)
	require.Len(t, routes, 1)
	require.Len(t, routes[0].Hops, 2)
	require.Equal(t, "MEX", routes[0].Hops[0].TokenOut)
}

func TestFindRoutes_WidensOnEmptyResult(t *testing.T) {
	// A 3-hop-only path should be found once max_hops2 widens the search,
	// even though max_hops (1) alone would find nothing.
	src := fakePoolSource{byToken: map[string][]domain.SwapPool{
		"A": {poolAB("p1", "sc1", "A", "B")},
		"B": {poolAB("p2", "sc2", "B", "C")},
		"C": {poolAB("p3", "sc3", "C", "D")},
	}}

	routes := FindRoutes(src, "A", "D", 1, 5, 500)
	require.Len(t, routes, 1)
	require.Len(t, routes[0].Hops, 3)
}

func TestFindRoutes_NeverRevisitsStartToken(t *testing.T) {
	src := fakePoolSource{byToken: map[string][]domain.SwapPool{
		"A": {poolAB("p1", "sc1", "A", "B")},
		"B": {poolAB("p1", "sc1", "A", "B"), poolAB("p2", "sc2", "B", "A")},
	}}

	routes := FindRoutes(src, "A", "A", 3, 5, 500)
	require.Empty(t, routes)
}

func TestRouter_CachesWithinTTL(t *testing.T) {
	src := fakePoolSource{byToken: map[string][]domain.SwapPool{
		"WEGLD": {poolAB("p1", "sc1", "WEGLD", "USDC")},
	}}
	r := NewRouter(src, domain.RouterConfig{MaxHops: 3, MaxHopsWiden: 5, MaxRoutes: 500, RouteCacheTTL: 0})

	first, err := r.Routes(context.Background(), "WEGLD", "USDC")
	require.NoError(t, err)
	second, err := r.Routes(context.Background(), "WEGLD", "USDC")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRouter_EvictsLeastRecentlyUsedPairBeyondCapacity(t *testing.T) {
	src := fakePoolSource{byToken: map[string][]domain.SwapPool{
		"A": {poolAB("p1", "sc1", "A", "B")},
		"C": {poolAB("p2", "sc2", "C", "D")},
		"E": {poolAB("p3", "sc3", "E", "F")},
	}}
	r := newRouterWithPairCapacity(src, domain.RouterConfig{MaxHops: 3, MaxHopsWiden: 5, MaxRoutes: 500, RouteCacheTTL: 0}, 2)

	_, err := r.Routes(context.Background(), "A", "B")
	require.NoError(t, err)
	_, err = r.Routes(context.Background(), "C", "D")
	require.NoError(t, err)

	// A third distinct pair exceeds the capacity of 2, evicting "A->B" (the
	// least recently used) from the TTL cache even though its TTL (none,
	// RouteCacheTTL=0) never expired it on its own.
	_, err = r.Routes(context.Background(), "E", "F")
	require.NoError(t, err)

	_, ok := r.routeCache.Get(cacheKey("A", "B"))
	require.False(t, ok)
	_, ok = r.routeCache.Get(cacheKey("C", "D"))
	require.True(t, ok)
	_, ok = r.routeCache.Get(cacheKey("E", "F"))
	require.True(t, ok)
}

func TestDisjoint(t *testing.T) {
	shared := poolAB("p1", "sc1", "A", "B")
	a := Route{Hops: []Hop{{Pool: shared}}}
	b := Route{Hops: []Hop{{Pool: shared}}}
	require.False(t, Disjoint(a, b))

	c := Route{Hops: []Hop{{Pool: poolAB("p2", "sc2", "A", "B")}}}
	require.True(t, Disjoint(a, c))
}
