// Package store holds the sync worker's published state: the pool snapshot
// the router and evaluator read from, the token registry, and the derived
// exchange-rate table. All publication is copy-on-write / atomic pointer
// swap so readers never observe a torn snapshot (spec.md §5).
package store

import (
	"sync/atomic"

	"github.com/jexdex/aggregator-engine/domain"
)

// PoolKey identifies one routable edge for the O(1) lookup the router and
// evaluator both need: (venue type, token in, token out).
type PoolKey struct {
	Venue    domain.VenueType
	TokenIn  string
	TokenOut string
}

// snapshot is the immutable value published by the sync worker. Once built
// it is never mutated; the PoolStore only ever swaps the pointer to a new one.
type snapshot struct {
	pools    []domain.SwapPool
	models   map[PoolKey]domain.PricingModel
	byToken  map[string][]domain.SwapPool // token -> pools that can swap it away
	rates    []domain.ExchangeRate
}

// PoolStore publishes pool snapshots produced by the sync worker and serves
// them to the router/evaluator read path. A single sync worker writes;
// arbitrarily many request goroutines read, with no locking on the read
// path (spec.md §5).
type PoolStore struct {
	current atomic.Pointer[snapshot]
}

// NewPoolStore returns a store with an empty snapshot, so reads before the
// first sync cycle return no routes rather than blocking.
func NewPoolStore() *PoolStore {
	s := &PoolStore{}
	s.current.Store(&snapshot{models: map[PoolKey]domain.PricingModel{}, byToken: map[string][]domain.SwapPool{}})
	return s
}

// Publish atomically replaces the current snapshot. Called only by the sync
// worker, once per completed cycle.
func (s *PoolStore) Publish(pools []domain.SwapPool, models map[PoolKey]domain.PricingModel, rates []domain.ExchangeRate) {
	byToken := make(map[string][]domain.SwapPool, len(pools))
	for _, p := range pools {
		for _, t := range p.TokensIn {
			byToken[t] = append(byToken[t], p)
		}
	}

	s.current.Store(&snapshot{pools: pools, models: models, byToken: byToken, rates: rates})
}

// PoolsFrom returns every pool that accepts token as an input, the router's
// primary BFS expansion step (spec.md §4.3).
func (s *PoolStore) PoolsFrom(token string) []domain.SwapPool {
	return s.current.Load().byToken[token]
}

// Model returns the pricing model for a specific routable edge. The
// returned model must be DeepCopy'd before any mutation (spec.md §3).
func (s *PoolStore) Model(venue domain.VenueType, tokenIn, tokenOut string) (domain.PricingModel, bool) {
	m, ok := s.current.Load().models[PoolKey{Venue: venue, TokenIn: tokenIn, TokenOut: tokenOut}]
	return m, ok
}

// AllPools returns every pool in the current snapshot.
func (s *PoolStore) AllPools() []domain.SwapPool {
	return s.current.Load().pools
}

// ExchangeRates returns every reporting-only exchange rate produced during
// the last sync cycle.
func (s *PoolStore) ExchangeRates() []domain.ExchangeRate {
	return s.current.Load().rates
}

// Ready reports whether at least one sync cycle has published pools.
func (s *PoolStore) Ready() bool {
	return len(s.current.Load().pools) > 0
}
