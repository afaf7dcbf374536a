// Package usecase implements route discovery: a bounded-hop BFS over the
// (token, venue) graph published by store.PoolStore, producing candidate
// SwapRoutes for the evaluator and split-route optimizer to price.
package usecase

import (
	"github.com/cespare/xxhash/v2"

	"github.com/jexdex/aggregator-engine/domain"
)

// Hop is one step of a route: a pool plus the directed (token_in, token_out)
// pair it is traversed with (spec.md §3).
type Hop struct {
	Pool     domain.SwapPool
	TokenIn  string
	TokenOut string
}

// Route is an ordered sequence of hops from TokenIn to TokenOut. Routes are
// immutable once constructed by the router; the evaluator only ever reads
// them and the pools referenced from the store (spec.md §3 Ownership).
type Route struct {
	TokenIn  string
	TokenOut string
	Hops     []Hop
}

// ID returns a stable, content-addressed identifier for the route, used as
// the key of the split-route optimizer's per-route amount map. It is not
// part of the wire format
// (see serialize.Route for that).
func (r Route) ID() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(r.TokenIn)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(r.TokenOut)
	for _, hop := range r.Hops {
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(string(hop.Pool.Type))
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(hop.Pool.SCAddress)
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(hop.TokenIn)
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(hop.TokenOut)
	}
	return h.Sum64()
}

// hopPenalty assigns a sort weight per hop; order-book-style venues (none
// implemented in this engine yet, see domain.VenueType.IsOnlineOnly) sort
// behind AMM hops so routes through always-available liquidity are
// preferred when tied on hop count.
func hopPenalty(h Hop) int {
	if h.Pool.Type.IsOnlineOnly() {
		return 10
	}
	return 1
}

func routePenalty(r Route) int {
	total := 0
	for _, h := range r.Hops {
		total += hopPenalty(h)
	}
	return total
}

// SortRoutes orders routes by ascending penalty (spec.md §4.3 sort_routes),
// a stable sort so routes of equal penalty keep their discovery order.
func SortRoutes(routes []Route) {
	stableSortByPenalty(routes)
}

func stableSortByPenalty(routes []Route) {
	// insertion sort: routes lists are small (bounded by max_routes) and the
	// stability requirement is simplest to guarantee this way.
	for i := 1; i < len(routes); i++ {
		for j := i; j > 0 && routePenalty(routes[j]) < routePenalty(routes[j-1]); j-- {
			routes[j], routes[j-1] = routes[j-1], routes[j]
		}
	}
}

// Disjoint reports whether a and b share no pool, the predicate the
// split-route optimizer's candidate-selection rule uses (spec.md §4.5,
// testable property 8).
func Disjoint(a, b Route) bool {
	seen := make(map[string]struct{}, len(a.Hops))
	for _, h := range a.Hops {
		seen[h.Pool.SCAddress+"|"+string(h.Pool.Type)] = struct{}{}
	}
	for _, h := range b.Hops {
		if _, ok := seen[h.Pool.SCAddress+"|"+string(h.Pool.Type)]; ok {
			return false
		}
	}
	return true
}
