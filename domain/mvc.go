package domain

import (
	"context"
	"time"

	"cosmossdk.io/math"
)

// KeyValueCache is the persistent key-value cache consumed by the sync
// worker for snapshot publication and by the request path for per-key update
// leases (spec.md §6). It is an external collaborator, specified here only
// through its interface; production wiring (Redis or otherwise) lives
// outside this core.
type KeyValueCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Lock acquires a distributed lease on key for ttl. release must be
	// called to give it up early; the lease also expires on its own after
	// ttl. ok is false if the lease is already held elsewhere.
	Lock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// RPCClient is the on-chain RPC client consumed by the sync worker and by
// the online-evaluation escape hatch (spec.md §6). Args/results are the
// opaque hex-encoded smart-contract query wire format; this core never
// interprets them beyond the parsers in sync/rpc.
type RPCClient interface {
	ScQuery(ctx context.Context, scAddress, function string, args [][]byte) ([][]byte, error)
}

// TokenMetadataFetcher resolves token metadata (decimals, ticker) lazily via
// RPC, with long-TTL caching performed by the caller (spec.md §6).
type TokenMetadataFetcher interface {
	FetchTokenMetadata(ctx context.Context, identifier string) (Token, error)
}

// USDPriceOracle provides USD prices for exactly the reporting fields named
// in spec.md §6; it must never be consulted by routing or evaluation logic.
type USDPriceOracle interface {
	USDPrice(ctx context.Context, tokenIdentifier string) (float64, bool, error)
}

// OnlineRouteEvaluator is the escape hatch used by the Evaluator for routes
// containing at least one online-only hop (spec.md §4.4). It reuses the
// route's pre-computed static gas estimate and only asks the chain for the
// net amount out, fee, and fee token.
type OnlineRouteEvaluator interface {
	EvaluateRoute(ctx context.Context, amount math.Int, serializedRoute []byte) (netOut, fee math.Int, feeToken string, err error)
}
