package store

import (
	"context"
	"sync"

	"github.com/jexdex/aggregator-engine/domain"
)

// TokenRegistry is a long-TTL, lazily-populated cache of token metadata
// (decimals, ticker), backed by domain.TokenMetadataFetcher (spec.md §6).
// Entries never expire: token decimals/ticker are effectively immutable for
// the lifetime of the process.
type TokenRegistry struct {
	fetcher domain.TokenMetadataFetcher

	mu     sync.RWMutex
	tokens map[string]domain.Token
}

func NewTokenRegistry(fetcher domain.TokenMetadataFetcher) *TokenRegistry {
	return &TokenRegistry{fetcher: fetcher, tokens: map[string]domain.Token{}}
}

// Seed installs a token directly, used by the sync worker when it already
// has full token metadata from an on-chain pool-status payload.
func (r *TokenRegistry) Seed(token domain.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Identifier] = token
}

// Resolve returns a token's metadata, fetching and caching it on first use.
func (r *TokenRegistry) Resolve(ctx context.Context, identifier string) (domain.Token, error) {
	r.mu.RLock()
	t, ok := r.tokens[identifier]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := r.fetcher.FetchTokenMetadata(ctx, identifier)
	if err != nil {
		return domain.Token{}, domain.ExternalFailureError{Collaborator: "token-metadata", Err: err}
	}

	r.mu.Lock()
	r.tokens[identifier] = t
	r.mu.Unlock()

	return t, nil
}

// Known reports whether identifier has already been resolved, without
// triggering a fetch.
func (r *TokenRegistry) Known(identifier string) (domain.Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[identifier]
	return t, ok
}

// All returns every token resolved so far, for the tokens() API (spec.md
// §6). Order is unspecified; callers sort if they need determinism.
func (r *TokenRegistry) All() []domain.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, t)
	}
	return out
}
