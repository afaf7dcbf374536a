package domain

// Token is an exchange-native fungible asset. Equality and hashing are by
// Identifier alone; a Token is immutable once resolved and lives for the
// lifetime of the process (backed by a long-TTL cache, see store.TokenRegistry).
type Token struct {
	Identifier string
	Decimals   int
	Ticker     string
	// IsLPToken marks a token that is itself a liquidity-pool share, so that
	// callers know to look up its composition via PricingModel.LPTokenComposition.
	IsLPToken bool
	// USDPrice is a reporting-only field. It must never influence routing or
	// evaluation decisions (spec.md §1 Non-goals).
	USDPrice *float64
}

// Equal compares tokens by identifier only, per spec.md §3.
func (t Token) Equal(other Token) bool {
	return t.Identifier == other.Identifier
}
