package domain

import "fmt"

// VenueType tags the family of on-chain contract a SwapPool edge represents.
// The zero value is intentionally invalid; venues are always resolved to one
// of the named constants below during sync.
type VenueType string

const (
	VenueXExchange                  VenueType = "xexchange"
	VenueOneDex                     VenueType = "onedex"
	VenueJexchangeLP                VenueType = "jexchange_lp"
	VenueJexchangeLPDeposit         VenueType = "jexchange_lp_deposit"
	VenueOpendex                    VenueType = "opendex"
	VenueVestadex                   VenueType = "vestadex"
	VenueAshswapStablepool          VenueType = "ashswap_stablepool"
	VenueJexchangeStablepool        VenueType = "jexchange_stablepool"
	VenueJexchangeStablepoolDeposit VenueType = "jexchange_stablepool_deposit"
	VenueAshswapV2                  VenueType = "ashswap_v2"
	VenueHatomStake                 VenueType = "hatom_stake"
	VenueHatomMoneyMarketMint       VenueType = "hatom_money_market_mint"
	VenueHatomMoneyMarketRedeem     VenueType = "hatom_money_market_redeem"
	VenueXoxnoLiquidStaking         VenueType = "xoxno_liquid_staking"
)

// sc_type_as_code mirrors the Python SC_TYPES index table (spec.md §6,
// serialized route payload). Order matters: it is part of the wire format
// consumed by the on-chain aggregator for the online-evaluation escape hatch.
var venueTypeCodes = []VenueType{
	"", // index 0 is reserved / unused, matching the Python SC_TYPES[0] = None
	VenueAshswapStablepool,
	VenueAshswapV2,
	VenueXExchange,
	VenueOneDex,
	VenueJexchangeLP,
	VenueVestadex,
	VenueHatomStake,
	VenueHatomMoneyMarketMint,
	VenueHatomMoneyMarketRedeem,
	VenueJexchangeStablepool,
	VenueOpendex,
	VenueXoxnoLiquidStaking,
	VenueJexchangeLPDeposit,
	VenueJexchangeStablepoolDeposit,
}

// TypeCode returns the wire-format discriminant for a venue type. It panics on
// an unregistered venue type since that indicates a programming error, not a
// runtime condition.
func (v VenueType) TypeCode() uint8 {
	for i, t := range venueTypeCodes {
		if t == v {
			return uint8(i)
		}
	}
	panic(fmt.Sprintf("domain: unregistered venue type %q", v))
}

// gasTable is the per-venue-type fixed gas estimate (spec.md §9: "Gas
// estimation as a table, not a method body"). Units are execution-layer gas
// units, in the 10e6-30e6 range named by spec.md §4.2.
var gasTable = map[VenueType]int64{
	VenueXExchange:                  20_000_000,
	VenueOneDex:                     20_000_000,
	VenueJexchangeLP:                20_000_000,
	VenueJexchangeLPDeposit:         30_000_000,
	VenueOpendex:                    20_000_000,
	VenueVestadex:                   20_000_000,
	VenueAshswapStablepool:          20_000_000,
	VenueJexchangeStablepool:        20_000_000,
	VenueJexchangeStablepoolDeposit: 20_000_000,
	VenueAshswapV2:                  30_000_000,
	VenueHatomStake:                 20_000_000,
	VenueHatomMoneyMarketMint:       20_000_000,
	VenueHatomMoneyMarketRedeem:     20_000_000,
	VenueXoxnoLiquidStaking:         20_000_000,
}

// GasEstimate returns the fixed gas charge for the venue type, used by
// PricingModel.GasEstimate so the evaluator hot path stays branch-free.
func (v VenueType) GasEstimate() int64 {
	return gasTable[v]
}

// IsOnlineOnly reports whether routes through this venue type require a live
// network round-trip to evaluate (spec.md §4.4 online fallback). None of the
// venue families modeled by this engine require it today; the hook exists so
// a future order-book-style venue can flip it without touching the router or
// evaluator.
func (v VenueType) IsOnlineOnly() bool {
	return false
}

// SwapPool is a directed-multigraph edge: a single smart-contract venue over
// a fixed set of input/output tokens. Equality is the (type, sc address,
// tokens_in) tuple per spec.md §3.
type SwapPool struct {
	Name       string
	SCAddress  string
	TokensIn   []string
	TokensOut  []string
	Type       VenueType
}

// Equal implements the SwapPool equality relation from spec.md §3.
func (p SwapPool) Equal(other SwapPool) bool {
	if p.Type != other.Type || p.SCAddress != other.SCAddress {
		return false
	}
	if len(p.TokensIn) != len(other.TokensIn) {
		return false
	}
	for i, t := range p.TokensIn {
		if other.TokensIn[i] != t {
			return false
		}
	}
	return true
}

func (p SwapPool) hasTokenIn(token string) bool {
	for _, t := range p.TokensIn {
		if t == token {
			return true
		}
	}
	return false
}

func (p SwapPool) hasTokenOut(token string) bool {
	for _, t := range p.TokensOut {
		if t == token {
			return true
		}
	}
	return false
}

// SwapHop is a single swap step through one venue: (pool, token_in,
// token_out), constrained by token_in ∈ pool.tokens_in ∧ token_out ∈
// pool.tokens_out (spec.md §3).
type SwapHop struct {
	Pool      SwapPool
	TokenIn   string
	TokenOut  string
}

// NewSwapHop validates the SwapHop invariant and returns InvalidTokenError on
// violation.
func NewSwapHop(pool SwapPool, tokenIn, tokenOut string) (SwapHop, error) {
	if !pool.hasTokenIn(tokenIn) {
		return SwapHop{}, InvalidTokenError{PoolAddress: pool.SCAddress, Token: tokenIn}
	}
	if !pool.hasTokenOut(tokenOut) {
		return SwapHop{}, InvalidTokenError{PoolAddress: pool.SCAddress, Token: tokenOut}
	}
	return SwapHop{Pool: pool, TokenIn: tokenIn, TokenOut: tokenOut}, nil
}
