package domain

import "cosmossdk.io/math"

// QuoteResult is the common return shape of QuoteOut/QuoteIn: a headline
// amount plus the admin-fee portion withheld from each side's reserve
// (spec.md §4.2). AdminFeeIn/AdminFeeOut are zero for variants with no
// separate admin fee.
type QuoteResult struct {
	Amount      math.Int
	AdminFeeIn  math.Int
	AdminFeeOut math.Int
}

// LPComposition mirrors the Python LpTokenComposition record (spec.md §3),
// used by the optional lp_token_composition capability for LP-token
// USD-price derivation performed by an external collaborator.
type LPComposition struct {
	LPTokenIdentifier string
	LPTokenSupply     math.Int
	TokenIdentifiers  []string
	TokenReserves     []math.Int
}

// ExchangeRate is a reporting-only by-product of the sync step (spec.md §3).
type ExchangeRate struct {
	BaseToken       string
	QuoteToken      string
	Rate            float64
	Rate2           float64
	BaseLiquidity   math.Int
	QuoteLiquidity  math.Int
	SCAddress       string
	Source          string
}

// PricingModel is the capability set shared by every venue family (spec.md
// §4.2). It is implemented as a tagged variant per venue in package pools;
// callers dispatch on VenueType() rather than on concrete Go type, so adding
// a family never requires a type switch outside of pools' own factory.
//
// Implementations never mutate shared state: UpdateReserves is only ever
// called on a DeepCopy (spec.md §3 Ownership).
type PricingModel interface {
	// VenueType identifies the venue family for dispatch, gas lookup, and
	// route-penalty/online-only classification.
	VenueType() VenueType

	// QuoteOut returns the net amount out for a given amount in, along with
	// the admin-fee portions withheld from each side's reserve. It must not
	// mutate the receiver. Returns InsufficientLiquidityError if amountOut
	// would exceed the output reserve, InvalidTokenError if the tokens do
	// not belong to this pool, or a curve-solver failure.
	QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (QuoteResult, error)

	// QuoteIn is the inverse of QuoteOut. Not every variant supports it;
	// unsupported variants return ErrUnsupportedOperation.
	QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (QuoteResult, error)

	// TheoreticalOut is the price-impact-free reference quote used for
	// slippage reporting (spec.md §4.2, §8 property 2: QuoteOut ≤
	// TheoreticalOut).
	TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error)

	// UpdateReserves mutates the receiver's local reserves to reflect a
	// completed swap. Callers must only invoke this on a DeepCopy.
	UpdateReserves(tokenIn string, amountInNetOfAdmin math.Int, tokenOut string, amountOutPlusAdmin math.Int) error

	// GasEstimate returns the fixed per-variant gas charge.
	GasEstimate() int64

	// DeepCopy returns an independent, mutable snapshot of the model.
	DeepCopy() PricingModel

	// ExchangeRates returns zero or more reporting records for this venue.
	ExchangeRates(scAddress string) []ExchangeRate

	// LPTokenComposition returns the LP decomposition when this variant
	// backs an LP token, and false otherwise.
	LPTokenComposition() (LPComposition, bool)
}
