package pools

import (
	"math"
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/bignum"
	"github.com/jexdex/aggregator-engine/domain"
)

// ConstantPricePool prices a one-directional fixed-rate swap: Price is a
// 18-decimal rate such that 1 TokenOut = TokenIn / Price. Used by Hatom's
// staking/money-market venues and XOXNO's liquid staking, grounded on
// pools.py's ConstantPricePool.
type ConstantPricePool struct {
	SCAddress     string
	Venue         domain.VenueType
	Price         sdkmath.Int
	TokenIn       domain.Token
	TokenOut      domain.Token
	TokenOutReserve sdkmath.Int
	// MinimumInput, when positive, rejects any amount_in below it. Used by
	// XOXNO's liquid staking venue, whose contract enforces a minimum stake
	// (spec.md §4.2; not present in the Python reference, which predates
	// this venue).
	MinimumInput sdkmath.Int
	// ExtraGas adds a fixed surcharge on top of the venue-type gas table,
	// grounded on Hatom's higher-than-average on-chain execution cost for
	// its money-market mint/redeem entry points.
	ExtraGas int64
}

func (p *ConstantPricePool) VenueType() domain.VenueType { return p.Venue }

func (p *ConstantPricePool) QuoteOut(tokenIn string, amountIn sdkmath.Int, tokenOut string) (domain.QuoteResult, error) {
	if tokenIn != p.TokenIn.Identifier {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenIn}
	}
	if tokenOut != p.TokenOut.Identifier {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenOut}
	}
	if p.MinimumInput.IsPositive() && amountIn.LT(p.MinimumInput) {
		return domain.QuoteResult{}, domain.InsufficientInputError{PoolAddress: p.SCAddress, AmountIn: amountIn, MinimumIn: p.MinimumInput}
	}

	normalizedIn := bignum.Normalize(amountIn, p.TokenIn.Decimals)
	normalizedOut := normalizedIn.Mul(bignum.Pow10(bignum.Precision18)).Quo(p.Price)
	amountOut := bignum.Denormalize(normalizedOut, p.TokenOut.Decimals)

	if amountOut.GT(p.TokenOutReserve) {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: amountOut, ReserveOut: p.TokenOutReserve}
	}

	return domain.QuoteResult{Amount: amountOut}, nil
}

func (p *ConstantPricePool) QuoteIn(tokenOut string, netAmountOut sdkmath.Int, tokenIn string) (domain.QuoteResult, error) {
	return domain.QuoteResult{}, domain.ErrUnsupportedOperation
}

func (p *ConstantPricePool) TheoreticalOut(tokenIn string, amountIn sdkmath.Int, tokenOut string) (sdkmath.Int, error) {
	q, err := p.QuoteOut(tokenIn, amountIn, tokenOut)
	return q.Amount, err
}

func (p *ConstantPricePool) UpdateReserves(tokenIn string, amountIn sdkmath.Int, tokenOut string, amountOut sdkmath.Int) error {
	p.TokenOutReserve = p.TokenOutReserve.Sub(amountOut)
	return nil
}

func (p *ConstantPricePool) GasEstimate() int64 { return p.Venue.GasEstimate() + p.ExtraGas }

func (p *ConstantPricePool) DeepCopy() domain.PricingModel {
	cp := *p
	return &cp
}

func (p *ConstantPricePool) ExchangeRates(scAddress string) []domain.ExchangeRate {
	rate, _ := new(big.Rat).SetFrac(p.Price.BigInt(), bignum.Pow10(bignum.Precision18).BigInt()).Float64()
	rate2 := 0.0
	if rate != 0 {
		rate2 = 1 / rate
	}

	source := "hatom"
	if p.Venue == domain.VenueXoxnoLiquidStaking {
		source = "xoxno"
	}

	return []domain.ExchangeRate{{
		BaseToken:      p.TokenOut.Identifier,
		QuoteToken:     p.TokenIn.Identifier,
		Rate:           rate,
		Rate2:          rate2,
		BaseLiquidity:  p.TokenOutReserve,
		QuoteLiquidity: sdkmath.NewIntFromUint64(math.MaxInt64),
		SCAddress:      scAddress,
		Source:         source,
	}}
}

func (p *ConstantPricePool) LPTokenComposition() (domain.LPComposition, bool) {
	return domain.LPComposition{}, false
}
