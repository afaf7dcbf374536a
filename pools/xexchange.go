package pools

import (
	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/bignum"
	"github.com/jexdex/aggregator-engine/domain"
)

const xexchangeMaxFee = 100_000 // fee denominator: a typical total_fee of 300 is 0.3%

// XExchangePool is the constant-product AMM used by xExchange, fee always
// deducted from the input side before the constant-product formula is
// applied (spec.md §4.2; grounded on the fee-on-input branch shared with
// onedex.py's main-pair-token case).
type XExchangePool struct {
	SCAddress string
	LPToken   domain.Token
	LPSupply  math.Int
	TotalFee  int64 // out of xexchangeMaxFee
	// SpecialFee is the admin's cut of TotalFee, out of xexchangeMaxFee
	// (xexchange.py:59-61). It is already folded into TotalFee's deduction
	// from amountIn; this field only splits out how much of that deduction
	// is reported as the admin's share rather than the LPs'.
	SpecialFee int64

	r reserves
}

func NewXExchangePool(scAddress string, lpToken domain.Token, lpSupply math.Int, totalFee, specialFee int64, firstToken domain.Token, firstReserves math.Int, secondToken domain.Token, secondReserves math.Int) *XExchangePool {
	return &XExchangePool{
		SCAddress:  scAddress,
		LPToken:    lpToken,
		LPSupply:   lpSupply,
		TotalFee:   totalFee,
		SpecialFee: specialFee,
		r: reserves{
			firstToken: firstToken, firstReserves: firstReserves,
			secondToken: secondToken, secondReserves: secondReserves,
		},
	}
}

func (p *XExchangePool) VenueType() domain.VenueType { return domain.VenueXExchange }

func (p *XExchangePool) QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (domain.QuoteResult, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	if inReserve.IsZero() {
		return domain.QuoteResult{Amount: math.ZeroInt()}, nil
	}

	maxFee := math.NewInt(xexchangeMaxFee)
	amountInWithFee := amountIn.Mul(maxFee.SubRaw(p.TotalFee))
	num := amountInWithFee.Mul(outReserve)
	den := inReserve.Mul(maxFee).Add(amountInWithFee)
	netOut := num.Quo(den)

	if netOut.GT(outReserve) {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: netOut, ReserveOut: outReserve}
	}

	// special_fee = amount_in * special_fee // MAX_FEE (xexchange.py:59-61):
	// reported as admin-fee-in, the portion of the fee already deducted
	// above that goes to the admin rather than the LPs.
	adminFeeIn := amountIn.MulRaw(p.SpecialFee).Quo(maxFee)

	return domain.QuoteResult{Amount: netOut, AdminFeeIn: adminFeeIn}, nil
}

func (p *XExchangePool) QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (domain.QuoteResult, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	if netAmountOut.GTE(outReserve) {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: netAmountOut, ReserveOut: outReserve}
	}

	maxFee := math.NewInt(xexchangeMaxFee)
	// Invert the fee-on-input formula: amount_in_with_fee solves
	// net_out = amount_in_with_fee*out_reserve / (in_reserve*max_fee + amount_in_with_fee).
	num := netAmountOut.Mul(inReserve).Mul(maxFee)
	den := outReserve.Sub(netAmountOut)
	amountInWithFee := bignum.CeilDiv(num, den)
	amountIn := bignum.CeilDiv(amountInWithFee, maxFee.SubRaw(p.TotalFee))

	return domain.QuoteResult{Amount: amountIn}, nil
}

func (p *XExchangePool) TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return math.Int{}, err
	}
	if inReserve.IsZero() {
		return math.ZeroInt(), nil
	}
	maxFee := math.NewInt(xexchangeMaxFee)
	amountInLessFee := amountIn.Mul(maxFee.SubRaw(p.TotalFee)).Quo(maxFee)
	return amountInLessFee.Mul(outReserve).Quo(inReserve), nil
}

func (p *XExchangePool) UpdateReserves(tokenIn string, amountIn math.Int, tokenOut string, amountOut math.Int) error {
	p.r.apply(tokenIn, amountIn, amountOut)
	return nil
}

func (p *XExchangePool) GasEstimate() int64 { return p.VenueType().GasEstimate() }

func (p *XExchangePool) DeepCopy() domain.PricingModel {
	cp := *p
	return &cp
}

func (p *XExchangePool) ExchangeRates(scAddress string) []domain.ExchangeRate {
	return p.r.exchangeRate(scAddress, "xexchange")
}

func (p *XExchangePool) LPTokenComposition() (domain.LPComposition, bool) {
	return p.r.lpComposition(p.LPToken, p.LPSupply)
}
