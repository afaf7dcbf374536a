package pools

import (
	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/curve"
	"github.com/jexdex/aggregator-engine/domain"
)

// CompositePool is the two-asset composite reserve-invariant pool used by
// AshSwap V2 (Curve-crypto style: dynamic A/gamma, a moving price_scale, a
// fee that widens with pool imbalance). Grounded line-for-line on
// opendex_aggregator_api/pools/ashswap.py's AshSwapPoolV2.
type CompositePool struct {
	SCAddress        string
	LPToken          domain.Token
	LPSupply         math.Int
	Amp              math.Int
	Gamma            math.Int
	D                math.Int
	FutureAGammaTime int64
	FeeGamma         math.Int
	MidFee           math.Int
	OutFee           math.Int
	PriceScale       math.Int
	Tokens           [2]domain.Token
	Reserves         [2]math.Int
	XP               [2]math.Int
}

func (p *CompositePool) VenueType() domain.VenueType { return domain.VenueAshswapV2 }

func (p *CompositePool) indexOf(identifier string) (int, bool) {
	for i, t := range p.Tokens {
		if t.Identifier == identifier {
			return i, true
		}
	}
	return -1, false
}

func (p *CompositePool) precisions() [2]math.Int {
	return [2]math.Int{pow10(18 - p.Tokens[0].Decimals), pow10(18 - p.Tokens[1].Decimals)}
}

// fee computes the dynamic fee for the current xp balance, interpolating
// between MidFee (balanced) and OutFee (imbalanced) by a gamma-weighted
// imbalance measure.
func (p *CompositePool) fee(xp [2]math.Int) math.Int {
	precision := pow10(18)
	f := xp[0].Add(xp[1])

	fNum := p.FeeGamma.Mul(precision)
	imbalance := math.NewInt(4).Mul(precision).Mul(xp[0]).Quo(f).Mul(xp[1]).Quo(f)
	fDen := p.FeeGamma.Add(precision).Sub(imbalance)

	ratio := fNum.Quo(fDen)
	blended := p.MidFee.Mul(ratio).Add(p.OutFee.Mul(precision.Sub(ratio)))
	return blended.Quo(precision)
}

func (p *CompositePool) currentD() (math.Int, error) {
	if p.FutureAGammaTime > 0 {
		return curve.NewtonD(p.Amp, p.Gamma, []math.Int{p.XP[0], p.XP[1]})
	}
	return p.D, nil
}

func (p *CompositePool) QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (domain.QuoteResult, error) {
	if amountIn.IsZero() {
		return domain.QuoteResult{Amount: math.ZeroInt()}, nil
	}

	iIn, ok := p.indexOf(tokenIn)
	if !ok {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenIn}
	}
	iOut, ok := p.indexOf(tokenOut)
	if !ok {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenOut}
	}

	precision := pow10(18)
	precisions := p.precisions()
	priceScale := p.PriceScale.Mul(precisions[1])

	xp := [2]math.Int{p.Reserves[0], p.Reserves[1]}
	d, err := p.currentD()
	if err != nil {
		return domain.QuoteResult{}, err
	}

	xp[iIn] = xp[iIn].Add(amountIn)
	scaled := [2]math.Int{
		xp[0].Mul(precisions[0]),
		xp[1].Mul(priceScale).Quo(precision),
	}

	y, err := curve.NewtonY(p.Amp, p.Gamma, scaled[:], d, iOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}

	dy := scaled[iOut].Sub(y).SubRaw(1)
	scaled[iOut] = y

	if iOut > 0 {
		dy = dy.Mul(precision).Quo(priceScale)
	} else {
		dy = dy.Quo(precisions[0])
	}

	fee := dy.Mul(p.fee(scaled)).Quo(pow10(10))
	dy = dy.Sub(fee)

	if dy.IsNegative() || dy.GT(p.Reserves[iOut]) {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: dy, ReserveOut: p.Reserves[iOut]}
	}

	return domain.QuoteResult{Amount: dy, AdminFeeOut: fee.QuoRaw(3)}, nil
}

func (p *CompositePool) QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (domain.QuoteResult, error) {
	return domain.QuoteResult{}, domain.ErrUnsupportedOperation
}

func (p *CompositePool) TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error) {
	iIn, ok := p.indexOf(tokenIn)
	if !ok {
		return math.Int{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenIn}
	}
	iOut, ok := p.indexOf(tokenOut)
	if !ok {
		return math.Int{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenOut}
	}

	inReserve := p.Reserves[iIn]
	outReserve := p.Reserves[iOut]
	if inReserve.IsZero() {
		return math.ZeroInt(), nil
	}

	amountOut := amountIn.Mul(outReserve).Quo(inReserve)
	fee := amountOut.Mul(p.fee(p.XP)).Quo(pow10(10))
	return amountOut.Sub(fee), nil
}

func (p *CompositePool) UpdateReserves(tokenIn string, amountIn math.Int, tokenOut string, amountOut math.Int) error {
	iIn, _ := p.indexOf(tokenIn)
	iOut, _ := p.indexOf(tokenOut)
	p.Reserves[iIn] = p.Reserves[iIn].Add(amountIn)
	p.Reserves[iOut] = p.Reserves[iOut].Sub(amountOut)
	return nil
}

func (p *CompositePool) GasEstimate() int64 { return p.VenueType().GasEstimate() }

func (p *CompositePool) DeepCopy() domain.PricingModel {
	cp := *p
	return &cp
}

func (p *CompositePool) ExchangeRates(scAddress string) []domain.ExchangeRate {
	if p.Reserves[0].IsZero() || p.Reserves[1].IsZero() {
		return nil
	}
	rate := floatRatio(p.Reserves[1].Mul(pow10(p.Tokens[0].Decimals)), p.Reserves[0].Mul(pow10(p.Tokens[1].Decimals)))
	rate2 := 0.0
	if rate != 0 {
		rate2 = 1 / rate
	}
	return []domain.ExchangeRate{{
		BaseToken: p.Tokens[0].Identifier, QuoteToken: p.Tokens[1].Identifier,
		Rate: rate, Rate2: rate2,
		BaseLiquidity: p.Reserves[0], QuoteLiquidity: p.Reserves[1],
		SCAddress: scAddress, Source: "ashswap",
	}}
}

func (p *CompositePool) LPTokenComposition() (domain.LPComposition, bool) {
	return domain.LPComposition{
		LPTokenIdentifier: p.LPToken.Identifier,
		LPTokenSupply:     p.LPSupply,
		TokenIdentifiers:  []string{p.Tokens[0].Identifier, p.Tokens[1].Identifier},
		TokenReserves:     []math.Int{p.Reserves[0], p.Reserves[1]},
	}, true
}
