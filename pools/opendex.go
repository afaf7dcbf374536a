package pools

import (
	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/bignum"
	"github.com/jexdex/aggregator-engine/domain"
)

const opendexMaxFee = 10_000

// OpendexPool is the constant-product pool shared by Opendex and Vestadex
// (spec.md §1, §4.2). When FeeToken is set, the side matching it pays both
// the LP fee and an explicit platform fee; the other side pays neither,
// grounded on opendex_aggregator_api/pools/opendex.py.
type OpendexPool struct {
	SCAddress   string
	Venue       domain.VenueType // VenueOpendex or VenueVestadex
	LPToken     domain.Token
	LPSupply    math.Int
	TotalFee    int64 // full swap fee (LP share + platform share), out of opendexMaxFee
	PlatformFee int64 // out of opendexMaxFee
	FeeToken    string // empty means "no dedicated fee token"

	r reserves
}

// NewOpendexPool builds an Opendex/Vestadex constant-product pool from
// synced reserves, mirroring NewXExchangePool's shape. venue selects between
// the two venue families that share this model.
func NewOpendexPool(scAddress string, venue domain.VenueType, lpToken domain.Token, lpSupply math.Int, totalFee, platformFee int64, feeToken string, firstToken domain.Token, firstReserves math.Int, secondToken domain.Token, secondReserves math.Int) *OpendexPool {
	return &OpendexPool{
		SCAddress:   scAddress,
		Venue:       venue,
		LPToken:     lpToken,
		LPSupply:    lpSupply,
		TotalFee:    totalFee,
		PlatformFee: platformFee,
		FeeToken:    feeToken,
		r: reserves{
			firstToken: firstToken, firstReserves: firstReserves,
			secondToken: secondToken, secondReserves: secondReserves,
		},
	}
}

func (p *OpendexPool) VenueType() domain.VenueType { return p.Venue }

// calculateFees splits TotalFee (the full swap fee, out of opendexMaxFee)
// into the LP's share and the platform's share. TotalFee already includes
// the platform's cut, so lpFee is the remainder, not TotalFee itself
// (pools/opendex.py:123-131 _calculate_fees: lp_fee = total_fee -
// platform_fee) — summing lpFee+platformFee must equal the single total-fee
// deduction, never double it.
func (p *OpendexPool) calculateFees(amount math.Int) (lpFee, platformFee math.Int) {
	maxFee := math.NewInt(opendexMaxFee)
	platformFee = amount.MulRaw(p.PlatformFee).Quo(maxFee)
	lpFee = amount.MulRaw(p.TotalFee).Quo(maxFee).Sub(platformFee)
	return
}

func (p *OpendexPool) QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (domain.QuoteResult, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	if inReserve.IsZero() {
		return domain.QuoteResult{Amount: math.ZeroInt()}, nil
	}

	if p.FeeToken != "" && tokenIn == p.FeeToken {
		lpFee, platformFeeIn := p.calculateFees(amountIn)
		amountInLessFees := amountIn.Sub(lpFee).Sub(platformFeeIn)
		netOut := amountInLessFees.Mul(outReserve).Quo(inReserve.Add(amountInLessFees))
		return domain.QuoteResult{Amount: netOut, AdminFeeIn: platformFeeIn, AdminFeeOut: math.ZeroInt()}, nil
	}

	amountOut := amountIn.Mul(outReserve).Quo(inReserve.Add(amountIn))
	lpFee, platformFeeOut := p.calculateFees(amountOut)
	netOut := amountOut.Sub(lpFee).Sub(platformFeeOut)
	if netOut.GT(outReserve) {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: netOut, ReserveOut: outReserve}
	}
	return domain.QuoteResult{Amount: netOut, AdminFeeOut: platformFeeOut}, nil
}

func (p *OpendexPool) QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (domain.QuoteResult, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	if inReserve.IsZero() {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: netAmountOut, ReserveOut: outReserve}
	}

	maxFee := math.NewInt(opendexMaxFee)

	var amountOut, platformFeeOut math.Int
	if p.FeeToken == "" || tokenOut == p.FeeToken {
		amountOut = netAmountOut.Mul(maxFee).Quo(maxFee.SubRaw(p.TotalFee))
		platformFeeOut = amountOut.MulRaw(p.PlatformFee).Quo(maxFee)
	} else {
		amountOut = netAmountOut
		platformFeeOut = math.ZeroInt()
	}

	amountIn := bignum.CeilDiv(amountOut.Mul(inReserve), outReserve.Sub(amountOut))
	platformFeeIn := math.ZeroInt()

	if p.FeeToken != "" && tokenIn == p.FeeToken {
		amountIn = amountIn.Mul(maxFee).Quo(maxFee.SubRaw(p.TotalFee))
		platformFeeIn = amountIn.MulRaw(p.PlatformFee).Quo(maxFee)
	}

	return domain.QuoteResult{Amount: amountIn, AdminFeeIn: platformFeeIn, AdminFeeOut: platformFeeOut}, nil
}

func (p *OpendexPool) TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return math.Int{}, err
	}
	if inReserve.IsZero() {
		return math.ZeroInt(), nil
	}
	maxFee := math.NewInt(opendexMaxFee)
	amountOut := amountIn.Mul(outReserve).Quo(inReserve)
	// TotalFee already is the full swap fee (LP share + platform share); do
	// not add PlatformFee again.
	fee := amountOut.MulRaw(p.TotalFee).Quo(maxFee)
	return amountOut.Sub(fee), nil
}

func (p *OpendexPool) UpdateReserves(tokenIn string, amountIn math.Int, tokenOut string, amountOut math.Int) error {
	p.r.apply(tokenIn, amountIn, amountOut)
	return nil
}

func (p *OpendexPool) GasEstimate() int64 { return p.Venue.GasEstimate() }

func (p *OpendexPool) DeepCopy() domain.PricingModel {
	cp := *p
	return &cp
}

func (p *OpendexPool) ExchangeRates(scAddress string) []domain.ExchangeRate {
	source := "opendex"
	if p.Venue == domain.VenueVestadex {
		source = "vestadex"
	}
	return p.r.exchangeRate(scAddress, source)
}

func (p *OpendexPool) LPTokenComposition() (domain.LPComposition, bool) {
	return p.r.lpComposition(p.LPToken, p.LPSupply)
}
