package pools

import (
	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/bignum"
	"github.com/jexdex/aggregator-engine/domain"
)

const onedexMaxFee = 10_000

// OneDexPool is OneDex's constant-product pool: the fee is applied on the
// input side when the swap's token_in is one of the pool's configured
// "main pair" tokens, and on the output side otherwise (spec.md §4.2,
// grounded on onedex.py's OneDexConstantProductPool).
type OneDexPool struct {
	SCAddress      string
	LPToken        domain.Token
	LPSupply       math.Int
	TotalFee       int64
	MainPairTokens []string

	r reserves
}

func NewOneDexPool(scAddress string, lpToken domain.Token, lpSupply math.Int, totalFee int64, mainPairTokens []string, firstToken domain.Token, firstReserves math.Int, secondToken domain.Token, secondReserves math.Int) *OneDexPool {
	return &OneDexPool{
		SCAddress: scAddress, LPToken: lpToken, LPSupply: lpSupply,
		TotalFee: totalFee, MainPairTokens: mainPairTokens,
		r: reserves{firstToken: firstToken, firstReserves: firstReserves, secondToken: secondToken, secondReserves: secondReserves},
	}
}

func (p *OneDexPool) isMainPairToken(identifier string) bool {
	for _, t := range p.MainPairTokens {
		if t == identifier {
			return true
		}
	}
	return false
}

func (p *OneDexPool) VenueType() domain.VenueType { return domain.VenueOneDex }

func (p *OneDexPool) QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (domain.QuoteResult, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}

	maxFee := math.NewInt(onedexMaxFee)

	if p.isMainPairToken(tokenIn) {
		amountInWithFee := amountIn.Mul(maxFee.SubRaw(p.TotalFee))
		num := amountInWithFee.Mul(outReserve)
		den := inReserve.Mul(maxFee).Add(amountInWithFee)
		return domain.QuoteResult{Amount: num.Quo(den)}, nil
	}

	amountOutWithoutFee := amountIn.Mul(outReserve).Quo(inReserve.Add(amountIn))
	fee := amountOutWithoutFee.MulRaw(p.TotalFee).Quo(maxFee)
	netOut := amountOutWithoutFee.Sub(fee)
	if netOut.GT(outReserve) {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: netOut, ReserveOut: outReserve}
	}
	return domain.QuoteResult{Amount: netOut}, nil
}

func (p *OneDexPool) QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (domain.QuoteResult, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	maxFee := math.NewInt(onedexMaxFee)

	if p.isMainPairToken(tokenIn) {
		num := netAmountOut.Mul(inReserve).Mul(maxFee)
		den := outReserve.Sub(netAmountOut)
		amountInWithFee := bignum.CeilDiv(num, den)
		return domain.QuoteResult{Amount: bignum.CeilDiv(amountInWithFee, maxFee.SubRaw(p.TotalFee))}, nil
	}

	amountOut := netAmountOut.Mul(maxFee).Quo(maxFee.SubRaw(p.TotalFee))
	amountIn := bignum.CeilDiv(amountOut.Mul(inReserve), outReserve.Sub(amountOut))
	return domain.QuoteResult{Amount: amountIn}, nil
}

func (p *OneDexPool) TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return math.Int{}, err
	}
	if inReserve.IsZero() {
		return math.ZeroInt(), nil
	}
	maxFee := math.NewInt(onedexMaxFee)
	amountInLessFee := amountIn.Mul(maxFee.SubRaw(p.TotalFee)).Quo(maxFee)
	return amountInLessFee.Mul(outReserve).Quo(inReserve), nil
}

func (p *OneDexPool) UpdateReserves(tokenIn string, amountIn math.Int, tokenOut string, amountOut math.Int) error {
	p.r.apply(tokenIn, amountIn, amountOut)
	return nil
}

func (p *OneDexPool) GasEstimate() int64 { return p.VenueType().GasEstimate() }

func (p *OneDexPool) DeepCopy() domain.PricingModel {
	cp := *p
	cp.MainPairTokens = append([]string(nil), p.MainPairTokens...)
	return &cp
}

func (p *OneDexPool) ExchangeRates(scAddress string) []domain.ExchangeRate {
	return p.r.exchangeRate(scAddress, "onedex")
}

func (p *OneDexPool) LPTokenComposition() (domain.LPComposition, bool) {
	return p.r.lpComposition(p.LPToken, p.LPSupply)
}
