package pools

import (
	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/bignum"
	"github.com/jexdex/aggregator-engine/domain"
)

const jexchangeMaxFee = 10_000 // jexchange.py's MAX_FEE

// JexchangePool is jexchange's constant-product pool: fee is always taken
// from the output side and split between LP providers and the platform
// (spec.md §1 table), grounded on the same ConstantProductPool.estimate_amount_out
// shape as pools.py, specialized with two fee recipients tracked separately
// for reserve accounting.
type JexchangePool struct {
	SCAddress    string
	LPToken      domain.Token
	LPSupply     math.Int
	LPFee        int64 // out of jexchangeMaxFee
	PlatformFee  int64 // out of jexchangeMaxFee

	r reserves
}

// NewJexchangePool builds a jexchange constant-product pool from synced
// reserves, mirroring NewXExchangePool/NewOneDexPool's shape.
func NewJexchangePool(scAddress string, lpToken domain.Token, lpSupply math.Int, lpFee, platformFee int64, firstToken domain.Token, firstReserves math.Int, secondToken domain.Token, secondReserves math.Int) *JexchangePool {
	return &JexchangePool{
		SCAddress:   scAddress,
		LPToken:     lpToken,
		LPSupply:    lpSupply,
		LPFee:       lpFee,
		PlatformFee: platformFee,
		r: reserves{
			firstToken: firstToken, firstReserves: firstReserves,
			secondToken: secondToken, secondReserves: secondReserves,
		},
	}
}

func (p *JexchangePool) VenueType() domain.VenueType { return domain.VenueJexchangeLP }

func (p *JexchangePool) totalFee() int64 { return p.LPFee + p.PlatformFee }

func (p *JexchangePool) QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (domain.QuoteResult, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	if inReserve.IsZero() {
		return domain.QuoteResult{Amount: math.ZeroInt()}, nil
	}

	maxFee := math.NewInt(jexchangeMaxFee)
	amountOut := amountIn.Mul(outReserve).Quo(inReserve.Add(amountIn))
	platformFee := amountOut.MulRaw(p.PlatformFee).Quo(maxFee)
	lpFee := amountOut.MulRaw(p.LPFee).Quo(maxFee)
	netOut := amountOut.Sub(lpFee).Sub(platformFee)

	if netOut.GT(outReserve) {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: netOut, ReserveOut: outReserve}
	}
	return domain.QuoteResult{Amount: netOut, AdminFeeOut: platformFee}, nil
}

func (p *JexchangePool) QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (domain.QuoteResult, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return domain.QuoteResult{}, err
	}

	maxFee := math.NewInt(jexchangeMaxFee)
	amountOut := netAmountOut.Mul(maxFee).Quo(maxFee.SubRaw(p.totalFee()))
	if amountOut.GT(outReserve) {
		return domain.QuoteResult{}, domain.InsufficientLiquidityError{PoolAddress: p.SCAddress, AmountOut: amountOut, ReserveOut: outReserve}
	}
	amountIn := bignum.CeilDiv(amountOut.Mul(inReserve), outReserve.Sub(amountOut))
	platformFee := amountOut.MulRaw(p.PlatformFee).Quo(maxFee)

	return domain.QuoteResult{Amount: amountIn, AdminFeeOut: platformFee}, nil
}

func (p *JexchangePool) TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error) {
	inReserve, outReserve, err := p.r.pick(tokenIn, tokenOut)
	if err != nil {
		return math.Int{}, err
	}
	if inReserve.IsZero() {
		return math.ZeroInt(), nil
	}
	maxFee := math.NewInt(jexchangeMaxFee)
	amountOut := amountIn.Mul(outReserve).Quo(inReserve)
	fee := amountOut.MulRaw(p.totalFee()).Quo(maxFee)
	return amountOut.Sub(fee), nil
}

func (p *JexchangePool) UpdateReserves(tokenIn string, amountIn math.Int, tokenOut string, amountOut math.Int) error {
	p.r.apply(tokenIn, amountIn, amountOut)
	return nil
}

func (p *JexchangePool) GasEstimate() int64 { return p.VenueType().GasEstimate() }

func (p *JexchangePool) DeepCopy() domain.PricingModel {
	cp := *p
	return &cp
}

func (p *JexchangePool) ExchangeRates(scAddress string) []domain.ExchangeRate {
	return p.r.exchangeRate(scAddress, "jexchange")
}

func (p *JexchangePool) LPTokenComposition() (domain.LPComposition, bool) {
	return p.r.lpComposition(p.LPToken, p.LPSupply)
}

// JexchangeDepositPool is a synthesized one-sided "zap" hop into a
// jexchange constant-product pool: it swaps the optimal portion of the
// deposit (optimalSwapAmount) internally then mints LP tokens, producing a single LP-token
// output for an arbitrary single-asset input (spec.md §3's closed pricing-
// model list, "Constant-product deposit"). Grounded on pools.py's
// ConstantProductPool._zap_optimal_swap_amount.
type JexchangeDepositPool struct {
	Underlying *JexchangePool
}

func (p *JexchangeDepositPool) VenueType() domain.VenueType { return domain.VenueJexchangeLPDeposit }

// optimalSwapAmount returns the portion of amountIn that should be swapped
// for the other side before both sides are deposited at the pool's current
// ratio, the positive root of the quadratic balancing equation.
func optimalSwapAmount(reserve, amountIn math.Int, fee, maxFee int64) math.Int {
	maxFeeI := math.NewInt(maxFee)
	a := reserve.MulRaw(maxFee*2 - fee)
	b := amountIn.Mul(reserve).MulRaw(4 * maxFee * (maxFee - fee))
	root := bignum.Sqrt(a.Mul(a).Add(b))
	num := root.Sub(reserve.MulRaw(2*maxFee - fee))
	den := maxFeeI.SubRaw(fee).MulRaw(2)
	return num.Quo(den)
}

func (p *JexchangeDepositPool) QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (domain.QuoteResult, error) {
	if tokenOut != p.Underlying.LPToken.Identifier {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: p.Underlying.SCAddress, Token: tokenOut}
	}

	inReserve, outReserve, err := p.Underlying.r.pick(tokenIn, otherToken(p.Underlying.r, tokenIn))
	if err != nil {
		return domain.QuoteResult{}, err
	}

	swapAmount := optimalSwapAmount(inReserve, amountIn, p.Underlying.totalFee(), jexchangeMaxFee)
	swapQuote, err := p.Underlying.QuoteOut(tokenIn, swapAmount, otherToken(p.Underlying.r, tokenIn))
	if err != nil {
		return domain.QuoteResult{}, err
	}

	remaining := amountIn.Sub(swapAmount)
	newInReserve := inReserve.Add(swapAmount)
	newOutReserve := outReserve.Sub(swapQuote.Amount)

	// Mint is proportional to the smaller side of the deposited pair relative
	// to the post-swap reserves, matching a standard constant-product mint.
	mintFromFirst := remaining.Mul(p.Underlying.LPSupply).Quo(newInReserve)
	mintFromSecond := swapQuote.Amount.Mul(p.Underlying.LPSupply).Quo(newOutReserve)
	shares := bignum.Min(mintFromFirst, mintFromSecond)

	return domain.QuoteResult{Amount: shares}, nil
}

func (p *JexchangeDepositPool) QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (domain.QuoteResult, error) {
	return domain.QuoteResult{}, domain.ErrUnsupportedOperation
}

func (p *JexchangeDepositPool) TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error) {
	q, err := p.QuoteOut(tokenIn, amountIn, tokenOut)
	return q.Amount, err
}

func (p *JexchangeDepositPool) UpdateReserves(tokenIn string, amountInNetOfAdmin math.Int, tokenOut string, amountOutPlusAdmin math.Int) error {
	return nil
}

func (p *JexchangeDepositPool) GasEstimate() int64 { return p.VenueType().GasEstimate() }

func (p *JexchangeDepositPool) DeepCopy() domain.PricingModel {
	return &JexchangeDepositPool{Underlying: p.Underlying.DeepCopy().(*JexchangePool)}
}

func (p *JexchangeDepositPool) ExchangeRates(scAddress string) []domain.ExchangeRate { return nil }

func (p *JexchangeDepositPool) LPTokenComposition() (domain.LPComposition, bool) {
	return p.Underlying.LPTokenComposition()
}

func otherToken(r reserves, token string) string {
	if token == r.firstToken.Identifier {
		return r.secondToken.Identifier
	}
	return r.firstToken.Identifier
}
