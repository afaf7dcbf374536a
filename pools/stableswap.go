package pools

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/bignum"
	"github.com/jexdex/aggregator-engine/curve"
	"github.com/jexdex/aggregator-engine/domain"
)

// StableswapPool is the Curve-style N-token stable-swap pool shared by
// AshSwap's stable pool and jexchange's stable pool (spec.md §1 table),
// grounded on opendex_aggregator_api/pools/stableswap.py +
// pools.py's StableSwapPool. Reserves are tracked in native decimals;
// underlying_prices weight them when they represent different pegged assets.
type StableswapPool struct {
	SCAddress         string
	Venue             domain.VenueType // VenueAshswapStablepool or VenueJexchangeStablepool
	Amp               math.Int
	SwapFeeNumerator  int64
	SwapFeeMaxFee     int64
	LPToken           domain.Token
	LPSupply          math.Int
	Tokens            []domain.Token
	Reserves          []math.Int
	UnderlyingPrices  []math.Int // 18-decimal weights, 1e18 = 1:1
}

const underlyingPricePrecision = 18

func (p *StableswapPool) VenueType() domain.VenueType { return p.Venue }

func (p *StableswapPool) indexOf(identifier string) (int, bool) {
	for i, t := range p.Tokens {
		if t.Identifier == identifier {
			return i, true
		}
	}
	return -1, false
}

func (p *StableswapPool) normalizedReserves() []math.Int {
	out := make([]math.Int, len(p.Reserves))
	for i, r := range p.Reserves {
		out[i] = bignum.Normalize(r, p.Tokens[i].Decimals)
	}
	return out
}

// weightedReserves applies the underlying-price weights to normalized
// reserves, matching stableswap.py's estimate_amount_out reserve rescale.
func weightedReserves(normalized, prices []math.Int) []math.Int {
	out := make([]math.Int, len(normalized))
	precision := pow10(underlyingPricePrecision)
	for i := range normalized {
		out[i] = normalized[i].Mul(prices[i]).Quo(precision)
	}
	return out
}

func (p *StableswapPool) quoteOutNormalized(iIn, iOut int, normalizedAmountIn math.Int) (math.Int, error) {
	precision := pow10(underlyingPricePrecision)
	normalized := p.normalizedReserves()
	weighted := weightedReserves(normalized, p.UnderlyingPrices)

	inReserve := weighted[iIn]
	outReserve := weighted[iOut]
	if normalizedAmountIn.IsZero() || inReserve.IsZero() || outReserve.IsZero() {
		return math.ZeroInt(), nil
	}

	dx := normalizedAmountIn.Mul(p.UnderlyingPrices[iIn]).Quo(precision)

	outReserveAfter, err := curve.Y(p.Amp, weighted, iIn, iOut, weighted[iIn].Add(dx))
	if err != nil {
		return math.Int{}, err
	}

	dy := outReserve.Sub(outReserveAfter).Mul(precision).Quo(p.UnderlyingPrices[iOut])
	return dy, nil
}

func (p *StableswapPool) QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (domain.QuoteResult, error) {
	iIn, ok := p.indexOf(tokenIn)
	if !ok {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenIn}
	}
	iOut, ok := p.indexOf(tokenOut)
	if !ok {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenOut}
	}

	normalizedIn := bignum.Normalize(amountIn, p.Tokens[iIn].Decimals)
	normalizedOut, err := p.quoteOutNormalized(iIn, iOut, normalizedIn)
	if err != nil {
		return domain.QuoteResult{}, err
	}

	amountOut := bignum.Denormalize(normalizedOut, p.Tokens[iOut].Decimals)
	fee := amountOut.MulRaw(p.SwapFeeNumerator).Quo(math.NewInt(p.SwapFeeMaxFee))

	return domain.QuoteResult{Amount: amountOut.Sub(fee)}, nil
}

func (p *StableswapPool) QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (domain.QuoteResult, error) {
	return domain.QuoteResult{}, domain.ErrUnsupportedOperation
}

func (p *StableswapPool) TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error) {
	iIn, ok := p.indexOf(tokenIn)
	if !ok {
		return math.Int{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenIn}
	}
	iOut, ok := p.indexOf(tokenOut)
	if !ok {
		return math.Int{}, domain.InvalidTokenError{PoolAddress: p.SCAddress, Token: tokenOut}
	}

	normalizedIn := bignum.Normalize(amountIn, p.Tokens[iIn].Decimals)
	amountNum := normalizedIn.Mul(p.UnderlyingPrices[iIn])
	amount := amountNum.Quo(p.UnderlyingPrices[iOut])
	fee := amount.MulRaw(p.SwapFeeNumerator).Quo(math.NewInt(p.SwapFeeMaxFee))

	return bignum.Denormalize(amount.Sub(fee), p.Tokens[iOut].Decimals), nil
}

func (p *StableswapPool) UpdateReserves(tokenIn string, amountIn math.Int, tokenOut string, amountOut math.Int) error {
	iIn, _ := p.indexOf(tokenIn)
	iOut, _ := p.indexOf(tokenOut)
	p.Reserves[iIn] = p.Reserves[iIn].Add(amountIn)
	p.Reserves[iOut] = p.Reserves[iOut].Sub(amountOut)
	return nil
}

func (p *StableswapPool) GasEstimate() int64 { return p.Venue.GasEstimate() }

func (p *StableswapPool) DeepCopy() domain.PricingModel {
	cp := *p
	cp.Tokens = append([]domain.Token(nil), p.Tokens...)
	cp.Reserves = append([]math.Int(nil), p.Reserves...)
	cp.UnderlyingPrices = append([]math.Int(nil), p.UnderlyingPrices...)
	return &cp
}

func (p *StableswapPool) ExchangeRates(scAddress string) []domain.ExchangeRate {
	source := "ashswap"
	if p.Venue == domain.VenueJexchangeStablepool {
		source = "jexchange"
	}

	var rates []domain.ExchangeRate
	for iIn, tokenIn := range p.Tokens {
		probeAmount := pow10(tokenIn.Decimals).QuoRaw(1000)
		for iOut, tokenOut := range p.Tokens {
			if iIn == iOut {
				continue
			}
			normalizedIn := bignum.Normalize(probeAmount, tokenIn.Decimals)
			normalizedOut, err := p.quoteOutNormalized(iIn, iOut, normalizedIn)
			if err != nil || normalizedOut.IsZero() {
				continue
			}

			rate := floatRatio(normalizedIn, normalizedOut)
			rate2 := floatRatio(normalizedOut, normalizedIn)

			rates = append(rates, domain.ExchangeRate{
				BaseToken: tokenIn.Identifier, QuoteToken: tokenOut.Identifier,
				Rate: rate, Rate2: rate2,
				BaseLiquidity: p.Reserves[iIn], QuoteLiquidity: p.Reserves[iOut],
				SCAddress: scAddress, Source: source,
			})
		}
	}
	return rates
}

func (p *StableswapPool) LPTokenComposition() (domain.LPComposition, bool) {
	ids := make([]string, len(p.Tokens))
	for i, t := range p.Tokens {
		ids[i] = t.Identifier
	}
	return domain.LPComposition{
		LPTokenIdentifier: p.LPToken.Identifier,
		LPTokenSupply:     p.LPSupply,
		TokenIdentifiers:  ids,
		TokenReserves:     append([]math.Int(nil), p.Reserves...),
	}, true
}

// StableswapDepositPool is a synthesized one-sided imbalanced deposit into a
// StableswapPool, grounded on stableswap.py's estimate_deposit.
type StableswapDepositPool struct {
	Underlying *StableswapPool
}

func (p *StableswapDepositPool) VenueType() domain.VenueType {
	return domain.VenueJexchangeStablepoolDeposit
}

func (p *StableswapDepositPool) QuoteOut(tokenIn string, amountIn math.Int, tokenOut string) (domain.QuoteResult, error) {
	u := p.Underlying
	if tokenOut != u.LPToken.Identifier {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: u.SCAddress, Token: tokenOut}
	}
	iIn, ok := u.indexOf(tokenIn)
	if !ok {
		return domain.QuoteResult{}, domain.InvalidTokenError{PoolAddress: u.SCAddress, Token: tokenIn}
	}

	deposits := make([]math.Int, len(u.Tokens))
	for i := range deposits {
		deposits[i] = math.ZeroInt()
	}
	deposits[iIn] = bignum.Normalize(amountIn, u.Tokens[iIn].Decimals)

	// liq_fee = swap_fee * n / (4 * (n - 1)) (jexchange.py:290-291,
	// spec.md §4.2): imbalanced deposits pay the pool's liquidity fee, not
	// its raw swap fee, scaled down because a deposit only taxes the
	// deviation from the ideal balance, not a full swap.
	n := int64(len(u.Tokens))
	liqFeeNumerator := math.NewInt(u.SwapFeeNumerator).MulRaw(n).QuoRaw(4 * (n - 1))

	shares, adminFeeOut, err := estimateStableswapDeposit(u.Amp, u.Reserves, u.Tokens, u.UnderlyingPrices, deposits, u.LPSupply, liqFeeNumerator, u.SwapFeeMaxFee)
	if err != nil {
		return domain.QuoteResult{}, err
	}
	return domain.QuoteResult{Amount: shares, AdminFeeOut: adminFeeOut}, nil
}

// estimateStableswapDeposit mints LP shares for an arbitrary (possibly
// multi-token) deposit into a stable-swap pool, grounded line-for-line on
// stableswap.py's estimate_deposit. reserves are in each token's native
// decimals; deposits are normalized (18-decimal) amounts per token, matching
// the shape callers already have on hand (a single-asset deposit has every
// entry but one at zero).
func estimateStableswapDeposit(amp math.Int, reserves []math.Int, tokens []domain.Token, underlyingPrices, deposits []math.Int, lpSupply math.Int, liqFeeNumerator math.Int, maxFee int64) (shares, adminFeeOut math.Int, err error) {
	normalized := make([]math.Int, len(reserves))
	for i, r := range reserves {
		normalized[i] = bignum.Normalize(r, tokens[i].Decimals)
	}
	oldXs := weightedReserves(normalized, underlyingPrices)

	d0 := math.ZeroInt()
	if lpSupply.IsPositive() {
		d0, err = curve.D(amp, oldXs)
		if err != nil {
			return math.Int{}, math.Int{}, err
		}
	}

	scaledDeposits := weightedReserves(deposits, underlyingPrices)
	newXs := make([]math.Int, len(oldXs))
	for i := range oldXs {
		newXs[i] = oldXs[i].Add(scaledDeposits[i])
	}

	d1, err := curve.D(amp, newXs)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	if d1.LTE(d0) {
		return math.ZeroInt(), math.ZeroInt(), nil
	}

	maxFeeI := math.NewInt(maxFee)
	if lpSupply.IsPositive() {
		newXs2 := make([]math.Int, len(newXs))
		for i := range oldXs {
			idealBalance := oldXs[i].Mul(d1).Quo(d0)
			diff := absDiffInt(newXs[i], idealBalance)
			fee := diff.Mul(liqFeeNumerator).Quo(maxFeeI)
			newXs2[i] = newXs[i].Sub(fee)
		}
		d2, err := curve.D(amp, newXs2)
		if err != nil {
			return math.Int{}, math.Int{}, err
		}
		shares = d2.Sub(d0).Mul(lpSupply).Quo(d0)

		// admin_fee_out = shares * (liq_fee * 33) // 100 (jexchange.py:301).
		// liqFeeNumerator is left in its swap-fee-numerator scale here, not
		// re-divided by maxFee again, matching the reference exactly.
		adminFeeOut = shares.Mul(liqFeeNumerator).MulRaw(33).QuoRaw(100)
	} else {
		// The pool's first deposit sets the initial balance; there is no
		// imbalance to tax yet.
		shares = d1
		adminFeeOut = math.ZeroInt()
	}

	return shares, adminFeeOut, nil
}

func (p *StableswapDepositPool) QuoteIn(tokenOut string, netAmountOut math.Int, tokenIn string) (domain.QuoteResult, error) {
	return domain.QuoteResult{}, domain.ErrUnsupportedOperation
}

func (p *StableswapDepositPool) TheoreticalOut(tokenIn string, amountIn math.Int, tokenOut string) (math.Int, error) {
	q, err := p.QuoteOut(tokenIn, amountIn, tokenOut)
	return q.Amount, err
}

func (p *StableswapDepositPool) UpdateReserves(tokenIn string, amountInNetOfAdmin math.Int, tokenOut string, amountOutPlusAdmin math.Int) error {
	return nil
}

func (p *StableswapDepositPool) GasEstimate() int64 { return p.VenueType().GasEstimate() }

func (p *StableswapDepositPool) DeepCopy() domain.PricingModel {
	return &StableswapDepositPool{Underlying: p.Underlying.DeepCopy().(*StableswapPool)}
}

func (p *StableswapDepositPool) ExchangeRates(scAddress string) []domain.ExchangeRate { return nil }

func (p *StableswapDepositPool) LPTokenComposition() (domain.LPComposition, bool) {
	return p.Underlying.LPTokenComposition()
}

func absDiffInt(a, b math.Int) math.Int {
	if a.GT(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

func floatRatio(num, den math.Int) float64 {
	if den.IsZero() {
		return 0
	}
	f, _ := new(big.Rat).SetFrac(num.BigInt(), den.BigInt()).Float64()
	return f
}
