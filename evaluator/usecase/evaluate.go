// Package usecase prices a single SwapRoute for a given input amount,
// walking its hops against the published pool snapshot and applying the
// aggregator's own fee. Grounded on
// opendex_aggregator_api/services/evaluations.py's evaluate().
package usecase

import (
	"context"

	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/domain"
	routeusecase "github.com/jexdex/aggregator-engine/router/usecase"
)

// PoolModelSource resolves the pricing model for one routable edge, served
// by store.PoolStore.
type PoolModelSource interface {
	Model(venue domain.VenueType, tokenIn, tokenOut string) (domain.PricingModel, bool)
}

// Evaluation is the priced result of walking one route for one input amount,
// mirroring the Python SwapEvaluation record (spec.md §4.4).
type Evaluation struct {
	Route               routeusecase.Route
	AmountIn            math.Int
	NetAmountOut        math.Int
	TheoreticalAmountOut math.Int
	EstimatedGas        int64
	FeeAmount           math.Int
	FeeToken            string
}

// baseGas is the fixed per-transaction overhead charged regardless of route
// length (signature verification, the aggregator entrypoint itself).
const baseGas int64 = 10_000_000

// noFeeVenues lists venue families the aggregator never re-charges its own
// fee on, because their own protocol fee already covers the aggregator's
// cut (spec.md §4.4 fee-application discriminant).
var noFeeVenues = map[domain.VenueType]bool{
	domain.VenueHatomStake:             true,
	domain.VenueHatomMoneyMarketMint:   true,
	domain.VenueHatomMoneyMarketRedeem: true,
	domain.VenueXoxnoLiquidStaking:     true,
}

// Evaluator walks routes against a pool snapshot, applying the aggregator's
// own fee once per route (spec.md §4.4, §9 "aggregator fee").
type Evaluator struct {
	pools     PoolModelSource
	feeToken  string
	feeNum    int64
	feeDen    int64
}

// PoolCacheKey identifies one deep-copied pricing model within a shared
// evaluation cache (spec.md Sec4.4 pools_cache).
type PoolCacheKey struct {
	SCAddress string
	TokenIn   string
	TokenOut  string
}

func NewEvaluator(pools PoolModelSource, cfg domain.EvaluatorConfig) *Evaluator {
	return &Evaluator{
		pools:    pools,
		feeToken: cfg.FeeTokenIdentifier,
		feeNum:   cfg.FeeMultiplierNumerator,
		feeDen:   cfg.FeeMultiplierDenominator,
	}
}

// shouldApplyFee implements the resolved fee-application discriminant
// (SPEC_FULL.md §4.4): the aggregator fee is only charged on multi-hop
// routes, and never on a route where any hop is a venue which already
// bears its own equivalent protocol fee.
func shouldApplyFee(route routeusecase.Route) bool {
	if len(route.Hops) <= 1 {
		return false
	}
	for _, h := range route.Hops {
		if noFeeVenues[h.Pool.Type] {
			return false
		}
	}
	return true
}

// Evaluate prices route for amountIn. poolsCache, if non-nil, is shared
// across multiple Evaluate calls within one request (e.g. every bucket of
// the split-route optimizer) so repeated hops through the same pool reuse
// one deep copy (spec.md §4.4, §4.5).
func (e *Evaluator) Evaluate(ctx context.Context, route routeusecase.Route, amountIn math.Int, poolsCache map[PoolCacheKey]domain.PricingModel, updateReserves bool) (Evaluation, error) {
	if poolsCache == nil {
		poolsCache = map[PoolCacheKey]domain.PricingModel{}
	}

	applyFee := shouldApplyFee(route)
	feeApplied := false

	token := route.TokenIn
	amount := amountIn
	theoreticalAmount := amountIn
	estimatedGas := baseGas
	var feeAmount math.Int
	var feeToken string

	for _, hop := range route.Hops {
		if hop.TokenIn != token {
			return Evaluation{}, domain.InvalidTokenError{PoolAddress: hop.Pool.SCAddress, Token: hop.TokenIn}
		}

		key := PoolCacheKey{SCAddress: hop.Pool.SCAddress, TokenIn: hop.TokenIn, TokenOut: hop.TokenOut}
		model, ok := poolsCache[key]
		if !ok {
			base, found := e.pools.Model(hop.Pool.Type, hop.TokenIn, hop.TokenOut)
			if !found {
				return Evaluation{}, domain.InvalidTokenError{PoolAddress: hop.Pool.SCAddress, Token: hop.TokenOut}
			}
			model = base.DeepCopy()
			poolsCache[key] = model
		}

		if applyFee && !feeApplied && hop.TokenIn == e.feeToken {
			feeAmount = amount.MulRaw(e.feeNum).QuoRaw(e.feeDen)
			feeToken = e.feeToken
			amount = amount.Sub(feeAmount)
			theoreticalAmount = theoreticalAmount.Sub(feeAmount)
			feeApplied = true
		}

		hopAmountIn := amount
		quote, quoteErr := model.QuoteOut(hop.TokenIn, amount, hop.TokenOut)
		if quoteErr != nil {
			// A single failing hop discards the whole route rather than the
			// whole request (spec.md §4.4): the caller sees amount=0 for this
			// route and simply ranks it last.
			amount = math.ZeroInt()
		} else {
			amount = quote.Amount
		}

		theoreticalOut, theoErr := model.TheoreticalOut(hop.TokenIn, theoreticalAmount, hop.TokenOut)
		if theoErr == nil {
			theoreticalAmount = theoreticalOut
		}

		if updateReserves && quoteErr == nil {
			// Reserves move by the net-of-admin-fee amounts on each side, not
			// by the gross hop input/output (services/evaluations.py:72-77,
			// spec.md §4.4 step 4): the admin's cut never enters the pool.
			_ = model.UpdateReserves(hop.TokenIn, hopAmountIn.Sub(quote.AdminFeeIn), hop.TokenOut, quote.Amount.Add(quote.AdminFeeOut))
		}

		token = hop.TokenOut
		estimatedGas += model.GasEstimate()
	}

	if token != route.TokenOut {
		return Evaluation{}, domain.InvalidTokenError{PoolAddress: "", Token: token}
	}

	if applyFee && !feeApplied {
		feeAmount = amount.MulRaw(e.feeNum).QuoRaw(e.feeDen)
		feeToken = token
		amount = amount.Sub(feeAmount)
	}
	if feeAmount.IsNil() {
		feeAmount = math.ZeroInt()
	}

	return Evaluation{
		Route:                route,
		AmountIn:             amountIn,
		NetAmountOut:         amount,
		TheoreticalAmountOut: theoreticalAmount,
		EstimatedGas:         estimatedGas,
		FeeAmount:            feeAmount,
		FeeToken:             feeToken,
	}, nil
}

// EvaluateIn prices route for a desired net output, walking hops in reverse
// with quote_in (spec.md §4.4 "fixed-output evaluation: same walk, reversed,
// using quote_in"). It returns domain.ErrUnsupportedOperation if any hop's
// pricing model does not implement QuoteIn. The aggregator fee is applied
// on the output side first, matching spec.md's ordering for this direction.
func (e *Evaluator) EvaluateIn(ctx context.Context, route routeusecase.Route, netAmountOut math.Int, poolsCache map[PoolCacheKey]domain.PricingModel, updateReserves bool) (Evaluation, error) {
	if poolsCache == nil {
		poolsCache = map[PoolCacheKey]domain.PricingModel{}
	}

	applyFee := shouldApplyFee(route)

	token := route.TokenOut
	amount := netAmountOut
	estimatedGas := baseGas
	var feeAmount math.Int
	var feeToken string

	if applyFee {
		// amount here is net of fee; gross it up so the pool sees the output
		// the caller actually wants net of the aggregator's own cut.
		gross := amount.MulRaw(e.feeDen).QuoRaw(e.feeDen - e.feeNum)
		feeAmount = gross.Sub(amount)
		feeToken = token
		amount = gross
	}

	for i := len(route.Hops) - 1; i >= 0; i-- {
		hop := route.Hops[i]
		if hop.TokenOut != token {
			return Evaluation{}, domain.InvalidTokenError{PoolAddress: hop.Pool.SCAddress, Token: hop.TokenOut}
		}

		key := PoolCacheKey{SCAddress: hop.Pool.SCAddress, TokenIn: hop.TokenIn, TokenOut: hop.TokenOut}
		model, ok := poolsCache[key]
		if !ok {
			base, found := e.pools.Model(hop.Pool.Type, hop.TokenIn, hop.TokenOut)
			if !found {
				return Evaluation{}, domain.InvalidTokenError{PoolAddress: hop.Pool.SCAddress, Token: hop.TokenIn}
			}
			model = base.DeepCopy()
			poolsCache[key] = model
		}

		quote, err := model.QuoteIn(hop.TokenOut, amount, hop.TokenIn)
		if err != nil {
			return Evaluation{}, err
		}

		if updateReserves {
			// Same net-of-admin-fee accounting as Evaluate's forward walk:
			// reserves move by the amounts net of each side's admin cut.
			_ = model.UpdateReserves(hop.TokenIn, quote.Amount.Sub(quote.AdminFeeIn), hop.TokenOut, amount.Add(quote.AdminFeeOut))
		}

		amount = quote.Amount
		token = hop.TokenIn
		estimatedGas += model.GasEstimate()
	}

	if token != route.TokenIn {
		return Evaluation{}, domain.InvalidTokenError{PoolAddress: "", Token: token}
	}
	if feeAmount.IsNil() {
		feeAmount = math.ZeroInt()
	}

	return Evaluation{
		Route:                route,
		AmountIn:             amount,
		NetAmountOut:         netAmountOut,
		TheoreticalAmountOut: netAmountOut,
		EstimatedGas:         estimatedGas,
		FeeAmount:            feeAmount,
		FeeToken:             feeToken,
	}, nil
}
