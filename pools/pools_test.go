package pools

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/jexdex/aggregator-engine/domain"
)

func tok(id string, decimals int) domain.Token {
	return domain.Token{Identifier: id, Decimals: decimals}
}

func TestXExchangePool_QuoteOut_FeeOnInput(t *testing.T) {
	p := NewXExchangePool("sc1", tok("LP-xexc", 18), math.NewInt(1_000_000),
		300, 0, // 0.3% (300 / 100_000), no special fee
		tok("WEGLD-bd4d79", 18), math.NewInt(10_000_000_000_000_000_000_000),
		tok("USDC-c76f1f", 6), math.NewInt(30_000_000_000_000))

	result, err := p.QuoteOut("WEGLD-bd4d79", math.NewInt(1_000_000_000_000_000_000), "USDC-c76f1f")
	require.NoError(t, err)
	require.True(t, result.Amount.IsPositive())

	theoretical, err := p.TheoreticalOut("WEGLD-bd4d79", math.NewInt(1_000_000_000_000_000_000), "USDC-c76f1f")
	require.NoError(t, err)
	// Property 2: a real quote never exceeds its fee-free theoretical twin.
	require.True(t, result.Amount.LTE(theoretical))
}

func TestXExchangePool_UpdateReserves_PreservesTotalValueDirection(t *testing.T) {
	p := NewXExchangePool("sc1", tok("LP-xexc", 18), math.NewInt(1_000_000),
		300, 0,
		tok("WEGLD-bd4d79", 18), math.NewInt(10_000_000_000_000_000_000_000),
		tok("USDC-c76f1f", 6), math.NewInt(30_000_000_000_000))

	amountIn := math.NewInt(1_000_000_000_000_000_000)
	result, err := p.QuoteOut("WEGLD-bd4d79", amountIn, "USDC-c76f1f")
	require.NoError(t, err)

	before := p.r.firstReserves
	require.NoError(t, p.UpdateReserves("WEGLD-bd4d79", amountIn, "USDC-c76f1f", result.Amount))
	require.True(t, p.r.firstReserves.Equal(before.Add(amountIn)))
}

func TestXExchangePool_QuoteOut_ReportsSpecialFeeAsAdminFeeIn(t *testing.T) {
	p := NewXExchangePool("sc1", tok("LP-xexc", 18), math.NewInt(1_000_000),
		300, 50, // total_fee 0.3%, special_fee 0.05% of it (xexchange.py:59-61)
		tok("WEGLD-bd4d79", 18), math.NewInt(10_000_000_000_000_000_000_000),
		tok("USDC-c76f1f", 6), math.NewInt(30_000_000_000_000))

	amountIn := math.NewInt(1_000_000_000_000_000_000)
	result, err := p.QuoteOut("WEGLD-bd4d79", amountIn, "USDC-c76f1f")
	require.NoError(t, err)
	require.True(t, result.AdminFeeIn.Equal(amountIn.MulRaw(50).QuoRaw(xexchangeMaxFee)))
}

func TestOneDexPool_MainPairFeeOnInput(t *testing.T) {
	p := NewOneDexPool("sc2", tok("LP-one", 18), math.NewInt(500_000), 200,
		[]string{"WEGLD-bd4d79"},
		tok("WEGLD-bd4d79", 18), math.NewInt(5_000_000_000_000_000_000_000),
		tok("MEX-455c57", 18), math.NewInt(9_000_000_000_000_000_000_000_000))

	result, err := p.QuoteOut("WEGLD-bd4d79", math.NewInt(1_000_000_000_000_000_000), "MEX-455c57")
	require.NoError(t, err)
	require.True(t, result.Amount.IsPositive())
}

func TestOneDexPool_NonMainPairFeeOnOutput(t *testing.T) {
	p := NewOneDexPool("sc2", tok("LP-one", 18), math.NewInt(500_000), 200,
		[]string{"WEGLD-bd4d79"},
		tok("WEGLD-bd4d79", 18), math.NewInt(5_000_000_000_000_000_000_000),
		tok("MEX-455c57", 18), math.NewInt(9_000_000_000_000_000_000_000_000))

	result, err := p.QuoteOut("MEX-455c57", math.NewInt(1_000_000_000_000_000_000_000), "WEGLD-bd4d79")
	require.NoError(t, err)
	require.True(t, result.Amount.IsPositive())
}

func TestOpendexPool_FeeTokenBranch(t *testing.T) {
	p := &OpendexPool{
		SCAddress: "sc3", Venue: domain.VenueOpendex,
		LPToken: tok("LP-odx", 18), LPSupply: math.NewInt(1_000_000),
		TotalFee: 30, PlatformFee: 20, FeeToken: "WEGLD-bd4d79",
		r: reserves{
			firstToken: tok("WEGLD-bd4d79", 18), firstReserves: math.NewInt(2_000_000_000_000_000_000_000),
			secondToken: tok("USDC-c76f1f", 6), secondReserves: math.NewInt(6_000_000_000_000),
		},
	}

	result, err := p.QuoteOut("WEGLD-bd4d79", math.NewInt(1_000_000_000_000_000_000), "USDC-c76f1f")
	require.NoError(t, err)
	require.True(t, result.Amount.IsPositive())
	require.True(t, result.AdminFeeIn.IsPositive())
	require.True(t, result.AdminFeeOut.IsZero())
}

func TestConstantPricePool_XOXNOMinimumInputGuard(t *testing.T) {
	p := &ConstantPricePool{
		SCAddress: "sc4", Venue: domain.VenueXoxnoLiquidStaking,
		Price:           math.NewInt(1_050_000_000_000_000_000), // 1.05
		TokenIn:         tok("EGLD", 18),
		TokenOut:        tok("XEGLD-23b511", 18),
		TokenOutReserve: math.NewInt(1_000_000_000_000_000_000_000_000),
		MinimumInput:    math.NewInt(1_000_000_000_000_000_000),
	}

	_, err := p.QuoteOut("EGLD", math.NewInt(100), "XEGLD-23b511")
	require.Error(t, err)

	result, err := p.QuoteOut("EGLD", math.NewInt(2_000_000_000_000_000_000), "XEGLD-23b511")
	require.NoError(t, err)
	require.True(t, result.Amount.IsPositive())
	require.True(t, result.Amount.LT(math.NewInt(2_000_000_000_000_000_000)))
}
