package rpc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func putAddress(buf []byte, fill byte) []byte {
	addr := make([]byte, 32)
	for i := range addr {
		addr[i] = fill
	}
	return append(buf, addr...)
}

func putUint8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

func putUint32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return append(buf, b...)
}

func putUint64(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return append(buf, b...)
}

func putNestedString(buf []byte, s string) []byte {
	buf = putUint32(buf, uint32(len(s)))
	return append(buf, []byte(s)...)
}

func putAmount(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	// trim leading zero bytes the way a real on-chain BigUint encoding would
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	trimmed := b[i:]
	buf = putUint32(buf, uint32(len(trimmed)))
	return append(buf, trimmed...)
}

func TestParseXExchangePoolStatus_RoundTrips(t *testing.T) {
	var buf []byte
	buf = putAddress(buf, 0xAA)
	buf = putUint8(buf, 1)
	buf = putNestedString(buf, "WEGLD-bd4d79")
	buf = putNestedString(buf, "USDC-c76f1f")
	buf = putAmount(buf, 1_000_000)
	buf = putAmount(buf, 2_000_000)
	buf = putAmount(buf, 500)
	buf = putUint32(buf, 300)
	buf = putUint64(buf, 0)

	status, err := ParseXExchangePoolStatus(buf)
	require.NoError(t, err)
	require.EqualValues(t, 1, status.State)
	require.Equal(t, "WEGLD-bd4d79", status.FirstTokenID)
	require.Equal(t, "USDC-c76f1f", status.SecondTokenID)
	require.Equal(t, int64(1_000_000), status.FirstTokenReserve.Int64())
	require.Equal(t, int64(2_000_000), status.SecondTokenReserve.Int64())
	require.EqualValues(t, 300, status.TotalFeePercent)
}

func TestParseXExchangePoolStatus_ShortBufferErrors(t *testing.T) {
	_, err := ParseXExchangePoolStatus([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestParseHatomMoneyMarket_RoundTrips(t *testing.T) {
	var buf []byte
	buf = putAddress(buf, 0xBB)
	buf = putNestedString(buf, "HEGLD-abcdef")
	buf = putNestedString(buf, "WEGLD-bd4d79")
	buf = putAmount(buf, 10_000_000)
	buf = putAmount(buf, 1_050_000_000_000_000_000) // ratio tokens->underlying, ~1.05
	buf = putAmount(buf, 950_000_000_000_000_000)   // ratio underlying->tokens, ~0.95

	mm, err := ParseHatomMoneyMarket(buf)
	require.NoError(t, err)
	require.Equal(t, "HEGLD-abcdef", mm.HatomTokenID)
	require.Equal(t, "WEGLD-bd4d79", mm.UnderlyingID)
	require.Equal(t, int64(10_000_000), mm.Cash.Int64())
}

func TestParseJexStablePoolStatus_DefaultsUnderlyingPricesWhenAbsent(t *testing.T) {
	var buf []byte
	buf = putUint8(buf, 0) // not paused
	buf = putUint32(buf, 200) // amp factor
	buf = putUint32(buf, 2) // nb_tokens
	buf = putNestedString(buf, "USDC-c76f1f")
	buf = putNestedString(buf, "USDT-189hjk")
	buf = putAmount(buf, 1_000_000)
	buf = putAmount(buf, 1_000_000)
	buf = putNestedString(buf, "STABLE-lp1234")
	buf = putAmount(buf, 2_000_000)
	buf = putAddress(buf, 0xCC)
	buf = putUint32(buf, 10) // swap fee
	buf = putUint8(buf, 0)   // no platform fee receiver
	// volumes, fees, fees_7 (2 tokens each), then nothing more: triggers the
	// "no underlying_prices on the wire" default-to-1e18 branch.
	for i := 0; i < 3; i++ {
		buf = putAmount(buf, 0)
		buf = putAmount(buf, 0)
	}

	status, err := ParseJexStablePoolStatus(buf)
	require.NoError(t, err)
	require.False(t, status.Paused)
	require.Len(t, status.UnderlyingPrices, 2)
	require.True(t, status.UnderlyingPrices[0].Equal(bignumOneE18()))
	require.True(t, status.UnderlyingPrices[1].Equal(bignumOneE18()))
}

func TestParseOpendexPair_NoFeeTokenSet(t *testing.T) {
	var buf []byte
	buf = putAddress(buf, 0x01)
	buf = putAddress(buf, 0x02)
	buf = putUint8(buf, 0) // not paused
	buf = putNestedString(buf, "TOKA-111111")
	buf = putAmount(buf, 1_000)
	buf = putNestedString(buf, "TOKB-222222")
	buf = putAmount(buf, 2_000)
	buf = putNestedString(buf, "LP-333333")
	buf = putUint8(buf, 1) // mint/burn enabled
	buf = putAmount(buf, 500)
	buf = putUint32(buf, 100)
	buf = putUint32(buf, 20)
	buf = putAddress(buf, 0x03)
	buf = putUint8(buf, 0) // fee token not set

	pair, err := ParseOpendexPair(buf)
	require.NoError(t, err)
	require.False(t, pair.Paused)
	require.False(t, pair.FeeTokenIDSet)
	require.Equal(t, "TOKA-111111", pair.FirstTokenID)
}
