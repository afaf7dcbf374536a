// Package serialize implements the bit-exact on-chain route payload and the
// amounts_and_routes transaction payload, grounded on
// opendex_aggregator_api/pools/model.py's SwapHop.serialize /
// SwapRoute.serialize and SwapEvaluation/DynamicRoutingSwapEvaluation's
// build_tx_payload (spec.md §6). This is the wire format the on-chain
// aggregator contract itself decodes, so every field width and ordering
// here is load-bearing, not a style choice.
package serialize

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"cosmossdk.io/math"

	evaluatorusecase "github.com/jexdex/aggregator-engine/evaluator/usecase"
	optimizerusecase "github.com/jexdex/aggregator-engine/optimizer/usecase"
	routeusecase "github.com/jexdex/aggregator-engine/router/usecase"
)

// slippageToleranceNumerator/Denominator implement the Python reference's
// fixed 0.25% slippage tolerance on the minimum accepted output
// (net_amount_out * 9975 // 10_000).
const (
	slippageToleranceNumerator   = 9975
	slippageToleranceDenominator = 10_000
)

// scAddressBytes renders an SCAddress as the 32 raw bytes the wire format
// needs. Real on-chain addresses decode directly from their 64-hex-char
// form; anything else (e.g. a test fixture's short opaque string) is
// hashed down to a stable 32-byte value instead of panicking, since this
// core's SCAddress values are opaque identifiers rather than a guaranteed
// bech32/hex encoding (sync/rpc.AddressString grounded this same choice).
func scAddressBytes(addr string) [32]byte {
	if len(addr) == 64 {
		if b, err := hex.DecodeString(addr); err == nil && len(b) == 32 {
			var out [32]byte
			copy(out[:], b)
			return out
		}
	}
	return sha256.Sum256([]byte(addr))
}

// Hop serializes one SwapHop: the pool's 32-byte address, its venue-type
// wire code, and the hop's token_out (length-prefixed), grounded on
// SwapHop.serialize.
func Hop(hop routeusecase.Hop) []byte {
	addr := scAddressBytes(hop.Pool.SCAddress)

	out := make([]byte, 0, 32+1+4+len(hop.TokenOut))
	out = append(out, addr[:]...)
	out = append(out, hop.Pool.Type.TypeCode())
	out = appendNestedString(out, hop.TokenOut)
	return out
}

// Route serializes a full SwapRoute: token_in (length-prefixed), the hop
// count, then each hop in order, grounded on SwapRoute.serialize.
func Route(route routeusecase.Route) []byte {
	out := appendNestedString(nil, route.TokenIn)
	out = appendUint32(out, uint32(len(route.Hops)))
	for _, hop := range route.Hops {
		out = append(out, Hop(hop)...)
	}
	return out
}

func appendUint32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return append(buf, b...)
}

func appendNestedString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, []byte(s)...)
}

// str2hex / int2hex_even_size mirror utils/convert.py exactly: ASCII bytes
// hex-encoded, and an integer hex-encoded and left-padded with one "0" when
// its length is odd (MultiversX argument convention: every argument must be an
// even number of hex characters).
func str2hex(s string) string {
	return hex.EncodeToString([]byte(s))
}

func int2hexEvenSize(v math.Int) string {
	h := v.BigInt().Text(16)
	if len(h)%2 != 0 {
		h = "0" + h
	}
	return h
}

// minAmountOut applies the fixed 0.25% slippage tolerance.
func minAmountOut(netAmountOut math.Int) math.Int {
	return netAmountOut.MulRaw(slippageToleranceNumerator).QuoRaw(slippageToleranceDenominator)
}

// BuildTxPayload renders the single-route "aggregate" transaction payload
// (an ESDTTransfer smart-contract call, @-joined hex fields), grounded on
// SwapEvaluation.build_tx_payload.
func BuildTxPayload(eval evaluatorusecase.Evaluation) string {
	fields := []string{
		"ESDTTransfer",
		str2hex(eval.Route.TokenIn),
		int2hexEvenSize(eval.AmountIn),
		str2hex("aggregate"),
		str2hex(eval.Route.TokenOut),
		int2hexEvenSize(minAmountOut(eval.NetAmountOut)),
		int2hexEvenSize(eval.AmountIn),
		hex.EncodeToString(Route(eval.Route)),
	}
	return joinAt(fields)
}

// BuildDynamicTxPayload renders the split-route "aggregate" transaction
// payload: one (amount_in, serialized route) pair per chosen allocation,
// grounded on DynamicRoutingSwapEvaluation.build_tx_payload.
func BuildDynamicTxPayload(result optimizerusecase.Result) string {
	if len(result.Allocations) == 0 {
		return ""
	}

	first := result.Allocations[0].Evaluation.Route
	fields := []string{
		"ESDTTransfer",
		str2hex(first.TokenIn),
		int2hexEvenSize(totalAmountIn(result)),
		str2hex("aggregate"),
		str2hex(first.TokenOut),
		int2hexEvenSize(minAmountOut(result.NetAmountOut)),
	}
	for _, alloc := range result.Allocations {
		fields = append(fields, int2hexEvenSize(alloc.AmountIn), hex.EncodeToString(Route(alloc.Evaluation.Route)))
	}
	return joinAt(fields)
}

func totalAmountIn(result optimizerusecase.Result) math.Int {
	total := math.ZeroInt()
	for _, alloc := range result.Allocations {
		total = total.Add(alloc.AmountIn)
	}
	return total
}

func joinAt(fields []string) string {
	out := fields[0]
	for _, f := range fields[1:] {
		out += "@" + f
	}
	return out
}
