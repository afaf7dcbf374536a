package rpc

import (
	"context"
	"math/big"

	"github.com/jexdex/aggregator-engine/domain"
)

// priceFeedPrecision is the fixed-point scale latestPriceFeed reports
// prices at, grounded on hatom.py's PRECISION = 10**18.
var priceFeedPrecision = new(big.Float).SetFloat64(1e18)

// egldIdentifier/usdcIdentifier are the only two tokens this oracle ever
// prices, matching fetch_egld_and_usdc_prices: everything else derives its
// USD price from an exchange rate against one of these two (spec.md §1
// Non-goals: USD pricing is reporting-only and out of routing's path).
const (
	egldIdentifier = "EGLD"
	usdcIdentifier = "USDC"
)

// HatomPriceOracle implements domain.USDPriceOracle via Hatom's on-chain
// price feed SC, grounded line-for-line on fetch_egld_and_usdc_prices.
type HatomPriceOracle struct {
	client        domain.RPCClient
	priceFeedSCAddr string
	wegldIdentifier string
	usdcIdentifier  string
}

func NewHatomPriceOracle(client domain.RPCClient, priceFeedSCAddr, wegldIdentifier, usdcIdentifier string) *HatomPriceOracle {
	return &HatomPriceOracle{
		client:          client,
		priceFeedSCAddr: priceFeedSCAddr,
		wegldIdentifier: wegldIdentifier,
		usdcIdentifier:  usdcIdentifier,
	}
}

// USDPrice implements domain.USDPriceOracle. It only answers for the wrapped
// EGLD and USDC identifiers configured at construction; any other token
// reports ok=false, matching the Python reference's "everything else derives
// its price from an exchange rate against one of these two" design.
func (o *HatomPriceOracle) USDPrice(ctx context.Context, tokenIdentifier string) (float64, bool, error) {
	if o.priceFeedSCAddr == "" {
		return 0, false, nil
	}

	var queryID string
	switch tokenIdentifier {
	case o.wegldIdentifier:
		queryID = egldIdentifier
	case o.usdcIdentifier:
		queryID = usdcIdentifier
	default:
		return 0, false, nil
	}

	results, err := o.client.ScQuery(ctx, o.priceFeedSCAddr, "latestPriceFeed", [][]byte{[]byte(queryID), []byte("USD")})
	if err != nil {
		return 0, false, domain.ExternalFailureError{Collaborator: "gateway", Err: err}
	}
	if len(results) < 5 {
		return 0, false, nil
	}

	raw := new(big.Float).SetInt(new(big.Int).SetBytes(results[4]))
	price, _ := new(big.Float).Quo(raw, priceFeedPrecision).Float64()
	return price, true, nil
}
