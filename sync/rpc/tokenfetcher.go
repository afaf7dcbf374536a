package rpc

import (
	"context"
	"strconv"
	"strings"

	"github.com/jexdex/aggregator-engine/domain"
)

// numDecimalsPrefix is the literal getTokenProperties always prefixes its
// decimals field with on-chain, grounded on
// opendex_aggregator_api/services/tokens.py's fetch_token (hex2str(resp[5][24:]):
// 24 hex chars is exactly the 12 ASCII bytes of "NumDecimals-").
const numDecimalsPrefix = "NumDecimals-"

// TokenFetcher implements domain.TokenMetadataFetcher via the aggregator
// gateway's ESDT system SC, grounded line-for-line on fetch_token.
type TokenFetcher struct {
	client            domain.RPCClient
	systemTokensSCAddr string
}

func NewTokenFetcher(client domain.RPCClient, systemTokensSCAddr string) *TokenFetcher {
	return &TokenFetcher{client: client, systemTokensSCAddr: systemTokensSCAddr}
}

// FetchTokenMetadata implements domain.TokenMetadataFetcher. The ticker is
// derived from the identifier's prefix (before the first '-'), matching the
// Python reference's identifier.split('-')[0] fallback when no custom name
// is supplied.
func (f *TokenFetcher) FetchTokenMetadata(ctx context.Context, identifier string) (domain.Token, error) {
	results, err := f.client.ScQuery(ctx, f.systemTokensSCAddr, "getTokenProperties", [][]byte{[]byte(identifier)})
	if err != nil {
		return domain.Token{}, domain.ExternalFailureError{Collaborator: "gateway", Err: err}
	}
	if len(results) < 6 {
		return domain.Token{}, domain.ExternalFailureError{Collaborator: "gateway", Err: errShortTokenProperties}
	}

	field := string(results[5])
	decimalsStr := strings.TrimPrefix(field, numDecimalsPrefix)
	decimals, err := strconv.Atoi(decimalsStr)
	if err != nil {
		return domain.Token{}, domain.ExternalFailureError{Collaborator: "gateway", Err: err}
	}

	ticker := identifier
	if i := strings.Index(identifier, "-"); i >= 0 {
		ticker = identifier[:i]
	}

	return domain.Token{
		Identifier: identifier,
		Decimals:   decimals,
		Ticker:     ticker,
	}, nil
}

var errShortTokenProperties = tokenPropertiesError("getTokenProperties: fewer than 6 fields returned")

type tokenPropertiesError string

func (e tokenPropertiesError) Error() string { return string(e) }
