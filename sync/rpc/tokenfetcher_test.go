package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRPCClient struct {
	results [][]byte
	err     error
}

func (f fakeRPCClient) ScQuery(ctx context.Context, scAddress, function string, args [][]byte) ([][]byte, error) {
	return f.results, f.err
}

func TestTokenFetcher_ParsesDecimalsAndTicker(t *testing.T) {
	client := fakeRPCClient{results: [][]byte{
		[]byte("WEGLD-bd4d79"), []byte("WrappedEGLD"), []byte("FungibleESDT"),
		[]byte(""), []byte(""), []byte("NumDecimals-18"),
	}}
	f := NewTokenFetcher(client, "sc-system-tokens")

	tok, err := f.FetchTokenMetadata(context.Background(), "WEGLD-bd4d79")
	require.NoError(t, err)
	require.Equal(t, "WEGLD-bd4d79", tok.Identifier)
	require.Equal(t, 18, tok.Decimals)
	require.Equal(t, "WEGLD", tok.Ticker)
}

func TestTokenFetcher_NoHyphenUsesWholeIdentifierAsTicker(t *testing.T) {
	client := fakeRPCClient{results: [][]byte{
		[]byte("EGLD"), []byte(""), []byte(""), []byte(""), []byte(""), []byte("NumDecimals-18"),
	}}
	f := NewTokenFetcher(client, "sc-system-tokens")

	tok, err := f.FetchTokenMetadata(context.Background(), "EGLD")
	require.NoError(t, err)
	require.Equal(t, "EGLD", tok.Ticker)
}

func TestTokenFetcher_TooFewFieldsReturnsExternalFailure(t *testing.T) {
	client := fakeRPCClient{results: [][]byte{[]byte("a"), []byte("b")}}
	f := NewTokenFetcher(client, "sc-system-tokens")

	_, err := f.FetchTokenMetadata(context.Background(), "WEGLD-bd4d79")
	require.Error(t, err)
}

func TestTokenFetcher_BadDecimalsFieldReturnsError(t *testing.T) {
	client := fakeRPCClient{results: [][]byte{
		[]byte(""), []byte(""), []byte(""), []byte(""), []byte(""), []byte("NumDecimals-notanumber"),
	}}
	f := NewTokenFetcher(client, "sc-system-tokens")

	_, err := f.FetchTokenMetadata(context.Background(), "WEGLD-bd4d79")
	require.Error(t, err)
}

func TestTokenFetcher_GatewayErrorIsWrapped(t *testing.T) {
	client := fakeRPCClient{err: errors.New("gateway down")}
	f := NewTokenFetcher(client, "sc-system-tokens")

	_, err := f.FetchTokenMetadata(context.Background(), "WEGLD-bd4d79")
	require.Error(t, err)
}
