package usecase

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jexdex/aggregator-engine/domain"
	"github.com/jexdex/aggregator-engine/store"
)

func writeDescriptorFile(t *testing.T, dir, name string, descriptors []staticPoolDescriptor) {
	t.Helper()
	raw, err := json.Marshal(descriptors)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o600))
}

func TestSyncStaticPools_MergesDescriptorFiles(t *testing.T) {
	dir := t.TempDir()
	writeDescriptorFile(t, dir, "pools_hatom.json", []staticPoolDescriptor{
		{
			Name: "hatom mint EGLD", SCAddress: "hatom-mm-sc",
			Type: "hatom_money_market_mint", TokensIn: []string{"EGLD"}, TokensOut: []string{"HEGLD"},
			Price: "1000000000000000000", TokenOutReserve: "500000000000000000000",
		},
	})
	writeDescriptorFile(t, dir, "pools_ashswap.json", []staticPoolDescriptor{
		{
			Name: "ashswap v2 seed", SCAddress: "ashswap-sc",
			Type: "ashswap_v2", TokensIn: []string{"WEGLD-bd4d79"}, TokensOut: []string{"USDC-c76f1f"},
		},
	})

	w := NewWorker(fakeRPCClient{}, nil, store.NewPoolStore(), &fakeTokenSeeder{}, domain.SCAddressConfig{}, domain.SyncConfig{}, dir, nil)

	res, err := w.syncStaticPools(nil)
	require.NoError(t, err)
	require.Len(t, res.pools, 2)

	model, ok := res.models[store.PoolKey{Venue: domain.VenueHatomMoneyMarketMint, TokenIn: "EGLD", TokenOut: "HEGLD"}]
	require.True(t, ok)
	require.Equal(t, domain.VenueHatomMoneyMarketMint, model.VenueType())

	// ashswap_v2 descriptor has no price: it contributes the pool listing
	// only, expecting syncAshSwapV2's live refresh to supply the model once
	// the venue is published.
	_, ok = res.models[store.PoolKey{Venue: domain.VenueAshswapV2, TokenIn: "WEGLD-bd4d79", TokenOut: "USDC-c76f1f"}]
	require.False(t, ok)
}

func TestSyncStaticPools_NoDirConfiguredReturnsNil(t *testing.T) {
	w := NewWorker(fakeRPCClient{}, nil, store.NewPoolStore(), &fakeTokenSeeder{}, domain.SCAddressConfig{}, domain.SyncConfig{}, "", nil)

	res, err := w.syncStaticPools(nil)
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestSyncStaticPools_EmptyDirReturnsNil(t *testing.T) {
	dir := t.TempDir()
	w := NewWorker(fakeRPCClient{}, nil, store.NewPoolStore(), &fakeTokenSeeder{}, domain.SCAddressConfig{}, domain.SyncConfig{}, dir, nil)

	res, err := w.syncStaticPools(nil)
	require.NoError(t, err)
	require.Nil(t, res)
}
