package usecase

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jexdex/aggregator-engine/domain"
	"github.com/jexdex/aggregator-engine/store"
)

type fakeRPCClient struct {
	responses map[string][][]byte
}

func (f fakeRPCClient) ScQuery(ctx context.Context, scAddress, function string, args [][]byte) ([][]byte, error) {
	return f.responses[scAddress+"::"+function], nil
}

type fakeLease struct{ held bool }

func (f *fakeLease) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (f *fakeLease) SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (f *fakeLease) Lock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if f.held {
		return func() {}, false, nil
	}
	f.held = true
	return func() { f.held = false }, true, nil
}

type fakeTokenSeeder struct{ seen map[string]bool }

func (f *fakeTokenSeeder) Seed(token domain.Token) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[token.Identifier] = true
}

func putAddr(buf []byte, fill byte) []byte {
	addr := make([]byte, 32)
	for i := range addr {
		addr[i] = fill
	}
	return append(buf, addr...)
}

func putU8(buf []byte, v uint8) []byte { return append(buf, v) }

func putU32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return append(buf, b...)
}

func putU64(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return append(buf, b...)
}

func putStr(buf []byte, s string) []byte {
	buf = putU32(buf, uint32(len(s)))
	return append(buf, []byte(s)...)
}

func putAmt(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	trimmed := b[i:]
	buf = putU32(buf, uint32(len(trimmed)))
	return append(buf, trimmed...)
}

func xExchangeStatusPayload() []byte {
	var buf []byte
	buf = putAddr(buf, 0x11)
	buf = putU8(buf, 1) // active
	buf = putStr(buf, "WEGLD-bd4d79")
	buf = putStr(buf, "USDC-c76f1f")
	buf = putAmt(buf, 50_000_000)
	buf = putAmt(buf, 150_000_000)
	buf = putAmt(buf, 1_000)
	buf = putU32(buf, 300)
	buf = putU64(buf, 0)
	return buf
}

func TestWorker_RunCycle_PublishesXExchangePool(t *testing.T) {
	rpcClient := fakeRPCClient{responses: map[string][][]byte{
		"aggregator-sc::getXExchangePools": {xExchangeStatusPayload()},
	}}
	poolStore := store.NewPoolStore()
	require.False(t, poolStore.Ready())

	w := NewWorker(rpcClient, nil, poolStore, &fakeTokenSeeder{}, domain.SCAddressConfig{Aggregator: "aggregator-sc"}, domain.SyncConfig{Interval: time.Hour, LeaseTTL: time.Minute}, "", nil)
	w.runCycle(context.Background())

	require.True(t, poolStore.Ready())
	model, ok := poolStore.Model(domain.VenueXExchange, "WEGLD-bd4d79", "USDC-c76f1f")
	require.True(t, ok)
	require.Equal(t, domain.VenueXExchange, model.VenueType())
}

func TestWorker_RunCycle_SkipsWhenLeaseHeldElsewhere(t *testing.T) {
	rpcClient := fakeRPCClient{responses: map[string][][]byte{
		"aggregator-sc::getXExchangePools": {xExchangeStatusPayload()},
	}}
	poolStore := store.NewPoolStore()
	lease := &fakeLease{held: true}

	w := NewWorker(rpcClient, lease, poolStore, &fakeTokenSeeder{}, domain.SCAddressConfig{Aggregator: "aggregator-sc"}, domain.SyncConfig{Interval: time.Hour, LeaseTTL: time.Minute}, "", nil)
	w.runCycle(context.Background())

	require.False(t, poolStore.Ready())
}

func TestWorker_RunCycle_NoAggregatorAddressSkipsXExchange(t *testing.T) {
	rpcClient := fakeRPCClient{}
	poolStore := store.NewPoolStore()

	w := NewWorker(rpcClient, nil, poolStore, &fakeTokenSeeder{}, domain.SCAddressConfig{}, domain.SyncConfig{Interval: time.Hour, LeaseTTL: time.Minute}, "", nil)
	w.runCycle(context.Background())

	require.False(t, poolStore.Ready())
}
