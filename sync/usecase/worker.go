// Package usecase runs the background sync worker: one long-lived task that
// wakes on a fixed interval, fans out one concurrent subtask per venue
// family, joins them, and atomically publishes the result to
// store.PoolStore (spec.md §5). Grounded on the teacher's
// router/usecase/worker/candidate_route_search_data_worker.go fan-out/join
// shape (mutex-protected accumulator + sync.WaitGroup), generalized from
// "one subtask per updated denom" to "one subtask per venue family".
package usecase

import (
	"context"
	"sync"
	"time"

	"cosmossdk.io/math"
	"go.uber.org/zap"

	"github.com/jexdex/aggregator-engine/domain"
	"github.com/jexdex/aggregator-engine/log"
	"github.com/jexdex/aggregator-engine/pools"
	"github.com/jexdex/aggregator-engine/store"
	"github.com/jexdex/aggregator-engine/sync/rpc"
)

// leaseKey is the single shared distributed lease every replica contends
// for before running a sync cycle, so only one process writes the store at
// a time even when several replicas share the same KeyValueCache (spec.md
// §5, "one caller recomputes, concurrent callers wait for the first writer"
// generalized from the request path to the sync cycle itself).
const leaseKey = "aggregator:sync:lease"

// venueResult is one venue family's sync output: pools, their pricing
// models, and any reporting-only exchange rates they produced. A family
// that fails to sync contributes a nil venueResult and is dropped from the
// published snapshot rather than failing the whole cycle (spec.md §5).
type venueResult struct {
	pools  []domain.SwapPool
	models map[store.PoolKey]domain.PricingModel
	rates  []domain.ExchangeRate
}

// TokenSeeder installs token metadata the sync worker already has on hand
// from an on-chain status payload, sparing the registry a redundant fetch.
type TokenSeeder interface {
	Seed(token domain.Token)
}

// Worker runs the periodic sync cycle described in spec.md §5.
type Worker struct {
	rpc    domain.RPCClient
	lease  domain.KeyValueCache
	store  *store.PoolStore
	tokens TokenSeeder
	sc     domain.SCAddressConfig
	cfg    domain.SyncConfig
	logger log.Logger

	// routerPoolsDir, if set, names a directory of JSON pool descriptors
	// merged every cycle (spec.md §6), grounded on sync_pools.py's
	// ROUTER_POOLS_DIR / _sync_other_router_pools.
	routerPoolsDir string
}

// NewWorker builds a sync worker. logger defaults to a no-op when nil.
func NewWorker(rpcClient domain.RPCClient, lease domain.KeyValueCache, poolStore *store.PoolStore, tokens TokenSeeder, sc domain.SCAddressConfig, cfg domain.SyncConfig, routerPoolsDir string, logger log.Logger) *Worker {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Worker{rpc: rpcClient, lease: lease, store: poolStore, tokens: tokens, sc: sc, cfg: cfg, routerPoolsDir: routerPoolsDir, logger: logger}
}

// Run blocks, running one sync cycle immediately and then every cfg.Interval,
// until ctx is cancelled. This is the NO_TASKS=0 process's only background
// goroutine (spec.md §5, §6).
func (w *Worker) Run(ctx context.Context) {
	w.runCycle(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// runCycle acquires the distributed lease, fans out per-venue syncs, joins
// them, and publishes. If the lease is already held elsewhere, this
// replica skips the cycle silently: another replica is already publishing.
func (w *Worker) runCycle(ctx context.Context) {
	if w.lease != nil {
		release, ok, err := w.lease.Lock(ctx, leaseKey, w.cfg.LeaseTTL)
		if err != nil {
			w.logger.Error("sync: failed to acquire lease", zap.Error(err))
			return
		}
		if !ok {
			w.logger.Debug("sync: lease held elsewhere, skipping cycle")
			return
		}
		defer release()
	}

	syncers := []struct {
		name string
		fn   func(context.Context) (*venueResult, error)
	}{
		// All syncers run concurrently, but results are merged in this
		// slice's order: static-pools is listed first so the live refresh
		// syncers below (ashswap-v2, hatom-money-market), which key off pools
		// already in the store, overwrite any stale price a static
		// descriptor carried once the venue is actually discoverable on-chain.
		{"static-pools", w.syncStaticPools},
		{"xexchange", w.syncXExchange},
		{"opendex", w.syncOpendexFamily(w.sc.Aggregator, domain.VenueOpendex)},
		{"jex-stablepool", w.syncJexStablePools},
		{"ashswap-v2", w.syncAshSwapV2},
		{"hatom-money-market", w.syncHatomMoneyMarkets},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make([]*venueResult, len(syncers))

	wg.Add(len(syncers))
	for i, s := range syncers {
		go func(i int, name string, fn func(context.Context) (*venueResult, error)) {
			defer wg.Done()
			res, err := fn(ctx)
			if err != nil {
				w.logger.Error("sync: venue family failed, keeping previous snapshot for it", zap.String("venue", name), zap.Error(err))
				return
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
		}(i, s.name, s.fn)
	}
	wg.Wait()

	var allPools []domain.SwapPool
	models := map[store.PoolKey]domain.PricingModel{}
	var rates []domain.ExchangeRate
	for _, r := range results {
		if r == nil {
			continue
		}
		allPools = append(allPools, r.pools...)
		for k, v := range r.models {
			models[k] = v
		}
		rates = append(rates, r.rates...)
	}

	if len(allPools) == 0 {
		// Every family failed or returned nothing: keep the previous
		// snapshot visible rather than publish an empty one (spec.md §5).
		w.logger.Error("sync: cycle produced zero pools, previous snapshot preserved")
		return
	}

	w.store.Publish(allPools, models, rates)
}

func seed(tokens TokenSeeder, identifier string) domain.Token {
	t := domain.Token{Identifier: identifier, Decimals: 18}
	tokens.Seed(t)
	return t
}

// syncXExchange syncs every xExchange pool through the aggregator SC's
// getXExchangePools view, grounded on sync_pools.py's _sync_xexchange_pools.
func (w *Worker) syncXExchange(ctx context.Context) (*venueResult, error) {
	if w.sc.Aggregator == "" {
		return nil, nil
	}

	raw, err := w.rpc.ScQuery(ctx, w.sc.Aggregator, "getXExchangePools", nil)
	if err != nil {
		return nil, err
	}

	res := &venueResult{models: map[store.PoolKey]domain.PricingModel{}}
	for _, entry := range raw {
		status, err := rpc.ParseXExchangePoolStatus(entry)
		if err != nil {
			continue
		}
		if status.State != 1 {
			continue
		}

		scAddress := rpc.AddressString(status.SCAddress)
		first := seed(w.tokens, status.FirstTokenID)
		second := seed(w.tokens, status.SecondTokenID)

		model := pools.NewXExchangePool(scAddress, domain.Token{Identifier: status.FirstTokenID + status.SecondTokenID + "-LP"}, status.LPTokenSupply,
			int64(status.TotalFeePercent), int64(status.SpecialFeePercent), first, status.FirstTokenReserve, second, status.SecondTokenReserve)

		res.pools = append(res.pools, domain.SwapPool{
			Name: "xExchange: " + first.Identifier + "/" + second.Identifier, SCAddress: scAddress,
			TokensIn: []string{first.Identifier, second.Identifier}, TokensOut: []string{first.Identifier, second.Identifier},
			Type: domain.VenueXExchange,
		})
		res.models[store.PoolKey{Venue: domain.VenueXExchange, TokenIn: first.Identifier, TokenOut: second.Identifier}] = model
		res.models[store.PoolKey{Venue: domain.VenueXExchange, TokenIn: second.Identifier, TokenOut: first.Identifier}] = model
		res.rates = append(res.rates, model.ExchangeRates(scAddress)...)
	}
	return res, nil
}

// syncOpendexFamily returns a syncer for Opendex and Vestadex, which share
// OpendexPair's wire shape but are deployed behind distinct SC addresses and
// tagged with distinct venue types, grounded on sync_pools.py's
// _sync_opendex_pools_from_deployer (shared parsing, per-deployer call site).
func (w *Worker) syncOpendexFamily(deployerAddress string, venue domain.VenueType) func(context.Context) (*venueResult, error) {
	return func(ctx context.Context) (*venueResult, error) {
		if deployerAddress == "" {
			return nil, nil
		}

		raw, err := w.rpc.ScQuery(ctx, deployerAddress, "getAllPairs", nil)
		if err != nil {
			return nil, err
		}

		res := &venueResult{models: map[store.PoolKey]domain.PricingModel{}}
		for _, entry := range raw {
			pair, err := rpc.ParseOpendexPair(entry)
			if err != nil || pair.Paused {
				continue
			}

			scAddress := rpc.AddressString(pair.SCAddress)
			first := seed(w.tokens, pair.FirstTokenID)
			second := seed(w.tokens, pair.SecondTokenID)

			feeToken := ""
			if pair.FeeTokenIDSet {
				feeToken = pair.FeeTokenID
			}

			model := pools.NewOpendexPool(scAddress, venue, domain.Token{Identifier: pair.LPTokenID}, pair.LPTokenSupply,
				int64(pair.TotalFeePercent), int64(pair.PlatformFeePercent), feeToken,
				first, pair.FirstTokenReserve, second, pair.SecondTokenReserve)

			res.pools = append(res.pools, domain.SwapPool{
				Name: string(venue) + ": " + first.Identifier + "/" + second.Identifier, SCAddress: scAddress,
				TokensIn: []string{first.Identifier, second.Identifier}, TokensOut: []string{first.Identifier, second.Identifier},
				Type: venue,
			})
			res.models[store.PoolKey{Venue: venue, TokenIn: first.Identifier, TokenOut: second.Identifier}] = model
			res.models[store.PoolKey{Venue: venue, TokenIn: second.Identifier, TokenOut: first.Identifier}] = model
			res.rates = append(res.rates, model.ExchangeRates(scAddress)...)
		}
		return res, nil
	}
}

// syncJexStablePools walks the jexchange stablepool deployer's contract
// list, querying each deployed pool's own getStatus, grounded on
// sync_pools.py's _sync_jex_stablepools.
func (w *Worker) syncJexStablePools(ctx context.Context) (*venueResult, error) {
	if w.sc.JexLPDeployer == "" {
		return nil, nil
	}

	deployed, err := w.rpc.ScQuery(ctx, w.sc.JexLPDeployer, "getAllContracts", nil)
	if err != nil {
		return nil, err
	}

	res := &venueResult{models: map[store.PoolKey]domain.PricingModel{}}
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(len(deployed))

	for _, contractEntry := range deployed {
		go func(contractEntry []byte) {
			defer wg.Done()

			deployedContract, err := rpc.ParseJexDeployedPoolContract(contractEntry)
			if err != nil {
				return
			}
			scAddress := rpc.AddressString(deployedContract.SCAddress)

			raw, err := w.rpc.ScQuery(ctx, scAddress, "getStatus", nil)
			if err != nil || len(raw) == 0 {
				return
			}
			status, err := rpc.ParseJexStablePoolStatus(raw[0])
			if err != nil || status.Paused || len(status.Tokens) < 2 {
				return
			}

			tokens := make([]domain.Token, len(status.Tokens))
			identifiers := make([]string, len(status.Tokens))
			for i, id := range status.Tokens {
				tokens[i] = seed(w.tokens, id)
				identifiers[i] = id
			}

			model := &pools.StableswapPool{
				SCAddress:        scAddress,
				Venue:            domain.VenueJexchangeStablepool,
				Amp:              math.NewIntFromUint64(uint64(status.AmpFactor)),
				SwapFeeNumerator: int64(status.SwapFee),
				SwapFeeMaxFee:    100_000,
				LPToken:          domain.Token{Identifier: status.LPTokenID},
				LPSupply:         status.LPTokenSupply,
				Tokens:           tokens,
				Reserves:         status.Reserves,
				UnderlyingPrices: status.UnderlyingPrices,
			}

			mu.Lock()
			res.pools = append(res.pools, domain.SwapPool{
				Name: "jexchange stablepool", SCAddress: scAddress,
				TokensIn: identifiers, TokensOut: identifiers, Type: domain.VenueJexchangeStablepool,
			})
			for i := range identifiers {
				for j := range identifiers {
					if i == j {
						continue
					}
					res.models[store.PoolKey{Venue: domain.VenueJexchangeStablepool, TokenIn: identifiers[i], TokenOut: identifiers[j]}] = model
				}
			}
			res.rates = append(res.rates, model.ExchangeRates(scAddress)...)
			mu.Unlock()
		}(contractEntry)
	}
	wg.Wait()

	return res, nil
}

// syncAshSwapV2 syncs AshSwap V2's composite pools. Discovery (which SC
// addresses to query) is out of this worker's scope (spec.md §6's
// ROUTER_POOLS_DIR static-descriptor merge is the intended source for
// venues without a deployer-listing RPC view); this method is kept as the
// per-pool status refresh for pools already known to the store.
func (w *Worker) syncAshSwapV2(ctx context.Context) (*venueResult, error) {
	known := w.store.AllPools()
	res := &venueResult{models: map[store.PoolKey]domain.PricingModel{}}

	for _, p := range known {
		if p.Type != domain.VenueAshswapV2 {
			continue
		}

		raw, err := w.rpc.ScQuery(ctx, p.SCAddress, "getStatus", nil)
		if err != nil || len(raw) == 0 {
			continue
		}
		status, err := rpc.ParseAshSwapV2PoolStatus(raw[0])
		if err != nil || status.State != 1 || len(status.Tokens) != 2 {
			continue
		}

		tokens := [2]domain.Token{seed(w.tokens, status.Tokens[0]), seed(w.tokens, status.Tokens[1])}
		model := &pools.CompositePool{
			SCAddress:        p.SCAddress,
			LPToken:          domain.Token{Identifier: p.Name + "-LP"},
			Amp:              status.AmpFactor,
			Gamma:            status.Gamma,
			D:                status.D,
			FutureAGammaTime: int64(status.FutureAGammaTime),
			FeeGamma:         status.FeeGamma,
			MidFee:           status.MidFee,
			OutFee:           status.OutFee,
			PriceScale:       status.PriceScale,
			Tokens:           tokens,
			Reserves:         [2]math.Int{status.Reserves[0], status.Reserves[1]},
			XP:               [2]math.Int{status.XP[0], status.XP[1]},
		}

		res.pools = append(res.pools, p)
		res.models[store.PoolKey{Venue: domain.VenueAshswapV2, TokenIn: tokens[0].Identifier, TokenOut: tokens[1].Identifier}] = model
		res.models[store.PoolKey{Venue: domain.VenueAshswapV2, TokenIn: tokens[1].Identifier, TokenOut: tokens[0].Identifier}] = model
	}
	return res, nil
}

// syncHatomMoneyMarkets refreshes every Hatom money-market mint/redeem
// constant-price pool known to the store, grounded on
// sync_pools.py's _sync_hatom_money_markets; like syncAshSwapV2, discovery
// of which markets exist comes from the static descriptor merge, not a
// deployer-listing RPC view.
func (w *Worker) syncHatomMoneyMarkets(ctx context.Context) (*venueResult, error) {
	known := w.store.AllPools()
	res := &venueResult{models: map[store.PoolKey]domain.PricingModel{}}

	seen := map[string]bool{}
	for _, p := range known {
		if (p.Type != domain.VenueHatomMoneyMarketMint && p.Type != domain.VenueHatomMoneyMarketRedeem) || seen[p.SCAddress] {
			continue
		}
		seen[p.SCAddress] = true

		raw, err := w.rpc.ScQuery(ctx, p.SCAddress, "getMoneyMarketStatus", nil)
		if err != nil || len(raw) == 0 {
			continue
		}
		mm, err := rpc.ParseHatomMoneyMarket(raw[0])
		if err != nil {
			continue
		}

		underlying := seed(w.tokens, mm.UnderlyingID)
		hToken := seed(w.tokens, mm.HatomTokenID)

		mint := &pools.ConstantPricePool{
			SCAddress: p.SCAddress, Venue: domain.VenueHatomMoneyMarketMint,
			Price: mm.RatioUnderlyingToTokens, TokenIn: underlying, TokenOut: hToken, TokenOutReserve: mm.Cash,
		}
		redeem := &pools.ConstantPricePool{
			SCAddress: p.SCAddress, Venue: domain.VenueHatomMoneyMarketRedeem,
			Price: mm.RatioTokensToUnderlying, TokenIn: hToken, TokenOut: underlying, TokenOutReserve: mm.Cash,
		}

		res.pools = append(res.pools,
			domain.SwapPool{Name: "hatom mint " + underlying.Identifier, SCAddress: p.SCAddress, TokensIn: []string{underlying.Identifier}, TokensOut: []string{hToken.Identifier}, Type: domain.VenueHatomMoneyMarketMint},
			domain.SwapPool{Name: "hatom redeem " + hToken.Identifier, SCAddress: p.SCAddress, TokensIn: []string{hToken.Identifier}, TokensOut: []string{underlying.Identifier}, Type: domain.VenueHatomMoneyMarketRedeem},
		)
		res.models[store.PoolKey{Venue: domain.VenueHatomMoneyMarketMint, TokenIn: underlying.Identifier, TokenOut: hToken.Identifier}] = mint
		res.models[store.PoolKey{Venue: domain.VenueHatomMoneyMarketRedeem, TokenIn: hToken.Identifier, TokenOut: underlying.Identifier}] = redeem
	}
	return res, nil
}
