package rpc

import (
	"cosmossdk.io/math"

	"github.com/jexdex/aggregator-engine/bignum"
)

// XExchangePoolStatus mirrors data/model.py's XExchangePoolStatus, the
// per-pair status returned by the aggregator SC's getXExchangePools view.
type XExchangePoolStatus struct {
	SCAddress          [32]byte
	State              uint8
	FirstTokenID       string
	SecondTokenID      string
	FirstTokenReserve  math.Int
	SecondTokenReserve math.Int
	LPTokenSupply      math.Int
	TotalFeePercent    uint32
	SpecialFeePercent  uint64
}

// ParseXExchangePoolStatus decodes one getXExchangePools return-data entry,
// grounded line-for-line on parse_xexchange_pool_status.
func ParseXExchangePoolStatus(data []byte) (XExchangePoolStatus, error) {
	c := newCursor(data)
	var s XExchangePoolStatus
	var err error

	if s.SCAddress, err = c.address(); err != nil {
		return s, err
	}
	if s.State, err = c.uint8(); err != nil {
		return s, err
	}
	if s.FirstTokenID, err = c.nestedString(); err != nil {
		return s, err
	}
	if s.SecondTokenID, err = c.nestedString(); err != nil {
		return s, err
	}
	if s.FirstTokenReserve, err = c.amount(); err != nil {
		return s, err
	}
	if s.SecondTokenReserve, err = c.amount(); err != nil {
		return s, err
	}
	if s.LPTokenSupply, err = c.amount(); err != nil {
		return s, err
	}
	if s.TotalFeePercent, err = c.uint32(); err != nil {
		return s, err
	}
	if s.SpecialFeePercent, err = c.uint64(); err != nil {
		return s, err
	}
	return s, nil
}

// OpendexPair mirrors data/model.py's OpendexPair, Opendex/Vestadex's
// constant-product pool status.
type OpendexPair struct {
	SCAddress            [32]byte
	Owner                [32]byte
	Paused               bool
	FirstTokenID         string
	FirstTokenReserve    math.Int
	SecondTokenID        string
	SecondTokenReserve   math.Int
	LPTokenID            string
	LPTokenMintBurnSet   bool
	LPTokenSupply        math.Int
	TotalFeePercent      uint32
	PlatformFeePercent   uint32
	PlatformFeeReceiver  [32]byte
	FeeTokenID           string
	FeeTokenIDSet        bool
}

// ParseOpendexPair decodes one Opendex/Vestadex pool-status entry, grounded
// line-for-line on parse_opendex_pool.
func ParseOpendexPair(data []byte) (OpendexPair, error) {
	c := newCursor(data)
	var p OpendexPair
	var err error

	if p.SCAddress, err = c.address(); err != nil {
		return p, err
	}
	if p.Owner, err = c.address(); err != nil {
		return p, err
	}
	paused, err := c.uint8()
	if err != nil {
		return p, err
	}
	p.Paused = paused == 1
	if p.FirstTokenID, err = c.nestedString(); err != nil {
		return p, err
	}
	if p.FirstTokenReserve, err = c.amount(); err != nil {
		return p, err
	}
	if p.SecondTokenID, err = c.nestedString(); err != nil {
		return p, err
	}
	if p.SecondTokenReserve, err = c.amount(); err != nil {
		return p, err
	}
	if p.LPTokenID, err = c.nestedString(); err != nil {
		return p, err
	}
	mintBurn, err := c.uint8()
	if err != nil {
		return p, err
	}
	p.LPTokenMintBurnSet = mintBurn == 1
	if p.LPTokenSupply, err = c.amount(); err != nil {
		return p, err
	}
	if p.TotalFeePercent, err = c.uint32(); err != nil {
		return p, err
	}
	if p.PlatformFeePercent, err = c.uint32(); err != nil {
		return p, err
	}
	if p.PlatformFeeReceiver, err = c.address(); err != nil {
		return p, err
	}
	feeTokenSet, err := c.uint8()
	if err != nil {
		return p, err
	}
	p.FeeTokenIDSet = feeTokenSet == 1
	if p.FeeTokenIDSet {
		if p.FeeTokenID, err = c.nestedString(); err != nil {
			return p, err
		}
	}
	return p, nil
}

// JexStablePoolStatus mirrors data/model.py's JexStablePoolStatus.
// volume/fee epoch-accounting fields present on the wire are intentionally
// not decoded: they are reporting-only and never feed domain.PricingModel.
type JexStablePoolStatus struct {
	Paused           bool
	AmpFactor        uint32
	Tokens           []string
	Reserves         []math.Int
	LPTokenID        string
	LPTokenSupply    math.Int
	Owner            [32]byte
	SwapFee          uint32
	UnderlyingPrices []math.Int
}

// ParseJexStablePoolStatus decodes one jexchange stable pool's getStatus
// response, grounded on parse_jex_stablepool_status. It stops once it has
// read the fields this core's StableswapPool needs and does not attempt to
// decode the trailing volume/fee/underlying-price epoch accounting that
// follows on the wire, except for underlying_prices, which the pricing
// model does consume; when the payload ends before that section (older
// contract versions), every weight defaults to 1e18 (no re-pegging).
func ParseJexStablePoolStatus(data []byte) (JexStablePoolStatus, error) {
	c := newCursor(data)
	var s JexStablePoolStatus
	var err error

	paused, err := c.uint8()
	if err != nil {
		return s, err
	}
	s.Paused = paused != 0
	if s.AmpFactor, err = c.uint32(); err != nil {
		return s, err
	}
	nbTokens, err := c.uint32()
	if err != nil {
		return s, err
	}

	s.Tokens = make([]string, nbTokens)
	for i := range s.Tokens {
		if s.Tokens[i], err = c.nestedString(); err != nil {
			return s, err
		}
	}

	s.Reserves = make([]math.Int, nbTokens)
	for i := range s.Reserves {
		if s.Reserves[i], err = c.amount(); err != nil {
			return s, err
		}
	}

	if s.LPTokenID, err = c.nestedString(); err != nil {
		return s, err
	}
	if s.LPTokenSupply, err = c.amount(); err != nil {
		return s, err
	}
	if s.Owner, err = c.address(); err != nil {
		return s, err
	}
	if s.SwapFee, err = c.uint32(); err != nil {
		return s, err
	}

	// platform_fees_receiver (optional address) and the volume/fee/fee7d
	// epoch arrays are skipped deliberately; they carry no pricing signal.
	if _, err = c.optionalAddress(); err != nil {
		return s, err
	}
	for _, count := range []int{int(nbTokens), int(nbTokens), int(nbTokens)} {
		for i := 0; i < count; i++ {
			if _, err = c.amount(); err != nil {
				return s, err
			}
		}
	}

	s.UnderlyingPrices = make([]math.Int, nbTokens)
	if c.remaining() == 0 {
		one := bignumOneE18()
		for i := range s.UnderlyingPrices {
			s.UnderlyingPrices[i] = one
		}
		return s, nil
	}
	for i := range s.UnderlyingPrices {
		if s.UnderlyingPrices[i], err = c.amount(); err != nil {
			return s, err
		}
	}
	return s, nil
}

func bignumOneE18() math.Int {
	return bignum.Pow10(18)
}

// AshSwapV2PoolStatus mirrors data/model.py's AshSwapV2PoolStatus, the
// Curve-crypto style composite pool's status.
type AshSwapV2PoolStatus struct {
	SCAddress        [32]byte
	State            uint8
	AmpFactor        math.Int
	D                math.Int
	FeeGamma         math.Int
	FutureAGammaTime uint64
	Gamma            math.Int
	MidFee           math.Int
	OutFee           math.Int
	PriceScale       math.Int
	Reserves         []math.Int
	Tokens           []string
	XP               []math.Int
}

// ParseAshSwapV2PoolStatus decodes one AshSwap V2 pool's status entry,
// grounded line-for-line on parse_ashswap_v2_pool_status.
func ParseAshSwapV2PoolStatus(data []byte) (AshSwapV2PoolStatus, error) {
	c := newCursor(data)
	var s AshSwapV2PoolStatus
	var err error

	if s.SCAddress, err = c.address(); err != nil {
		return s, err
	}
	if s.State, err = c.uint8(); err != nil {
		return s, err
	}
	if s.AmpFactor, err = c.amount(); err != nil {
		return s, err
	}
	if s.D, err = c.amount(); err != nil {
		return s, err
	}
	if s.FeeGamma, err = c.amount(); err != nil {
		return s, err
	}
	if s.FutureAGammaTime, err = c.uint64(); err != nil {
		return s, err
	}
	if s.Gamma, err = c.amount(); err != nil {
		return s, err
	}
	if s.MidFee, err = c.amount(); err != nil {
		return s, err
	}
	if s.OutFee, err = c.amount(); err != nil {
		return s, err
	}
	if s.PriceScale, err = c.amount(); err != nil {
		return s, err
	}

	nbReserves, err := c.uint32()
	if err != nil {
		return s, err
	}
	s.Reserves = make([]math.Int, nbReserves)
	for i := range s.Reserves {
		if s.Reserves[i], err = c.amount(); err != nil {
			return s, err
		}
	}

	nbTokens, err := c.uint32()
	if err != nil {
		return s, err
	}
	s.Tokens = make([]string, nbTokens)
	for i := range s.Tokens {
		if s.Tokens[i], err = c.nestedString(); err != nil {
			return s, err
		}
	}

	nbXP, err := c.uint32()
	if err != nil {
		return s, err
	}
	s.XP = make([]math.Int, nbXP)
	for i := range s.XP {
		if s.XP[i], err = c.amount(); err != nil {
			return s, err
		}
	}

	return s, nil
}

// JexDeployedPoolContract mirrors data/model.py's JexDeployedPoolContract,
// one entry of a jexchange deployer's getAllContracts listing. Plumbing for
// the stablepool syncer, which needs each deployed pool's own address
// before it can query that pool's getStatus.
type JexDeployedPoolContract struct {
	SCType    uint8
	SCAddress [32]byte
	Owner     [32]byte
}

// ParseJexDeployedPoolContract decodes one getAllContracts entry, grounded
// on parse_jex_deployed_contract.
func ParseJexDeployedPoolContract(data []byte) (JexDeployedPoolContract, error) {
	c := newCursor(data)
	var d JexDeployedPoolContract
	var err error

	if d.SCType, err = c.uint8(); err != nil {
		return d, err
	}
	if d.SCAddress, err = c.address(); err != nil {
		return d, err
	}
	if d.Owner, err = c.address(); err != nil {
		return d, err
	}
	return d, nil
}

// HatomMoneyMarket mirrors data/model.py's HatomMoneyMarket, the
// money-market state used to derive a constant-price mint/redeem rate.
type HatomMoneyMarket struct {
	SCAddress                [32]byte
	HatomTokenID             string
	UnderlyingID             string
	Cash                     math.Int
	RatioTokensToUnderlying  math.Int
	RatioUnderlyingToTokens  math.Int
}

// ParseHatomMoneyMarket decodes one Hatom money-market status entry,
// grounded line-for-line on parse_hatom_mm.
func ParseHatomMoneyMarket(data []byte) (HatomMoneyMarket, error) {
	c := newCursor(data)
	var m HatomMoneyMarket
	var err error

	if m.SCAddress, err = c.address(); err != nil {
		return m, err
	}
	if m.HatomTokenID, err = c.nestedString(); err != nil {
		return m, err
	}
	if m.UnderlyingID, err = c.nestedString(); err != nil {
		return m, err
	}
	if m.Cash, err = c.amount(); err != nil {
		return m, err
	}
	if m.RatioTokensToUnderlying, err = c.amount(); err != nil {
		return m, err
	}
	if m.RatioUnderlyingToTokens, err = c.amount(); err != nil {
		return m, err
	}
	return m, nil
}
