package pools

import "github.com/jexdex/aggregator-engine/domain"

// Families lists every concrete domain.PricingModel implementation by venue
// type, used by the sync worker and by tests to assert every SC_TYPES entry
// named in SPEC_FULL.md §1 has a home.
var Families = []domain.VenueType{
	domain.VenueXExchange,
	domain.VenueOneDex,
	domain.VenueJexchangeLP,
	domain.VenueJexchangeLPDeposit,
	domain.VenueOpendex,
	domain.VenueVestadex,
	domain.VenueAshswapStablepool,
	domain.VenueJexchangeStablepool,
	domain.VenueJexchangeStablepoolDeposit,
	domain.VenueAshswapV2,
	domain.VenueHatomStake,
	domain.VenueHatomMoneyMarketMint,
	domain.VenueHatomMoneyMarketRedeem,
	domain.VenueXoxnoLiquidStaking,
}
