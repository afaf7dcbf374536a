package domain

import "time"

// Config is the process-wide configuration, unmarshalled from viper exactly
// as the teacher's app/main.go does (mapstructure tags, flat sections).
// Fields are named after spec.md §6.
type Config struct {
	ServerAddress string `mapstructure:"server-address"`

	LoggerIsProduction bool   `mapstructure:"logger-is-production"`
	LoggerLevel        string `mapstructure:"logger-level"`

	// GatewayURL/PublicGatewayURL are the RPC endpoints consumed by the sync
	// worker and the online-evaluation escape hatch.
	GatewayURL       string `mapstructure:"gateway-url"`
	PublicGatewayURL string `mapstructure:"public-gateway-url"`

	// RedisHost addresses the key-value cache collaborator.
	RedisHost string `mapstructure:"redis-host"`

	// RouterPoolsDir, if set, merges a directory of JSON pool descriptors
	// into every sync cycle (spec.md §6).
	RouterPoolsDir string `mapstructure:"router-pools-dir"`

	// NoTasks disables the sync worker; used for read-only replicas and
	// tests (spec.md §6).
	NoTasks bool `mapstructure:"no-tasks"`

	SCAddresses SCAddressConfig `mapstructure:"sc-addresses"`

	Router    RouterConfig    `mapstructure:"router"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator"`
}

// SCAddressConfig names the on-chain addresses of every venue-specific
// deployer/singleton contract. A missing address means "skip that family"
// during sync (spec.md §6).
type SCAddressConfig struct {
	Aggregator         string `mapstructure:"aggregator"`
	OneDex             string `mapstructure:"onedex"`
	JexLPDeployer      string `mapstructure:"jex-lp-deployer"`
	VestadexRouter     string `mapstructure:"vestadex-router"`
	VestaxStaking      string `mapstructure:"vestax-staking"`
	HatomStakingEGLD   string `mapstructure:"hatom-staking-egld"`
	HatomPriceFeed     string `mapstructure:"hatom-price-feed"`
	SystemTokens       string `mapstructure:"system-tokens"`
	XoxnoLiquidStaking string `mapstructure:"xoxno-liquid-staking"`
}

// RouterConfig bounds the route-search space (spec.md §4.3).
type RouterConfig struct {
	MaxHops            int           `mapstructure:"max-hops"`
	MaxHopsWiden       int           `mapstructure:"max-hops-widen"`
	MaxRoutes          int           `mapstructure:"max-routes"`
	MaxOnlineRoutes    int           `mapstructure:"max-online-routes"`
	RouteCacheTTL      time.Duration `mapstructure:"route-cache-ttl"`
	EvaluationCacheTTL time.Duration `mapstructure:"evaluation-cache-ttl"`
}

// SyncConfig governs the background sync worker's cadence (spec.md §5).
type SyncConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	LeaseTTL     time.Duration `mapstructure:"lease-ttl"`
	PoolCacheTTL time.Duration `mapstructure:"pool-cache-ttl"`
}

// EvaluatorConfig carries the aggregator fee parameters (spec.md §4.4, §9).
type EvaluatorConfig struct {
	FeeTokenIdentifier string `mapstructure:"fee-token-identifier"`
	// FeeMultiplierNumerator / Denominator express FEE_MULTIPLIER = 50 /
	// 100_000 (5 bps) as an exact ratio rather than a float.
	FeeMultiplierNumerator   int64 `mapstructure:"fee-multiplier-numerator"`
	FeeMultiplierDenominator int64 `mapstructure:"fee-multiplier-denominator"`
	SplitMaxRoutes           int   `mapstructure:"split-max-routes"`
	SplitBuckets             int   `mapstructure:"split-buckets"`
}

// DefaultConfig returns the configuration spec.md names as defaults (3-hop
// routing, 500 max routes, 6s route cache, 20 split buckets, 5bps fee, etc).
func DefaultConfig() Config {
	return Config{
		ServerAddress:      ":9092",
		LoggerIsProduction: true,
		LoggerLevel:        "info",
		Router: RouterConfig{
			MaxHops:            3,
			MaxHopsWiden:       5,
			MaxRoutes:          500,
			MaxOnlineRoutes:    5,
			RouteCacheTTL:      6 * time.Second,
			EvaluationCacheTTL: 6 * time.Second,
		},
		Sync: SyncConfig{
			Interval:     60 * time.Second,
			LeaseTTL:     90 * time.Second,
			PoolCacheTTL: 60 * time.Second,
		},
		Evaluator: EvaluatorConfig{
			FeeTokenIdentifier:       "WEGLD-bd4d79",
			FeeMultiplierNumerator:   50,
			FeeMultiplierDenominator: 100_000,
			SplitMaxRoutes:           3,
			SplitBuckets:             20,
		},
	}
}
