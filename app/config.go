package main

import "github.com/jexdex/aggregator-engine/domain"

// mergeDefaults fills any zero-valued field of cfg from domain.DefaultConfig(),
// so an operator's config file only needs to override what it cares about,
// grounded on the teacher's app/sqs_config.go DefaultConfig pattern.
func mergeDefaults(cfg domain.Config) domain.Config {
	defaults := domain.DefaultConfig()

	if cfg.ServerAddress == "" {
		cfg.ServerAddress = defaults.ServerAddress
	}
	if cfg.LoggerLevel == "" {
		cfg.LoggerLevel = defaults.LoggerLevel
	}
	if cfg.Router.MaxHops == 0 {
		cfg.Router = defaults.Router
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync = defaults.Sync
	}
	if cfg.Evaluator.SplitBuckets == 0 {
		cfg.Evaluator = defaults.Evaluator
	}
	return cfg
}
