package params

import "math"

const (
	mainnetSecondsPerWeek = 7 * 24 * 60 * 60
	// Sunday 2021-09-12 00:00:00 UTC, week aligned.
	mainnetLaunchTime = 1631404800
)

var mainnetGovernanceConfig = &GovernanceConfig{
	ConfigName: "mainnet",

	SecondsPerWeek: mainnetSecondsPerWeek,
	FarFutureTime:  math.MaxUint64,

	// Annualized interest rate options: 0%, 2%, 4%, 6%, 8%, 10%.
	InterestRateOptions: []uint64{
		0,
		2e16,
		4e16,
		6e16,
		8e16,
		10e16,
	},

	SmoothingWindow:   8,
	MinFundWeight:     15e16, // 15% floor per fund.
	PreGenesisWeight:  50e16,
	SeedFundWeight:    50e16,
	LaunchTime:        mainnetLaunchTime,
	WeightGenesisTime: mainnetLaunchTime + 4*mainnetSecondsPerWeek,

	MaxPoolCount: 256,
}

// MainnetConfig returns the governance config for mainnet.
func MainnetConfig() *GovernanceConfig {
	return mainnetGovernanceConfig
}

// UseMainnetConfig sets the main config as the active config.
func UseMainnetConfig() {
	OverrideGovConfig(MainnetConfig())
}
