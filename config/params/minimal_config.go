package params

import "math"

// MinimalConfig returns a config with shortened smoothing and loosened
// limits, suitable for local interop runs and tests.
func MinimalConfig() *GovernanceConfig {
	return &GovernanceConfig{
		ConfigName: "minimal",

		SecondsPerWeek: mainnetSecondsPerWeek,
		FarFutureTime:  math.MaxUint64,

		InterestRateOptions: []uint64{
			0,
			2e16,
			4e16,
		},

		SmoothingWindow:   2,
		MinFundWeight:     5e16,
		PreGenesisWeight:  50e16,
		SeedFundWeight:    50e16,
		LaunchTime:        0,
		WeightGenesisTime: 4 * mainnetSecondsPerWeek,

		MaxPoolCount: 16,
	}
}

// UseMinimalConfig sets the minimal config as the active config.
func UseMinimalConfig() {
	OverrideGovConfig(MinimalConfig())
}
