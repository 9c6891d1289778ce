// Package params defines important constants that are essential to the
// governance engine, such as week length, ballot option sets, and relative
// weight smoothing parameters.
package params

import (
	"sync"
)

// GovernanceConfig contains constant configs for services participating in
// the governance protocol.
type GovernanceConfig struct {
	ConfigName string // ConfigName for human readable names of the configuration.

	// Time parameters.
	SecondsPerWeek uint64 // SecondsPerWeek is the duration of one voting week.
	FarFutureTime  uint64 // FarFutureTime represents a timestamp that can never be reached.

	// Interest rate ballot parameters. Option values are WAD scaled
	// (1e18 == 100% annualized).
	InterestRateOptions []uint64

	// Relative weight controller parameters.
	SmoothingWindow   uint64 // SmoothingWindow is the EMA window in weeks.
	MinFundWeight     uint64 // MinFundWeight is the WAD floor reserved for every fund.
	PreGenesisWeight  uint64 // PreGenesisWeight is the WAD allocation before guarded launch begins.
	SeedFundWeight    uint64 // SeedFundWeight initializes each fund's smoothing chain at the genesis week.
	LaunchTime        uint64 // LaunchTime is when the guarded launch ramp starts.
	WeightGenesisTime uint64 // WeightGenesisTime is the first week with a real checkpoint.

	// Safety limits.
	MaxPoolCount uint64 // MaxPoolCount bounds the pool registry size.
}

var governanceConfig = MainnetConfig()
var governanceConfigLock sync.RWMutex

// GovConfig retrieves the current governance config.
func GovConfig() *GovernanceConfig {
	governanceConfigLock.RLock()
	defer governanceConfigLock.RUnlock()
	return governanceConfig
}

// OverrideGovConfig replaces the config. The preferred pattern is to call
// GovConfig().Copy(), change the specific parameters, and then call
// OverrideGovConfig(c). Any subsequent calls to params.GovConfig() will
// return the new configuration.
func OverrideGovConfig(c *GovernanceConfig) {
	governanceConfigLock.Lock()
	defer governanceConfigLock.Unlock()
	governanceConfig = c
}

// Copy returns a deep copy of the config object.
func (c *GovernanceConfig) Copy() *GovernanceConfig {
	governanceConfigLock.RLock()
	defer governanceConfigLock.RUnlock()
	config := *c
	config.InterestRateOptions = append([]uint64{}, c.InterestRateOptions...)
	return &config
}
