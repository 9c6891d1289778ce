package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideGovConfig(t *testing.T) {
	cfg := GovConfig().Copy()
	defer OverrideGovConfig(cfg)

	c := MinimalConfig()
	OverrideGovConfig(c)
	assert.Equal(t, "minimal", GovConfig().ConfigName)
	assert.Equal(t, uint64(2), GovConfig().SmoothingWindow)
}

func TestCopyIsDeep(t *testing.T) {
	c := MainnetConfig().Copy()
	c.InterestRateOptions[0] = 999
	require.Equal(t, uint64(0), MainnetConfig().InterestRateOptions[0])
}

func TestMainnetConfig_WeekAligned(t *testing.T) {
	c := MainnetConfig()
	assert.Equal(t, uint64(0), c.LaunchTime%c.SecondsPerWeek)
	assert.Equal(t, uint64(0), c.WeightGenesisTime%c.SecondsPerWeek)
}
