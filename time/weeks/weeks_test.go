package weeks

import (
	"testing"

	"github.com/stratafi/governance/config/params"
	"github.com/stretchr/testify/assert"
)

func TestFloorCeil(t *testing.T) {
	week := params.GovConfig().SecondsPerWeek
	tests := []struct {
		name  string
		in    uint64
		floor uint64
		ceil  uint64
	}{
		{name: "zero", in: 0, floor: 0, ceil: 0},
		{name: "aligned", in: 3 * week, floor: 3 * week, ceil: 3 * week},
		{name: "mid week", in: 3*week + 1234, floor: 3 * week, ceil: 4 * week},
		{name: "one before boundary", in: 4*week - 1, floor: 3 * week, ceil: 4 * week},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.floor, FloorTime(tt.in))
			assert.Equal(t, tt.ceil, CeilTime(tt.in))
		})
	}
}

func TestFromTime_RoundTrip(t *testing.T) {
	week := params.GovConfig().SecondsPerWeek
	w := FromTime(10*week + 42)
	assert.Equal(t, Week(10), w)
	assert.Equal(t, 10*week, w.StartTime())
}

func TestPrev_Underflow(t *testing.T) {
	assert.Equal(t, uint64(0), Prev(0))
	week := params.GovConfig().SecondsPerWeek
	assert.Equal(t, 4*week, Prev(5*week))
}

func TestIsAligned(t *testing.T) {
	week := params.GovConfig().SecondsPerWeek
	assert.Equal(t, true, IsAligned(7*week))
	assert.Equal(t, false, IsAligned(7*week+1))
}

func TestCountTo_CoversMaxLock(t *testing.T) {
	week := params.GovConfig().SecondsPerWeek
	// Four years of weekly buckets plus the partial current week.
	maxLock := uint64(4 * 365 * 24 * 60 * 60)
	n := CountTo(maxLock)
	assert.Equal(t, maxLock/week+1, n)
}
