package decay

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratafi/governance/config/params"
	"github.com/stratafi/governance/math/wad"
)

const week = 7 * 24 * 60 * 60

// maxTime matches a four year maximum lock rounded to whole weeks.
const maxTime = 208 * week

func tokens(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), wad.One())
}

func TestBalanceAt_Linearity(t *testing.T) {
	unlock := uint64(300 * week)
	amount := tokens(8)
	tests := []struct {
		name string
		at   uint64
		want *uint256.Int
	}{
		{name: "full horizon away", at: unlock - maxTime, want: tokens(8)},
		{name: "half decayed", at: unlock - maxTime/2, want: tokens(4)},
		{name: "quarter remaining", at: unlock - maxTime/4, want: tokens(2)},
		{name: "at unlock", at: unlock, want: wad.Zero()},
		{name: "after unlock", at: unlock + week, want: wad.Zero()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BalanceAt(amount, unlock, tt.at, maxTime)
			assert.Equal(t, 0, got.Cmp(tt.want))
		})
	}
}

func TestBalanceAt_Monotone(t *testing.T) {
	unlock := uint64(52 * week)
	prev := BalanceAt(tokens(7), unlock, 0, maxTime)
	for at := uint64(week / 3); at <= unlock+week; at += week / 3 {
		cur := BalanceAt(tokens(7), unlock, at, maxTime)
		require.True(t, cur.Cmp(prev) <= 0, "balance increased at t=%d", at)
		prev = cur
	}
}

func TestTotalAt_MatchesPerLockSum(t *testing.T) {
	a := New(maxTime)
	a.Record(nil, &Contribution{Amount: tokens(1), UnlockTime: 40 * week, Value: wad.Zero()})
	a.Record(nil, &Contribution{Amount: tokens(3), UnlockTime: 50 * week, Value: wad.Zero()})

	for _, at := range []uint64{0, week, 39 * week, 40 * week, 45*week + 12345, 50 * week, 60 * week} {
		// Exact expectation: floor of the aggregate sum A*(U-t) over live
		// locks, divided once by maxTime.
		num := wad.Zero()
		for _, lock := range []struct {
			amount *uint256.Int
			unlock uint64
		}{
			{amount: tokens(1), unlock: 40 * week},
			{amount: tokens(3), unlock: 50 * week},
		} {
			if at >= lock.unlock {
				continue
			}
			num.Add(num, new(uint256.Int).Mul(lock.amount, uint256.NewInt(lock.unlock-at)))
		}
		want := num.Div(num, uint256.NewInt(maxTime))
		assert.Equal(t, 0, a.TotalAt(at).Cmp(want), "t=%d", at)
	}
}

func TestTotalAt_BeforeAnyVote(t *testing.T) {
	a := New(maxTime)
	assert.True(t, a.TotalAt(0).IsZero())
	assert.True(t, a.WeightedAt(0).IsZero())
	assert.True(t, a.AverageAt(0).IsZero())
}

func TestTotalAt_AfterLastBucket(t *testing.T) {
	a := New(maxTime)
	a.Record(nil, &Contribution{Amount: tokens(5), UnlockTime: 10 * week, Value: wad.One()})
	assert.True(t, a.TotalAt(10*week).IsZero())
	assert.True(t, a.TotalAt(11*week).IsZero())
}

func TestRecord_ReplaceIsExact(t *testing.T) {
	a := New(maxTime)
	first := &Contribution{Amount: tokens(4), UnlockTime: 30 * week, Value: uint256.NewInt(2e16)}
	a.Record(nil, first)

	// Recasting the identical contribution leaves every bucket unchanged.
	totalBefore := a.TotalAt(week)
	weightedBefore := a.WeightedAt(week)
	a.Record(first, first)
	assert.Equal(t, 0, a.TotalAt(week).Cmp(totalBefore))
	assert.Equal(t, 0, a.WeightedAt(week).Cmp(weightedBefore))

	// Moving the vote drains the old bucket entirely.
	second := &Contribution{Amount: tokens(6), UnlockTime: 60 * week, Value: uint256.NewInt(4e16)}
	a.Record(first, second)
	assert.True(t, a.ScheduledUnlock(30*week).IsZero())
	assert.Equal(t, 0, a.ScheduledUnlock(60*week).Cmp(tokens(6)))
}

func TestAverageAt_BallotScenario(t *testing.T) {
	// Two voters with amounts 1 and 3 unlocking in 40 and 50 weeks, options
	// valued 0 and 0.02. At t=0 the weighted average is
	// (0*40 + 0.02*50*3)/(40 + 50*3).
	a := New(maxTime)
	a.Record(nil, &Contribution{Amount: tokens(1), UnlockTime: 40 * week, Value: wad.Zero()})
	a.Record(nil, &Contribution{Amount: tokens(3), UnlockTime: 50 * week, Value: uint256.NewInt(2e16)})

	got := a.AverageAt(0)
	num := new(uint256.Int).Mul(uint256.NewInt(2e16), uint256.NewInt(50*3))
	den := uint256.NewInt(40 + 50*3)
	want := num.Div(num, den)
	assert.Equal(t, 0, got.Cmp(want))

	// The average stays within the option value range as the projection
	// advances, and hits zero once every lock has expired.
	for at := uint64(0); at <= 50*week; at += 5 * week {
		avg := a.AverageAt(at)
		require.True(t, avg.Cmp(uint256.NewInt(2e16)) <= 0, "avg above max option at t=%d", at)
	}
	assert.True(t, a.AverageAt(50*week).IsZero())
}

func TestScheduledWeightedUnlock(t *testing.T) {
	a := New(maxTime)
	a.Record(nil, &Contribution{Amount: tokens(10), UnlockTime: 20 * week, Value: uint256.NewInt(5e17)})
	// 10 tokens at value 0.5 leave 5 weighted tokens in the bucket.
	assert.Equal(t, 0, a.ScheduledWeightedUnlock(20*week).Cmp(tokens(5)))
	// The bucket is inclusive: queries anywhere in the same week hit it.
	assert.Equal(t, 0, a.ScheduledWeightedUnlock(20*week+12345).Cmp(tokens(5)))
}

func TestMaxTime(t *testing.T) {
	assert.Equal(t, uint64(maxTime), New(maxTime).MaxTime())
	assert.Equal(t, uint64(week), params.GovConfig().SecondsPerWeek)
}
