package rateballot

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratafi/governance/math/wad"
	"github.com/stratafi/governance/voting/events"
	mock "github.com/stratafi/governance/voting/testing"
	"github.com/stratafi/governance/voting/types"
)

const week = 7 * 24 * 60 * 60
const maxTime = 208 * week

var (
	alice = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func tokens(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), wad.One())
}

func setup(t *testing.T) (*Ballot, *mock.MockLockSource) {
	t.Helper()
	orig := timeNow
	timeNow = func() uint64 { return 0 }
	t.Cleanup(func() {
		timeNow = orig
	})
	src := mock.NewMockLockSource(maxTime)
	b, err := NewBallot(context.Background(), src)
	require.NoError(t, err)
	return b, src
}

func TestCast_InvalidOption(t *testing.T) {
	b, src := setup(t)
	src.SetLock(alice, tokens(1), 40*week)
	err := b.Cast(context.Background(), alice, uint64(len(b.options)))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestCast_ZeroBalance(t *testing.T) {
	b, src := setup(t)
	// Never locked.
	assert.ErrorIs(t, b.Cast(context.Background(), alice, 0), types.ErrZeroBalance)
	// Lock already expired.
	timeNow = func() uint64 { return 50 * week }
	src.SetLock(bob, tokens(3), 40*week)
	assert.ErrorIs(t, b.Cast(context.Background(), bob, 0), types.ErrZeroBalance)
}

func TestCast_OverwritesReceipt(t *testing.T) {
	b, src := setup(t)
	src.SetLock(alice, tokens(2), 30*week)
	require.NoError(t, b.Cast(context.Background(), alice, 1))

	r, ok := b.Receipt(alice)
	require.True(t, ok)
	assert.Equal(t, uint64(1), r.Option)
	assert.Equal(t, uint64(30*week), r.UnlockTime)

	// Recast with a grown lock replaces the receipt and rebuckets the vote.
	src.SetLock(alice, tokens(5), 60*week)
	require.NoError(t, b.Cast(context.Background(), alice, 2))
	r, ok = b.Receipt(alice)
	require.True(t, ok)
	assert.Equal(t, uint64(2), r.Option)
	assert.Equal(t, 0, r.Amount.Cmp(tokens(5)))
	assert.Equal(t, 0, b.TotalSupplyAtTimestamp(0).Cmp(
		new(uint256.Int).Div(new(uint256.Int).Mul(tokens(5), uint256.NewInt(60*week)), uint256.NewInt(maxTime)),
	))
}

func TestCast_RecastIdempotentOnBuckets(t *testing.T) {
	b, src := setup(t)
	src.SetLock(alice, tokens(4), 40*week)
	require.NoError(t, b.Cast(context.Background(), alice, 1))
	total := b.TotalSupplyAtTimestamp(week)
	sum := b.SumAtTimestamp(week)
	require.NoError(t, b.Cast(context.Background(), alice, 1))
	assert.Equal(t, 0, b.TotalSupplyAtTimestamp(week).Cmp(total))
	assert.Equal(t, 0, b.SumAtTimestamp(week).Cmp(sum))
}

func TestCount_WeightedAverageScenario(t *testing.T) {
	b, src := setup(t)
	// Options on the mainnet config: index 0 -> 0, index 1 -> 2e16 (2%).
	src.SetLock(alice, tokens(1), 40*week)
	src.SetLock(bob, tokens(3), 50*week)
	require.NoError(t, b.Cast(context.Background(), alice, 0))
	require.NoError(t, b.Cast(context.Background(), bob, 1))

	num := new(uint256.Int).Mul(uint256.NewInt(2e16), uint256.NewInt(50*3))
	want := num.Div(num, uint256.NewInt(40+50*3))
	assert.Equal(t, 0, b.Count(0).Cmp(want))

	// Alice's zero vote expires first, pulling the average toward bob's 2%.
	assert.Equal(t, 0, b.Count(40*week).Cmp(uint256.NewInt(2e16)))
	// All power decayed.
	assert.True(t, b.Count(50*week).IsZero())
}

func TestCount_BoundsWithinOptionRange(t *testing.T) {
	b, src := setup(t)
	src.SetLock(alice, tokens(7), 100*week)
	src.SetLock(bob, tokens(2), 80*week)
	require.NoError(t, b.Cast(context.Background(), alice, 5))
	require.NoError(t, b.Cast(context.Background(), bob, 0))
	max := b.options[len(b.options)-1]
	for at := uint64(0); at <= 100*week; at += 10 * week {
		c := b.Count(at)
		require.True(t, c.Cmp(max) <= 0, "count above max option at t=%d", at)
	}
}

func TestCount_NobodyVoted(t *testing.T) {
	b, _ := setup(t)
	assert.True(t, b.Count(0).IsZero())
	assert.True(t, b.TotalSupplyAtTimestamp(0).IsZero())
}

func TestBalanceOfAtTimestamp(t *testing.T) {
	b, src := setup(t)
	src.SetLock(alice, tokens(8), 104*week)
	require.NoError(t, b.Cast(context.Background(), alice, 1))

	// Half of the 208 week horizon remains: half the amount.
	assert.Equal(t, 0, b.BalanceOfAtTimestamp(alice, 0).Cmp(tokens(4)))
	assert.True(t, b.BalanceOfAtTimestamp(alice, 104*week).IsZero())
	assert.True(t, b.BalanceOfAtTimestamp(bob, 0).IsZero())
}

func TestCast_EmitsVoteChangedEvent(t *testing.T) {
	b, src := setup(t)
	ch := make(chan *events.Event, 2)
	sub := b.SubscribeVoteEvents(ch)
	defer sub.Unsubscribe()

	src.SetLock(alice, tokens(2), 30*week)
	require.NoError(t, b.Cast(context.Background(), alice, 1))
	ev := <-ch
	require.Equal(t, events.RateVoteChanged, ev.Type)
	data, ok := ev.Data.(*events.RateVoteChangedData)
	require.True(t, ok)
	assert.Nil(t, data.Previous)
	assert.Equal(t, uint64(1), data.Current.Option)

	require.NoError(t, b.Cast(context.Background(), alice, 2))
	ev = <-ch
	data = ev.Data.(*events.RateVoteChangedData)
	require.NotNil(t, data.Previous)
	assert.Equal(t, uint64(1), data.Previous.Option)
	assert.Equal(t, uint64(2), data.Current.Option)
}

func TestRestore_RebuildsBuckets(t *testing.T) {
	b, src := setup(t)
	src.SetLock(alice, tokens(3), 50*week)
	require.NoError(t, b.Cast(context.Background(), alice, 1))
	total := b.TotalSupplyAtTimestamp(0)
	sum := b.SumAtTimestamp(0)

	restored, err := NewBallot(context.Background(), src)
	require.NoError(t, err)
	r, _ := b.Receipt(alice)
	require.NoError(t, restored.Restore(map[common.Address]*types.RateReceipt{alice: r}))
	assert.Equal(t, 0, restored.TotalSupplyAtTimestamp(0).Cmp(total))
	assert.Equal(t, 0, restored.SumAtTimestamp(0).Cmp(sum))
	assert.Equal(t, 0, restored.Count(0).Cmp(b.Count(0)))
}
