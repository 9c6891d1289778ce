package kv

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratafi/governance/voting/types"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestRelativeWeight_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	fund := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	week := uint64(1631404800)

	_, err := s.RelativeWeight(ctx, fund, week)
	assert.ErrorIs(t, err, ErrNotFound)
	exists, err := s.HasRelativeWeight(ctx, fund, week)
	require.NoError(t, err)
	assert.False(t, exists)

	weight := uint256.NewInt(42e16)
	require.NoError(t, s.SaveRelativeWeight(ctx, fund, week, weight))
	got, err := s.RelativeWeight(ctx, fund, week)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cmp(weight))
	exists, err = s.HasRelativeWeight(ctx, fund, week)
	require.NoError(t, err)
	assert.True(t, exists)

	// Neighboring weeks and funds stay isolated.
	_, err = s.RelativeWeight(ctx, fund, week+1)
	assert.ErrorIs(t, err, ErrNotFound)
	other := common.HexToAddress("0x00000000000000000000000000000000000000f2")
	_, err = s.RelativeWeight(ctx, other, week)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRateReceipts_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	voter := common.HexToAddress("0x0000000000000000000000000000000000000a11")

	r := &types.RateReceipt{
		Amount:     uint256.NewInt(3e18),
		UnlockTime: 1700000000,
		Option:     2,
	}
	require.NoError(t, s.SaveRateReceipt(ctx, voter, r))

	// Overwrite replaces, never appends.
	r.Option = 4
	require.NoError(t, s.SaveRateReceipt(ctx, voter, r))

	receipts, err := s.RateReceipts(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	got := receipts[voter]
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Amount.Cmp(r.Amount))
	assert.Equal(t, r.UnlockTime, got.UnlockTime)
	assert.Equal(t, uint64(4), got.Option)
}

func TestPoolReceipts_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	voter := common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	r := &types.PoolReceipt{
		Amount:     uint256.NewInt(7e18),
		UnlockTime: 1700000000,
		Weights: []*uint256.Int{
			uint256.NewInt(25e16),
			uint256.NewInt(0),
			uint256.NewInt(75e16),
		},
	}
	require.NoError(t, s.SavePoolReceipt(ctx, voter, r))

	receipts, err := s.PoolReceipts(ctx)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	got := receipts[voter]
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Amount.Cmp(r.Amount))
	require.Len(t, got.Weights, 3)
	for i := range r.Weights {
		assert.Equal(t, 0, got.Weights[i].Cmp(r.Weights[i]), "weight %d", i)
	}
}

func TestPools_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	got, err := s.Pools(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 0)

	pools := []common.Address{
		common.HexToAddress("0x0000000000000000000000000000000000000001"),
		common.HexToAddress("0x0000000000000000000000000000000000000002"),
	}
	require.NoError(t, s.SavePools(ctx, pools))
	got, err = s.Pools(ctx)
	require.NoError(t, err)
	assert.Equal(t, pools, got)
}

func TestClearDB(t *testing.T) {
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.ClearDB())
}
