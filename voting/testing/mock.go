// Package testing provides governance mocks for package tests.
package testing

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stratafi/governance/math/wad"
	"github.com/stratafi/governance/voting/types"
)

// MockLockSource is an in-memory locked-balance ledger.
type MockLockSource struct {
	lock        sync.RWMutex
	MaxDuration uint64
	locks       map[common.Address]*types.LockedBalance
}

// NewMockLockSource returns a ledger with the given maximum lock duration.
func NewMockLockSource(maxDuration uint64) *MockLockSource {
	return &MockLockSource{
		MaxDuration: maxDuration,
		locks:       make(map[common.Address]*types.LockedBalance),
	}
}

// SetLock sets the account's lock.
func (m *MockLockSource) SetLock(account common.Address, amount *uint256.Int, unlockTime uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.locks[account] = &types.LockedBalance{Amount: amount, UnlockTime: unlockTime}
}

// GetLockedBalance implements types.LockSource.
func (m *MockLockSource) GetLockedBalance(_ context.Context, account common.Address) (*types.LockedBalance, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if lb, ok := m.locks[account]; ok {
		return &types.LockedBalance{Amount: lb.Amount.Clone(), UnlockTime: lb.UnlockTime}, nil
	}
	return &types.LockedBalance{Amount: wad.Zero()}, nil
}

// MaxTime implements types.LockSource.
func (m *MockLockSource) MaxTime(_ context.Context) (uint64, error) {
	return m.MaxDuration, nil
}

// MockFundOracle serves fixed per-week figures for one fund.
type MockFundOracle struct {
	lock   sync.RWMutex
	Day    uint64
	navs   map[uint64]*uint256.Int
	shares map[uint64]*uint256.Int
	// Reads counts oracle calls per method, for snapshot-consistency tests.
	Reads int
}

// NewMockFundOracle returns an oracle with no recorded weeks.
func NewMockFundOracle(day uint64) *MockFundOracle {
	return &MockFundOracle{
		Day:    day,
		navs:   make(map[uint64]*uint256.Int),
		shares: make(map[uint64]*uint256.Int),
	}
}

// SetWeek records the fund's nav and total shares for a week.
func (m *MockFundOracle) SetWeek(week uint64, nav, shares *uint256.Int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.navs[week] = nav
	m.shares[week] = shares
}

// CurrentDay implements types.FundOracle.
func (m *MockFundOracle) CurrentDay(_ context.Context) (uint64, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.Day, nil
}

// HistoricalTotalShares implements types.FundOracle.
func (m *MockFundOracle) HistoricalTotalShares(_ context.Context, week uint64) (*uint256.Int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.Reads++
	if s, ok := m.shares[week]; ok {
		return s.Clone(), nil
	}
	return wad.Zero(), nil
}

// HistoricalNav implements types.FundOracle.
func (m *MockFundOracle) HistoricalNav(_ context.Context, week uint64) (*uint256.Int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.Reads++
	if n, ok := m.navs[week]; ok {
		return n.Clone(), nil
	}
	return wad.Zero(), nil
}
