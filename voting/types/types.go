// Package types defines the data structures exchanged between the governance
// engine, the external locked-balance ledger, and the fund oracles.
package types

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// LockedBalance is an account's deposit in the external ledger. The voting
// power of the lock decays linearly from Amount to zero at UnlockTime.
type LockedBalance struct {
	Amount     *uint256.Int
	UnlockTime uint64
}

// LockSource is the read-only view of the locked-balance ledger. Ballots
// query it fresh on every cast and never cache balances across calls.
type LockSource interface {
	// GetLockedBalance returns the live lock for the account. Accounts with
	// no lock report a zero amount.
	GetLockedBalance(ctx context.Context, account common.Address) (*LockedBalance, error)
	// MaxTime returns the protocol-wide maximum lock duration in seconds.
	MaxTime(ctx context.Context) (uint64, error)
}

// FundOracle reports per-fund accounting figures used by the relative weight
// controller. All historical reads are keyed by week-aligned timestamps.
type FundOracle interface {
	// CurrentDay returns the end timestamp of the fund's current trading day.
	CurrentDay(ctx context.Context) (uint64, error)
	// HistoricalTotalShares returns the fund's outstanding shares at the week.
	HistoricalTotalShares(ctx context.Context, week uint64) (*uint256.Int, error)
	// HistoricalNav returns the fund's net asset value per share at the week,
	// WAD scaled.
	HistoricalNav(ctx context.Context, week uint64) (*uint256.Int, error)
}

// RateReceipt records one voter's live interest rate vote. It is overwritten
// on recast and never deleted.
type RateReceipt struct {
	Amount     *uint256.Int
	UnlockTime uint64
	Option     uint64
}

// Copy returns a deep copy of the receipt.
func (r *RateReceipt) Copy() *RateReceipt {
	if r == nil {
		return nil
	}
	return &RateReceipt{
		Amount:     r.Amount.Clone(),
		UnlockTime: r.UnlockTime,
		Option:     r.Option,
	}
}

// PoolReceipt records one voter's live pool weight vote. Weights are WAD
// scaled and aligned to the pool registry as it existed at cast time; a
// receipt whose vector is shorter than the registry is stale and the voter
// must recast with a full-length vector.
type PoolReceipt struct {
	Amount     *uint256.Int
	UnlockTime uint64
	Weights    []*uint256.Int
}

// Copy returns a deep copy of the receipt.
func (r *PoolReceipt) Copy() *PoolReceipt {
	if r == nil {
		return nil
	}
	c := &PoolReceipt{
		Amount:     r.Amount.Clone(),
		UnlockTime: r.UnlockTime,
		Weights:    make([]*uint256.Int, len(r.Weights)),
	}
	for i, w := range r.Weights {
		c.Weights[i] = w.Clone()
	}
	return c
}
