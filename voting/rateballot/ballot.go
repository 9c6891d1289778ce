// Package rateballot implements the single choice interest rate ballot.
// Voters choose one option from a fixed enumerated set of annualized rate
// values; the ballot aggregates every live vote into a decay-weighted average
// rate that can be evaluated at arbitrary past or future timestamps.
package rateballot

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/stratafi/governance/config/params"
	"github.com/stratafi/governance/math/wad"
	"github.com/stratafi/governance/voting/decay"
	"github.com/stratafi/governance/voting/events"
	"github.com/stratafi/governance/voting/types"
)

var log = logrus.WithField("prefix", "rateballot")

// ErrInvalidOption is returned when the chosen option index is outside the
// enumerated option set.
var ErrInvalidOption = errors.New("option outside the enumerated set")

var (
	castsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "governance_rate_ballot_casts_total",
		Help: "Count of successful interest rate ballot casts.",
	})
	castFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "governance_rate_ballot_cast_failures_total",
		Help: "Count of rejected interest rate ballot casts.",
	})
)

// timeNow is swapped out by tests that pin the cast-time clock.
var timeNow = func() uint64 {
	return uint64(time.Now().Unix())
}

// Ballot aggregates single choice votes. Mutations take the write lock; the
// execution model is single-writer, the lock only shields aggregate readers
// from observing the middle of a recast.
type Ballot struct {
	lock     sync.RWMutex
	source   types.LockSource
	maxTime  uint64
	options  []*uint256.Int
	acc      *decay.Accumulator
	receipts map[common.Address]*types.RateReceipt
	feed     event.Feed
}

// NewBallot creates a ballot over the option set configured in params. The
// maximum lock duration is read from the ledger once; it is a protocol
// constant.
func NewBallot(ctx context.Context, source types.LockSource) (*Ballot, error) {
	maxTime, err := source.MaxTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not read max lock duration")
	}
	opts := params.GovConfig().InterestRateOptions
	options := make([]*uint256.Int, len(opts))
	for i, o := range opts {
		options[i] = uint256.NewInt(o)
	}
	return &Ballot{
		source:   source,
		maxTime:  maxTime,
		options:  options,
		acc:      decay.New(maxTime),
		receipts: make(map[common.Address]*types.RateReceipt),
	}, nil
}

// Restore replays persisted receipts into the ballot's buckets. It is called
// once at startup, before the ballot serves any call.
func (b *Ballot) Restore(receipts map[common.Address]*types.RateReceipt) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	for voter, r := range receipts {
		if r.Option >= uint64(len(b.options)) {
			return errors.Wrapf(ErrInvalidOption, "stored receipt for %#x", voter)
		}
		b.acc.Record(nil, &decay.Contribution{
			Amount:     r.Amount,
			UnlockTime: r.UnlockTime,
			Value:      b.options[r.Option],
		})
		b.receipts[voter] = r.Copy()
	}
	log.WithField("receipts", len(receipts)).Info("Restored interest rate ballot state")
	return nil
}

// Options returns the enumerated option values, WAD scaled.
func (b *Ballot) Options() []*uint256.Int {
	out := make([]*uint256.Int, len(b.options))
	for i, o := range b.options {
		out[i] = o.Clone()
	}
	return out
}

// Cast records the voter's choice, replacing any previous vote. The voter's
// lock is read fresh from the ledger; voters with no live lock are rejected.
// The bucket update and the receipt overwrite happen under one critical
// section, so no reader can observe the middle of a recast.
func (b *Ballot) Cast(ctx context.Context, voter common.Address, option uint64) error {
	if option >= uint64(len(b.options)) {
		castFailures.Inc()
		return ErrInvalidOption
	}
	lb, err := b.source.GetLockedBalance(ctx, voter)
	if err != nil {
		castFailures.Inc()
		return errors.Wrap(err, "could not read locked balance")
	}
	if lb.Amount.IsZero() || lb.UnlockTime <= timeNow() {
		castFailures.Inc()
		return types.ErrZeroBalance
	}

	b.lock.Lock()
	prev := b.receipts[voter]
	var old *decay.Contribution
	if prev != nil {
		old = &decay.Contribution{
			Amount:     prev.Amount,
			UnlockTime: prev.UnlockTime,
			Value:      b.options[prev.Option],
		}
	}
	cur := &types.RateReceipt{
		Amount:     lb.Amount.Clone(),
		UnlockTime: lb.UnlockTime,
		Option:     option,
	}
	b.acc.Record(old, &decay.Contribution{
		Amount:     cur.Amount,
		UnlockTime: cur.UnlockTime,
		Value:      b.options[option],
	})
	b.receipts[voter] = cur
	b.lock.Unlock()

	castsTotal.Inc()
	b.feed.Send(&events.Event{
		Type: events.RateVoteChanged,
		Data: &events.RateVoteChangedData{
			Voter:        voter,
			Previous:     prev.Copy(),
			Current:      cur.Copy(),
			CurrentValue: b.options[option].Clone(),
		},
	})
	log.WithFields(logrus.Fields{
		"voter":      voter.Hex(),
		"option":     option,
		"unlockTime": lb.UnlockTime,
	}).Debug("Interest rate vote cast")
	return nil
}

// Count returns the decay-weighted average of all voters' chosen option
// values at time t, WAD scaled. With no live voting power at t the defined
// result is zero, not an error.
func (b *Ballot) Count(t uint64) *uint256.Int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.acc.AverageAt(t)
}

// Receipt returns the voter's stored receipt without decay applied. The
// second return is false if the voter never cast.
func (b *Ballot) Receipt(voter common.Address) (*types.RateReceipt, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	r, ok := b.receipts[voter]
	return r.Copy(), ok
}

// BalanceOfAtTimestamp returns the voter's decayed voting power at t, based
// on the receipt snapshot taken at cast time.
func (b *Ballot) BalanceOfAtTimestamp(voter common.Address, t uint64) *uint256.Int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	r, ok := b.receipts[voter]
	if !ok {
		return wad.Zero()
	}
	return decay.BalanceAt(r.Amount, r.UnlockTime, t, b.maxTime)
}

// TotalSupplyAtTimestamp returns the aggregate decayed voting power at t.
func (b *Ballot) TotalSupplyAtTimestamp(t uint64) *uint256.Int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.acc.TotalAt(t)
}

// SumAtTimestamp returns the aggregate value-weighted voting power at t.
func (b *Ballot) SumAtTimestamp(t uint64) *uint256.Int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.acc.WeightedAt(t)
}

// SubscribeVoteEvents allows callers to receive vote change events.
func (b *Ballot) SubscribeVoteEvents(ch chan<- *events.Event) event.Subscription {
	return b.feed.Subscribe(ch)
}
