// Package poolballot implements the multi choice pool weight ballot. Voters
// split one unit of weight across an append-only registry of liquidity
// pools; the ballot aggregates every live vote, per pool, into a normalized
// allocation vector that always sums to exactly one unit.
package poolballot

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

var log = logrus.WithField("prefix", "poolballot")

var (
	// ErrWrongLength is returned when a weight vector does not match the
	// current pool registry length.
	ErrWrongLength = errors.New("weight vector length does not match pool count")
	// ErrWeightsTooLarge is returned when the weights sum to more than one unit.
	ErrWeightsTooLarge = errors.New("weights exceed one unit")
	// ErrNotRegistrar is returned when a caller without the registrar
	// capability attempts to grow the registry.
	ErrNotRegistrar = errors.New("caller is not the registrar")
	// ErrPoolAlreadyAdded is returned when a pool is registered twice.
	ErrPoolAlreadyAdded = errors.New("pool already registered")
	// ErrTooManyPools is returned when the registry limit is reached.
	ErrTooManyPools = errors.New("pool registry limit reached")
)

var (
	castsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "governance_pool_ballot_casts_total",
		Help: "Count of successful pool weight ballot casts.",
	})
	castFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "governance_pool_ballot_cast_failures_total",
		Help: "Count of rejected pool weight ballot casts.",
	})
	poolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "governance_pool_registry_size",
		Help: "Number of pools in the append-only registry.",
	})
)

var timeNow = func() uint64 {
	return uint64(time.Now().Unix())
}

// Ballot aggregates pool weight votes. Each pool owns its own bucket pair;
// one shared supply accumulator tracks undivided voting power for the
// transparency queries.
type Ballot struct {
	lock      sync.RWMutex
	source    types.LockSource
	maxTime   uint64
	registrar common.Address
	pools     []common.Address
	accs      []*decay.Accumulator
	supply    *decay.Accumulator
	receipts  map[common.Address]*types.PoolReceipt
	feed      event.Feed
}

// NewBallot creates an empty ballot. Pools are registered by the registrar
// after construction, or restored from storage at startup.
func NewBallot(ctx context.Context, source types.LockSource, registrar common.Address) (*Ballot, error) {
	maxTime, err := source.MaxTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not read max lock duration")
	}
	return &Ballot{
		source:    source,
		maxTime:   maxTime,
		registrar: registrar,
		supply:    decay.New(maxTime),
		receipts:  make(map[common.Address]*types.PoolReceipt),
	}, nil
}

// Restore loads a persisted registry and receipt set into the ballot. It is
// called once at startup, before the ballot serves any call.
func (b *Ballot) Restore(pools []common.Address, receipts map[common.Address]*types.PoolReceipt) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, p := range pools {
		b.pools = append(b.pools, p)
		b.accs = append(b.accs, decay.New(b.maxTime))
	}
	poolCount.Set(float64(len(b.pools)))
	for voter, r := range receipts {
		if len(r.Weights) > len(b.pools) {
			return errors.Wrapf(ErrWrongLength, "stored receipt for %#x", voter)
		}
		b.record(nil, r)
		b.receipts[voter] = r.Copy()
	}
	log.WithFields(logrus.Fields{
		"pools":    len(pools),
		"receipts": len(receipts),
	}).Info("Restored pool ballot state")
	return nil
}

// AddPool appends a pool to the registry. Only the registrar may grow the
// list. Existing receipts keep their old, now shorter, weight vectors; their
// contributions stay attributed to the pools they had weights for until the
// voters recast.
func (b *Ballot) AddPool(caller, pool common.Address) error {
	if caller != b.registrar {
		return ErrNotRegistrar
	}
	b.lock.Lock()
	for _, p := range b.pools {
		if p == pool {
			b.lock.Unlock()
			return ErrPoolAlreadyAdded
		}
	}
	if uint64(len(b.pools)) >= params.GovConfig().MaxPoolCount {
		b.lock.Unlock()
		return ErrTooManyPools
	}
	b.pools = append(b.pools, pool)
	b.accs = append(b.accs, decay.New(b.maxTime))
	idx := uint64(len(b.pools) - 1)
	b.lock.Unlock()

	poolCount.Set(float64(idx + 1))
	b.feed.Send(&events.Event{
		Type: events.PoolAdded,
		Data: &events.PoolAddedData{Pool: pool, Index: idx},
	})
	log.WithFields(logrus.Fields{
		"pool":  pool.Hex(),
		"index": idx,
	}).Info("Pool added to registry")
	return nil
}

// Pools returns the registry in registration order.
func (b *Ballot) Pools() []common.Address {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return append([]common.Address{}, b.pools...)
}

// PoolCount returns the registry length.
func (b *Ballot) PoolCount() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.pools)
}

// Cast records the voter's weight vector, replacing any previous vote. The
// vector must match the current registry length and sum to at most one unit.
// All per-pool bucket updates for one cast land in one critical section.
func (b *Ballot) Cast(ctx context.Context, voter common.Address, weights []*uint256.Int) error {
	b.lock.RLock()
	pools := len(b.pools)
	b.lock.RUnlock()
	if len(weights) != pools {
		castFailures.Inc()
		return ErrWrongLength
	}
	sum := wad.Zero()
	for _, w := range weights {
		// Bounding each entry first keeps the sum free of 256-bit wraparound.
		if w.Gt(wad.One()) {
			castFailures.Inc()
			return ErrWeightsTooLarge
		}
		sum.Add(sum, w)
	}
	if sum.Gt(wad.One()) {
		castFailures.Inc()
		return ErrWeightsTooLarge
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

	cur := &types.PoolReceipt{
		Amount:     lb.Amount.Clone(),
		UnlockTime: lb.UnlockTime,
		Weights:    make([]*uint256.Int, len(weights)),
	}
	for i, w := range weights {
		cur.Weights[i] = w.Clone()
	}

	b.lock.Lock()
	if len(b.pools) != len(weights) {
		// Registry grew between the length check and the write section.
		b.lock.Unlock()
		castFailures.Inc()
		return ErrWrongLength
	}
	prev := b.receipts[voter]
	b.record(prev, cur)
	b.receipts[voter] = cur
	b.lock.Unlock()

	castsTotal.Inc()
	b.feed.Send(&events.Event{
		Type: events.PoolVoteChanged,
		Data: &events.PoolVoteChangedData{
			Voter:    voter,
			Previous: prev.Copy(),
			Current:  cur.Copy(),
		},
	})
	log.WithFields(logrus.Fields{
		"voter":      voter.Hex(),
		"pools":      len(weights),
		"unlockTime": lb.UnlockTime,
	}).Debug("Pool weight vote cast")
	return nil
}

// record replaces old's contributions with new's across the supply
// accumulator and every affected pool accumulator. Caller holds the write
// lock.
func (b *Ballot) record(old, new *types.PoolReceipt) {
	var oldSupply *decay.Contribution
	if old != nil {
		oldSupply = &decay.Contribution{Amount: old.Amount, UnlockTime: old.UnlockTime, Value: wad.Zero()}
	}
	var newSupply *decay.Contribution
	if new != nil {
		newSupply = &decay.Contribution{Amount: new.Amount, UnlockTime: new.UnlockTime, Value: wad.Zero()}
	}
	b.supply.Record(oldSupply, newSupply)

	for i := range b.accs {
		var oldC *decay.Contribution
		if old != nil && i < len(old.Weights) {
			oldC = &decay.Contribution{Amount: old.Amount, UnlockTime: old.UnlockTime, Value: old.Weights[i]}
		}
		var newC *decay.Contribution
		if new != nil && i < len(new.Weights) {
			newC = &decay.Contribution{Amount: new.Amount, UnlockTime: new.UnlockTime, Value: new.Weights[i]}
		}
		if oldC != nil || newC != nil {
			b.accs[i].Record(oldC, newC)
		}
	}
}

// Count returns the normalized allocation fraction per pool at time t. Every
// entry is non-negative and the vector sums to exactly one unit. With no live
// weighted power at t, the fallback is a uniform 1/poolCount split.
func (b *Ballot) Count(t uint64) []*uint256.Int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	n := len(b.pools)
	if n == 0 {
		return nil
	}

	weighted := make([]*uint256.Int, n)
	denom := wad.Zero()
	for i, acc := range b.accs {
		weighted[i] = acc.WeightedAt(t)
		denom.Add(denom, weighted[i])
	}

	out := make([]*uint256.Int, n)
	if denom.IsZero() {
		// Uniform fallback. The division remainder goes to the first pool so
		// the vector still sums to exactly one unit.
		share := new(uint256.Int).Div(wad.One(), uint256.NewInt(uint64(n)))
		total := wad.Zero()
		for i := 1; i < n; i++ {
			out[i] = share.Clone()
			total.Add(total, share)
		}
		out[0] = new(uint256.Int).Sub(wad.One(), total)
		return out
	}

	// Normalize with floor division; the largest entry absorbs the rounding
	// remainder so the vector sums to exactly one unit.
	total := wad.Zero()
	largest := 0
	for i := range weighted {
		out[i] = wad.Div(weighted[i], denom)
		total.Add(total, out[i])
		if weighted[i].Gt(weighted[largest]) {
			largest = i
		}
	}
	rem := new(uint256.Int).Sub(wad.One(), total)
	out[largest].Add(out[largest], rem)
	return out
}

// Receipt returns the voter's stored receipt without decay applied.
func (b *Ballot) Receipt(voter common.Address) (*types.PoolReceipt, bool) {
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

// TotalSupplyAtTimestamp returns the aggregate decayed voting power at t,
// counting each voter once regardless of how their weights are split.
func (b *Ballot) TotalSupplyAtTimestamp(t uint64) *uint256.Int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.supply.TotalAt(t)
}

// SumAtTimestamp returns the weighted voting power assigned to one pool at t.
func (b *Ballot) SumAtTimestamp(pool int, t uint64) *uint256.Int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	if pool < 0 || pool >= len(b.accs) {
		return wad.Zero()
	}
	return b.accs[pool].WeightedAt(t)
}

// SubscribeVoteEvents allows callers to receive vote change and pool added
// events.
func (b *Ballot) SubscribeVoteEvents(ch chan<- *events.Event) event.Subscription {
	return b.feed.Subscribe(ch)
}
