// Package decay implements the shared vote weight accumulator. It maintains,
// per week-aligned unlock timestamp, the aggregate amount scheduled to fully
// unlock in that week together with a value-weighted mirror, and answers
// aggregate balance queries at arbitrary timestamps by projecting every
// bucket's straight-line decay. Query cost is bounded by the number of weekly
// buckets inside the maximum lock duration, never by the number of voters.
package decay

import (
	"github.com/holiman/uint256"

	"github.com/stratafi/governance/math/wad"
	"github.com/stratafi/governance/time/weeks"
)

// Contribution is one receipt's share of the schedule: an amount unlocking at
// a week-aligned timestamp, weighted by a WAD scaled value (an option's
// scalar, or a pool weight).
type Contribution struct {
	Amount     *uint256.Int
	UnlockTime uint64
	Value      *uint256.Int
}

// Accumulator aggregates scheduled unlocks into weekly buckets.
//
// The balance of a lock (A, U) queried at T <= U equals A*(U-T)/maxTime,
// independent of when the lock was created. Summing that expression over all
// live locks groups naturally by unlock week, which is what the two bucket
// maps hold: scheduled[w] is the total amount unlocking at w, weighted[w] is
// the total value-weighted amount unlocking at w.
type Accumulator struct {
	maxTime   uint64
	scheduled map[uint64]*uint256.Int
	weighted  map[uint64]*uint256.Int
}

// New creates an accumulator for the given maximum lock duration.
func New(maxTime uint64) *Accumulator {
	return &Accumulator{
		maxTime:   maxTime,
		scheduled: make(map[uint64]*uint256.Int),
		weighted:  make(map[uint64]*uint256.Int),
	}
}

// MaxTime returns the maximum lock duration the accumulator projects over.
func (a *Accumulator) MaxTime() uint64 {
	return a.maxTime
}

// Record replaces a receipt's contribution to the schedule. The old
// contribution, if any, is subtracted from its bucket and the new one is
// added; callers must treat the pair as one atomic step together with the
// receipt overwrite. A nil old records a first-time cast, a nil new records a
// pure removal.
func (a *Accumulator) Record(old, new *Contribution) {
	if old != nil {
		a.sub(old)
	}
	if new != nil {
		a.add(new)
	}
}

func (a *Accumulator) add(c *Contribution) {
	w := weeks.FloorTime(c.UnlockTime)
	sched, ok := a.scheduled[w]
	if !ok {
		sched = wad.Zero()
		a.scheduled[w] = sched
	}
	sched.Add(sched, c.Amount)

	wgt, ok := a.weighted[w]
	if !ok {
		wgt = wad.Zero()
		a.weighted[w] = wgt
	}
	wgt.Add(wgt, wad.Mul(c.Amount, c.Value))
}

func (a *Accumulator) sub(c *Contribution) {
	w := weeks.FloorTime(c.UnlockTime)
	if sched, ok := a.scheduled[w]; ok {
		sched.Sub(sched, c.Amount)
		if sched.IsZero() {
			delete(a.scheduled, w)
		}
	}
	if wgt, ok := a.weighted[w]; ok {
		wgt.Sub(wgt, wad.Mul(c.Amount, c.Value))
		if wgt.IsZero() {
			delete(a.weighted, w)
		}
	}
}

// TotalAt returns the sum of every live lock's decayed balance at time t.
func (a *Accumulator) TotalAt(t uint64) *uint256.Int {
	return a.project(a.scheduled, t)
}

// WeightedAt returns the value-weighted counterpart of TotalAt.
func (a *Accumulator) WeightedAt(t uint64) *uint256.Int {
	return a.project(a.weighted, t)
}

// AverageAt returns WeightedAt/TotalAt as a WAD scaled value, or zero when
// nothing is live at t. The maxTime division cancels in the ratio.
func (a *Accumulator) AverageAt(t uint64) *uint256.Int {
	total := a.rawProject(a.scheduled, t)
	if total.IsZero() {
		return wad.Zero()
	}
	return wad.Div(a.rawProject(a.weighted, t), total)
}

// project evaluates sum over buckets w >= t of bucket[w]*(w-t)/maxTime.
func (a *Accumulator) project(buckets map[uint64]*uint256.Int, t uint64) *uint256.Int {
	z := a.rawProject(buckets, t)
	return z.Div(z, uint256.NewInt(a.maxTime))
}

// rawProject is projection without the maxTime division, for callers that
// only need a ratio of projections.
func (a *Accumulator) rawProject(buckets map[uint64]*uint256.Int, t uint64) *uint256.Int {
	sum := wad.Zero()
	term := new(uint256.Int)
	// Unlock times are capped at t+maxTime by the ledger, so a walk over the
	// weekly boundaries in (t, t+maxTime] visits every live bucket. A bucket
	// exactly at t contributes w-t == 0 and is skipped.
	end := t + a.maxTime
	for w := weeks.Next(t); w <= end; w = weeks.Next(w) {
		b, ok := buckets[w]
		if !ok {
			continue
		}
		term.Mul(b, uint256.NewInt(w-t))
		sum.Add(sum, term)
	}
	return sum
}

// ScheduledUnlock returns the aggregate amount unlocking in the week bucket
// containing t.
func (a *Accumulator) ScheduledUnlock(t uint64) *uint256.Int {
	if b, ok := a.scheduled[weeks.FloorTime(t)]; ok {
		return b.Clone()
	}
	return wad.Zero()
}

// ScheduledWeightedUnlock returns the aggregate weighted amount unlocking in
// the week bucket containing t.
func (a *Accumulator) ScheduledWeightedUnlock(t uint64) *uint256.Int {
	if b, ok := a.weighted[weeks.FloorTime(t)]; ok {
		return b.Clone()
	}
	return wad.Zero()
}

// BalanceAt returns one lock's decayed balance A*(U-t)/maxTime, or zero once
// the unlock time has passed.
func BalanceAt(amount *uint256.Int, unlockTime, t, maxTime uint64) *uint256.Int {
	if t >= unlockTime {
		return wad.Zero()
	}
	return wad.MulDiv(amount, uint256.NewInt(unlockTime-t), uint256.NewInt(maxTime))
}
