// Package relweight implements the relative funding weight controller. Each
// tracked fund gets one smoothed weight checkpoint per week, chained to the
// previous week's checkpoint: raw funding shares (nav times outstanding
// shares, normalized across funds) pass through a fixed-window exponential
// moving average and min/max clamps before being stored. Once stored, a
// checkpoint is immutable; re-reading a week returns the stored value even if
// the oracle inputs have since changed.
package relweight

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/stratafi/governance/config/params"
	"github.com/stratafi/governance/math/wad"
	"github.com/stratafi/governance/time/weeks"
	"github.com/stratafi/governance/voting/events"
	"github.com/stratafi/governance/voting/types"
)

var log = logrus.WithField("prefix", "relweight")

var (
	// ErrPreviousWeekEmpty is returned when a week's checkpoint is requested
	// before the preceding week was finalized. Weeks must be computed in
	// order; AdvanceTo fills gaps.
	ErrPreviousWeekEmpty = errors.New("previous week checkpoint missing")
	// ErrWeekNotComplete is returned when the requested week has not yet
	// fully elapsed according to the fund oracles.
	ErrWeekNotComplete = errors.New("week has not completed yet")
	// ErrUnknownFund is returned for funds the controller does not track.
	ErrUnknownFund = errors.New("fund not tracked")
	// ErrFundAlreadyAdded is returned when a fund is registered twice.
	ErrFundAlreadyAdded = errors.New("fund already tracked")
)

var checkpointsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "governance_weight_checkpoints_total",
	Help: "Count of relative weight checkpoints finalized.",
})

// CheckpointStore persists finalized weekly weights. Implemented by the
// bolt-backed governance database.
type CheckpointStore interface {
	RelativeWeight(ctx context.Context, fund common.Address, week uint64) (*uint256.Int, error)
	HasRelativeWeight(ctx context.Context, fund common.Address, week uint64) (bool, error)
	SaveRelativeWeight(ctx context.Context, fund common.Address, week uint64, weight *uint256.Int) error
}

// Controller computes and stores one smoothed relative weight per fund per
// week.
type Controller struct {
	lock    sync.Mutex
	store   CheckpointStore
	funds   []common.Address
	oracles map[common.Address]types.FundOracle
	feed    event.Feed
}

// NewController creates a controller backed by the given checkpoint store.
func NewController(store CheckpointStore) *Controller {
	return &Controller{
		store:   store,
		oracles: make(map[common.Address]types.FundOracle),
	}
}

// AddFund registers a fund and its oracle. Funds are append-only.
func (c *Controller) AddFund(fund common.Address, oracle types.FundOracle) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.oracles[fund]; ok {
		return ErrFundAlreadyAdded
	}
	c.funds = append(c.funds, fund)
	c.oracles[fund] = oracle
	log.WithField("fund", fund.Hex()).Info("Tracking fund")
	return nil
}

// Funds returns the tracked funds in registration order.
func (c *Controller) Funds() []common.Address {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]common.Address{}, c.funds...)
}

// FundRelativeWeight returns the fund's relative weight for the week
// containing t. Pre-genesis weeks follow the guarded launch ramp. The first
// call for a finalized week computes, stores and returns its checkpoint;
// later calls return the stored value unchanged.
func (c *Controller) FundRelativeWeight(ctx context.Context, fund common.Address, t uint64) (*uint256.Int, error) {
	week := weeks.FloorTime(t)
	cfg := params.GovConfig()

	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.oracles[fund]; !ok {
		return nil, ErrUnknownFund
	}

	if week < cfg.WeightGenesisTime {
		return launchRamp(cfg, week), nil
	}

	if ok, err := c.store.HasRelativeWeight(ctx, fund, week); err != nil {
		return nil, errors.Wrap(err, "could not read checkpoint")
	} else if ok {
		return c.store.RelativeWeight(ctx, fund, week)
	}

	prev, err := c.previousWeight(ctx, fund, week, cfg)
	if err != nil {
		return nil, err
	}

	// The week must have fully elapsed before its share is measurable.
	day, err := c.oracles[fund].CurrentDay(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not read oracle day")
	}
	if day < week+cfg.SecondsPerWeek {
		return nil, ErrWeekNotComplete
	}

	raw, err := c.rawShare(ctx, fund, week)
	if err != nil {
		return nil, err
	}

	// EMA over a fixed integer window, then clamp so every fund keeps a
	// floor allocation and no fund exceeds the matching ceiling.
	window := uint256.NewInt(cfg.SmoothingWindow)
	smoothed := new(uint256.Int).Mul(prev, uint256.NewInt(cfg.SmoothingWindow-1))
	smoothed.Add(smoothed, raw)
	smoothed.Div(smoothed, window)
	min := uint256.NewInt(cfg.MinFundWeight)
	max := new(uint256.Int).Sub(wad.One(), min)
	smoothed = wad.Clamp(smoothed, min, max)

	if err := c.store.SaveRelativeWeight(ctx, fund, week, smoothed); err != nil {
		return nil, errors.Wrap(err, "could not save checkpoint")
	}
	checkpointsTotal.Inc()
	c.feed.Send(&events.Event{
		Type: events.WeightCheckpointed,
		Data: &events.WeightCheckpointedData{Fund: fund, Week: week, Weight: smoothed.Clone()},
	})
	log.WithFields(logrus.Fields{
		"fund":   fund.Hex(),
		"week":   week,
		"weight": smoothed.String(),
	}).Debug("Relative weight checkpointed")
	return smoothed, nil
}

// previousWeight resolves the smoothing chain's predecessor: the stored
// checkpoint for week-1, or the configured seed when week is the genesis
// week.
func (c *Controller) previousWeight(ctx context.Context, fund common.Address, week uint64, cfg *params.GovernanceConfig) (*uint256.Int, error) {
	if week == cfg.WeightGenesisTime {
		return uint256.NewInt(cfg.SeedFundWeight), nil
	}
	prevWeek := weeks.Prev(week)
	ok, err := c.store.HasRelativeWeight(ctx, fund, prevWeek)
	if err != nil {
		return nil, errors.Wrap(err, "could not read checkpoint")
	}
	if !ok {
		return nil, ErrPreviousWeekEmpty
	}
	return c.store.RelativeWeight(ctx, fund, prevWeek)
}

// rawShare reads each tracked fund's oracle exactly once and normalizes the
// requested fund's nav*shares product into a WAD fraction. Taking a single
// snapshot per call keeps the checkpoint consistent even if an oracle's
// answer changes mid-computation.
func (c *Controller) rawShare(ctx context.Context, fund common.Address, week uint64) (*uint256.Int, error) {
	var own *uint256.Int
	total := wad.Zero()
	for _, f := range c.funds {
		oracle := c.oracles[f]
		nav, err := oracle.HistoricalNav(ctx, week)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read nav for %#x", f)
		}
		shares, err := oracle.HistoricalTotalShares(ctx, week)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read total shares for %#x", f)
		}
		value := wad.Mul(nav, shares)
		total.Add(total, value)
		if f == fund {
			own = value
		}
	}
	if total.IsZero() {
		// No fund reports value for the week; split evenly.
		return new(uint256.Int).Div(wad.One(), uint256.NewInt(uint64(len(c.funds)))), nil
	}
	return wad.Div(own, total), nil
}

// launchRamp interpolates linearly between the pre-genesis allocation at
// launch time and the seed weight at the genesis week, preventing a
// discontinuous jump when real measurements begin.
func launchRamp(cfg *params.GovernanceConfig, week uint64) *uint256.Int {
	pre := uint256.NewInt(cfg.PreGenesisWeight)
	if week <= cfg.LaunchTime {
		return pre
	}
	seed := uint256.NewInt(cfg.SeedFundWeight)
	span := uint256.NewInt(cfg.WeightGenesisTime - cfg.LaunchTime)
	elapsed := uint256.NewInt(week - cfg.LaunchTime)
	if seed.Lt(pre) {
		step := wad.MulDiv(new(uint256.Int).Sub(pre, seed), elapsed, span)
		return new(uint256.Int).Sub(pre, step)
	}
	step := wad.MulDiv(new(uint256.Int).Sub(seed, pre), elapsed, span)
	return new(uint256.Int).Add(pre, step)
}

// AdvanceTo finalizes every intervening week for every tracked fund, up to
// and including the week containing t. Callers needing a far-future week use
// this instead of jumping the chain.
func (c *Controller) AdvanceTo(ctx context.Context, t uint64) error {
	cfg := params.GovConfig()
	target := weeks.FloorTime(t)
	for week := cfg.WeightGenesisTime; week <= target; week += cfg.SecondsPerWeek {
		for _, fund := range c.Funds() {
			if _, err := c.FundRelativeWeight(ctx, fund, week); err != nil {
				return errors.Wrapf(err, "could not advance fund %#x to week %d", fund, week)
			}
		}
	}
	return nil
}

// SubscribeCheckpointEvents allows callers to receive checkpoint events.
func (c *Controller) SubscribeCheckpointEvents(ch chan<- *events.Event) event.Subscription {
	return c.feed.Subscribe(ch)
}
