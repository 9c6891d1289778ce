package node

import (
	"context"

	"github.com/stratafi/governance/db"
	"github.com/stratafi/governance/voting/events"
	"github.com/stratafi/governance/voting/poolballot"
	"github.com/stratafi/governance/voting/rateballot"
)

// persister mirrors live ballot state into the database so a restarted node
// can rebuild its accumulators from stored receipts.
type persister struct {
	ctx  context.Context
	db   db.Database
	rate *rateballot.Ballot
	pool *poolballot.Ballot
}

func newPersister(ctx context.Context, d db.Database, rate *rateballot.Ballot, pool *poolballot.Ballot) *persister {
	return &persister{ctx: ctx, db: d, rate: rate, pool: pool}
}

// Start subscribes to both ballots' vote feeds and writes every mutation
// through to the database.
func (p *persister) Start() {
	go p.run()
}

func (p *persister) run() {
	rateCh := make(chan *events.Event, 64)
	poolCh := make(chan *events.Event, 64)
	rateSub := p.rate.SubscribeVoteEvents(rateCh)
	poolSub := p.pool.SubscribeVoteEvents(poolCh)
	defer rateSub.Unsubscribe()
	defer poolSub.Unsubscribe()

	for {
		select {
		case ev := <-rateCh:
			p.handle(ev)
		case ev := <-poolCh:
			p.handle(ev)
		case err := <-rateSub.Err():
			log.WithError(err).Debug("Rate vote subscription closed")
			return
		case err := <-poolSub.Err():
			log.WithError(err).Debug("Pool vote subscription closed")
			return
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *persister) handle(ev *events.Event) {
	switch data := ev.Data.(type) {
	case *events.RateVoteChangedData:
		if err := p.db.SaveRateReceipt(p.ctx, data.Voter, data.Current); err != nil {
			log.WithError(err).Error("Could not persist rate receipt")
		}
	case *events.PoolVoteChangedData:
		if err := p.db.SavePoolReceipt(p.ctx, data.Voter, data.Current); err != nil {
			log.WithError(err).Error("Could not persist pool receipt")
		}
	case *events.PoolAddedData:
		if err := p.db.SavePools(p.ctx, p.pool.Pools()); err != nil {
			log.WithError(err).Error("Could not persist pool registry")
		}
	}
}

// Stop the persister. The run loop exits with the node context.
func (p *persister) Stop() error {
	return nil
}

// Status always returns nil. Failed writes are logged, not fatal.
func (p *persister) Status() error {
	return nil
}
