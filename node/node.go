// Package node defines the governance node. It assembles the database, the
// two ballots, the relative weight controller and the outward HTTP services,
// and handles the lifecycle of the entire system through a service registry.
package node

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/stratafi/governance/cmd/governd/flags"
	"github.com/stratafi/governance/config/params"
	"github.com/stratafi/governance/db"
	"github.com/stratafi/governance/monitoring/prometheus"
	"github.com/stratafi/governance/oracle/fundoracle"
	"github.com/stratafi/governance/oracle/lockledger"
	"github.com/stratafi/governance/rpc"
	"github.com/stratafi/governance/runtime"
	"github.com/stratafi/governance/voting/poolballot"
	"github.com/stratafi/governance/voting/rateballot"
	"github.com/stratafi/governance/voting/relweight"
)

var log = logrus.WithField("prefix", "node")

// GovernanceNode handles the services running the governance engine. It
// registers every required service and waits for termination signals.
type GovernanceNode struct {
	cliCtx     *cli.Context
	ctx        context.Context
	cancel     context.CancelFunc
	lock       sync.RWMutex
	services   *runtime.ServiceRegistry
	stop       chan struct{}
	db         db.Database
	registrar  common.Address
	rateBallot *rateballot.Ballot
	poolBallot *poolballot.Ballot
	controller *relweight.Controller
}

// New creates a new node instance, sets up configuration options, and
// registers every required service.
func New(cliCtx *cli.Context) (*GovernanceNode, error) {
	if cliCtx.Bool(flags.MinimalConfigFlag.Name) {
		log.WithField("config", "minimal").Info("Using custom governance parameters")
		params.OverrideGovConfig(params.MinimalConfig())
	}

	ctx, cancel := context.WithCancel(cliCtx.Context)
	n := &GovernanceNode{
		cliCtx:   cliCtx,
		ctx:      ctx,
		cancel:   cancel,
		services: runtime.NewServiceRegistry(),
		stop:     make(chan struct{}),
	}

	registrar := cliCtx.String(flags.RegistrarFlag.Name)
	if registrar != "" {
		if !common.IsHexAddress(registrar) {
			cancel()
			return nil, errors.Errorf("malformed registrar address %q", registrar)
		}
		n.registrar = common.HexToAddress(registrar)
	}

	for _, f := range []func() error{
		n.startDB,
		n.startBallots,
		n.startController,
		n.registerPersister,
		n.registerRPCService,
		n.registerPrometheusService,
	} {
		if err := f(); err != nil {
			cancel()
			return nil, err
		}
	}
	return n, nil
}

func (n *GovernanceNode) startDB() error {
	dataDir := n.cliCtx.String(flags.DataDirFlag.Name)
	d, err := db.NewDB(dataDir)
	if err != nil {
		return err
	}
	if n.cliCtx.Bool(flags.ClearDBFlag.Name) {
		log.Warning("Removing database")
		if err := d.Close(); err != nil {
			return err
		}
		if err := d.ClearDB(); err != nil {
			return err
		}
		if d, err = db.NewDB(dataDir); err != nil {
			return err
		}
	}
	log.WithField("path", dataDir).Info("Checking database")
	n.db = d
	return nil
}

// startBallots builds the two ballots against the lock ledger and replays
// any receipts stored from a previous run.
func (n *GovernanceNode) startBallots() error {
	source := lockledger.New(n.cliCtx.String(flags.LockLedgerEndpointFlag.Name))

	rb, err := rateballot.NewBallot(n.ctx, source)
	if err != nil {
		return errors.Wrap(err, "could not initialize rate ballot")
	}
	rateReceipts, err := n.db.RateReceipts(n.ctx)
	if err != nil {
		return err
	}
	if err := rb.Restore(rateReceipts); err != nil {
		return errors.Wrap(err, "could not restore rate ballot")
	}

	pb, err := poolballot.NewBallot(n.ctx, source, n.registrar)
	if err != nil {
		return errors.Wrap(err, "could not initialize pool ballot")
	}
	pools, err := n.db.Pools(n.ctx)
	if err != nil {
		return err
	}
	poolReceipts, err := n.db.PoolReceipts(n.ctx)
	if err != nil {
		return err
	}
	if err := pb.Restore(pools, poolReceipts); err != nil {
		return errors.Wrap(err, "could not restore pool ballot")
	}

	log.WithFields(logrus.Fields{
		"rateReceipts": len(rateReceipts),
		"pools":        len(pools),
		"poolReceipts": len(poolReceipts),
	}).Info("Restored ballots")
	n.rateBallot = rb
	n.poolBallot = pb
	return nil
}

// startController wires one fund oracle client per --fund-oracle flag into
// the relative weight controller, backed by the node's checkpoint store.
func (n *GovernanceNode) startController() error {
	c := relweight.NewController(n.db)
	for _, pair := range n.cliCtx.StringSlice(flags.FundOracleFlag.Name) {
		addr, endpoint, found := strings.Cut(pair, "=")
		if !found || !common.IsHexAddress(addr) {
			return errors.Errorf("malformed fund oracle %q, expected <address>=<endpoint>", pair)
		}
		fund := common.HexToAddress(addr)
		if err := c.AddFund(fund, fundoracle.New(endpoint)); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"fund":     fund.Hex(),
			"endpoint": endpoint,
		}).Info("Registered fund oracle")
	}
	n.controller = c
	return nil
}

func (n *GovernanceNode) registerPersister() error {
	return n.services.RegisterService(newPersister(n.ctx, n.db, n.rateBallot, n.poolBallot))
}

func (n *GovernanceNode) registerRPCService() error {
	return n.services.RegisterService(rpc.NewService(&rpc.Config{
		Host:       n.cliCtx.String(flags.HTTPHostFlag.Name),
		Port:       n.cliCtx.String(flags.HTTPPortFlag.Name),
		RateBallot: n.rateBallot,
		PoolBallot: n.poolBallot,
		Controller: n.controller,
		Registrar:  n.registrar,
	}))
}

func (n *GovernanceNode) registerPrometheusService() error {
	return n.services.RegisterService(prometheus.NewService(
		n.cliCtx.String(flags.MonitoringAddrFlag.Name),
		n.services,
	))
}

// Start the governance node and kick off every registered service.
func (n *GovernanceNode) Start() {
	n.lock.Lock()
	n.services.StartAll()
	n.lock.Unlock()

	stop := n.stop
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the governance node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (n *GovernanceNode) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	log.Info("Stopping governance node")
	n.services.StopAll()
	if err := n.db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}
	n.cancel()
	close(n.stop)
}
