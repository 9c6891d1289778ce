// Package main defines the governance daemon. It serves the interest rate
// ballot, the pool weight ballot and the fund relative weight controller
// over HTTP, backed by a locked balance ledger and per-fund oracles.
package main

import (
	"fmt"
	"os"
	"runtime"

	joonix "github.com/joonix/log"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/stratafi/governance/cmd/governd/flags"
	"github.com/stratafi/governance/node"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	flags.VerbosityFlag,
	flags.LogFormatFlag,
	flags.DataDirFlag,
	flags.ClearDBFlag,
	flags.MinimalConfigFlag,
	flags.HTTPHostFlag,
	flags.HTTPPortFlag,
	flags.MonitoringAddrFlag,
	flags.LockLedgerEndpointFlag,
	flags.FundOracleFlag,
	flags.RegistrarFlag,
}

func startNode(cliCtx *cli.Context) error {
	verbosity := cliCtx.String(flags.VerbosityFlag.Name)
	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	n, err := node.New(cliCtx)
	if err != nil {
		return err
	}
	n.Start()
	return nil
}

func main() {
	app := cli.App{}
	app.Name = "governd"
	app.Usage = "launches a governance engine serving decaying vote weight ballots and fund weight checkpoints"
	app.Flags = appFlags
	app.Action = startNode
	app.Before = func(ctx *cli.Context) error {
		format := ctx.String(flags.LogFormatFlag.Name)
		switch format {
		case "text":
			formatter := new(prefixed.TextFormatter)
			formatter.TimestampFormat = "2006-01-02 15:04:05"
			formatter.FullTimestamp = true
			logrus.SetFormatter(formatter)
		case "fluentd":
			logrus.SetFormatter(joonix.NewFormatter())
		case "json":
			logrus.SetFormatter(&logrus.JSONFormatter{})
		default:
			return fmt.Errorf("unknown log format %s", format)
		}

		runtime.GOMAXPROCS(runtime.NumCPU())
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
