// Package flags defines the command line flags accepted by governd.
package flags

import "github.com/urfave/cli/v2"

var (
	// VerbosityFlag defines the logrus logging level.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error, fatal, panic)",
		Value: "info",
	}
	// LogFormatFlag specifies the log output encoding.
	LogFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Specify log formatting. Supports: text, json, fluentd",
		Value: "text",
	}
	// DataDirFlag defines the directory holding the governance database.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the governance database",
		Value: "governancedata",
	}
	// ClearDBFlag drops the stored database before starting.
	ClearDBFlag = &cli.BoolFlag{
		Name:  "clear-db",
		Usage: "Removes any previously stored data at the data directory",
	}
	// MinimalConfigFlag switches to the shortened interop parameters.
	MinimalConfigFlag = &cli.BoolFlag{
		Name:  "minimal-config",
		Usage: "Uses minimal governance parameters, for local interop runs",
	}
	// HTTPHostFlag defines the host for the governance HTTP API.
	HTTPHostFlag = &cli.StringFlag{
		Name:  "http-host",
		Usage: "Host on which the governance HTTP API listens",
		Value: "127.0.0.1",
	}
	// HTTPPortFlag defines the port for the governance HTTP API.
	HTTPPortFlag = &cli.StringFlag{
		Name:  "http-port",
		Usage: "Port on which the governance HTTP API listens",
		Value: "8547",
	}
	// MonitoringAddrFlag defines the address of the prometheus endpoint.
	MonitoringAddrFlag = &cli.StringFlag{
		Name:  "monitoring-address",
		Usage: "Address on which prometheus metrics are served",
		Value: "127.0.0.1:8081",
	}
	// LockLedgerEndpointFlag points at the locked balance ledger API.
	LockLedgerEndpointFlag = &cli.StringFlag{
		Name:  "lock-ledger-endpoint",
		Usage: "HTTP endpoint of the locked balance ledger",
		Value: "http://127.0.0.1:9650",
	}
	// FundOracleFlag registers a fund and its oracle endpoint. Repeatable.
	FundOracleFlag = &cli.StringSliceFlag{
		Name:  "fund-oracle",
		Usage: "Fund oracle as <fund-address>=<endpoint>. Repeat per fund",
	}
	// RegistrarFlag names the only account allowed to add pools.
	RegistrarFlag = &cli.StringFlag{
		Name:  "registrar",
		Usage: "Address allowed to grow the pool registry",
	}
)
