package main

import "gopkg.in/urfave/cli.v1"

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory of the signature database",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	noColorFlag = cli.BoolFlag{
		Name:  "nocolor",
		Usage: "Disable colored output",
	}
	abiFlag = cli.StringSliceFlag{
		Name:  "abi",
		Usage: "ABI json file (plain abi or compiler artifact) to decode with, can be repeated",
	}
	labelFlag = cli.StringSliceFlag{
		Name:  "label",
		Usage: "Address label in the form <address>:<label>, can be repeated",
	}
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "Number of decode workers",
	}
	noPrecompilesFlag = cli.BoolFlag{
		Name:  "noprecompiles",
		Usage: "Do not decode calls into precompiled contracts",
	}
	formatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "Output format: tree, dot, json, parity or geth",
		Value: "tree",
	}
	filterFlag = cli.StringFlag{
		Name:  "filter",
		Usage: "Only list the calls matching the expression, e.g. 'Kind == \"DELEGATECALL\" && !Success'",
	}
	gasFlag = cli.BoolFlag{
		Name:  "gas",
		Usage: "Show gas used by every call",
	}
	journalDirFlag = cli.StringFlag{
		Name:  "journal",
		Usage: "Directory of the call trace journal",
	}
	saveFlag = cli.BoolFlag{
		Name:  "save",
		Usage: "Append the decoded trace to the journal",
	}
	overrideFlag = cli.BoolFlag{
		Name:  "override",
		Usage: "Replace stored signatures instead of merging",
	}
	rpcFlag = cli.StringFlag{
		Name:  "rpc",
		Usage: "JSON-RPC endpoint of the chain data provider",
	}
	blockFlag = cli.Int64Flag{
		Name:  "block",
		Usage: "Block number to query, latest if negative",
		Value: -1,
	}
	slotFlag = cli.StringSliceFlag{
		Name:  "slot",
		Usage: "Storage slot to read, can be repeated",
	}
)
