package main

import "github.com/urfave/cli/v2"

var (
	rpcURLFlag = &cli.StringFlag{
		Name:    "rpc-url",
		Usage:   "ledger RPC node endpoint",
		Value:   "http://127.0.0.1:8899",
		EnvVars: []string{"GAMES_RPC_URL"},
	}
	programIDFlag = &cli.StringFlag{
		Name:    "program-id",
		Usage:   "games program address (base58)",
		EnvVars: []string{"GAMES_PROGRAM_ID"},
	}
	authorityFlag = &cli.StringFlag{
		Name:    "authority",
		Usage:   "configuration authority address (base58)",
		EnvVars: []string{"GAMES_AUTHORITY"},
	}
	systemAuthorityFlag = &cli.StringFlag{
		Name:    "system-authority",
		Usage:   "system authority address (base58)",
		EnvVars: []string{"GAMES_SYSTEM_AUTHORITY"},
	}
	keypairFlag = &cli.StringFlag{
		Name:    "keypair",
		Usage:   "path to the authority keypair file (JSON byte array)",
		EnvVars: []string{"GAMES_KEYPAIR"},
	}
	bundlrNodeFlag = &cli.StringFlag{
		Name:    "bundlr-node",
		Usage:   "content store node endpoint",
		Value:   "https://node1.bundlr.network",
		EnvVars: []string{"GAMES_BUNDLR_NODE"},
	}
	gatewayFlag = &cli.StringFlag{
		Name:    "gateway",
		Usage:   "content gateway endpoint",
		Value:   "https://arweave.net",
		EnvVars: []string{"GAMES_GATEWAY"},
	}
	oracleURLFlag = &cli.StringFlag{
		Name:    "oracle-url",
		Usage:   "USD price endpoint (display only)",
		Value:   "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd",
		EnvVars: []string{"GAMES_ORACLE_URL"},
	}
	dataDirFlag = &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "directory for the local draft database",
		Value:   ".gamesctl",
		EnvVars: []string{"GAMES_DATA_DIR"},
	}
	domainFlag = &cli.StringFlag{
		Name:    "domain",
		Usage:   "host the deployment is served from",
		EnvVars: []string{"GAMES_DOMAIN"},
	}
	operatorFlag = &cli.StringSliceFlag{
		Name:    "operator",
		Usage:   "additional key allowed to operate on the configuration, repeatable",
		EnvVars: []string{"GAMES_OPERATORS"},
	}
	noHTTPSFlag = &cli.BoolFlag{
		Name:  "no-https",
		Usage: "deployment is served over plain http",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level (debug, info, warn, error)",
		Value: "info",
	}
	logFileFlag = &cli.StringFlag{
		Name:    "log-file",
		Usage:   "also append logs to this file",
		EnvVars: []string{"GAMES_LOG_FILE"},
	}
)

// appFlags are the global flags shared by every command.
var appFlags = []cli.Flag{
	rpcURLFlag,
	programIDFlag,
	authorityFlag,
	systemAuthorityFlag,
	keypairFlag,
	bundlrNodeFlag,
	gatewayFlag,
	oracleURLFlag,
	dataDirFlag,
	operatorFlag,
	domainFlag,
	noHTTPSFlag,
	verbosityFlag,
	logFileFlag,
}
