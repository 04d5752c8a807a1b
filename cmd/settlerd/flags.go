// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path of the yaml config file, defaults apply when empty",
		EnvVar: "SETTLERD_CONFIG",
	}
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Usage:  "directory of the leveldb store, the config storage path when empty, in memory when both are empty",
		EnvVar: "SETTLERD_DATA_DIR",
	}
	erasFlag = cli.UintFlag{
		Name:  "eras",
		Value: 10,
		Usage: "number of eras to simulate",
	}
	validatorsFlag = cli.IntFlag{
		Name:  "validators",
		Value: 8,
		Usage: "size of the simulated committee",
	}
	offenceRateFlag = cli.Float64Flag{
		Name:  "offence-rate",
		Value: 0.01,
		Usage: "probability of an equivocation per block",
	}
	offlineRateFlag = cli.Float64Flag{
		Name:  "offline-rate",
		Value: 0.05,
		Usage: "probability of a validator being offline for a session",
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "seed of the simulation",
	}
	apiAddrFlag = cli.StringFlag{
		Name:   "api-addr",
		Usage:  "address of the read only http api, disabled when empty",
		EnvVar: "SETTLERD_API_ADDR",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Usage: "comma separated list of domains from which to accept cross origin requests to the api",
	}
	progressFlag = cli.BoolFlag{
		Name:  "progress",
		Usage: "show a progress bar of the simulated eras",
	}
	keepServingFlag = cli.BoolFlag{
		Name:  "keep-serving",
		Usage: "keep the api running after the simulation ends",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:   "enable-metrics",
		Usage:  "enables metrics collection, served at /metrics of the api",
		EnvVar: "SETTLERD_ENABLE_METRICS",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Value: "info",
		Usage: "log level (trace|debug|info|warn|error)",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log-format",
		Value: "auto",
		Usage: "log format (auto|json|logfmt), auto picks logfmt on a terminal",
	}
)
