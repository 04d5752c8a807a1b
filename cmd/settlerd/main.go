// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// settlerd drives the settlement engine through simulated eras and serves its read only state.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/settlement/bridge"
	"github.com/vechain/settlement/config"
	"github.com/vechain/settlement/engine"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/metrics"
)

var (
	version   string
	gitCommit string
)

func main() {
	app := cli.App{
		Version: fmt.Sprintf("%s-%s", version, gitCommit),
		Name:    "settlerd",
		Usage:   "era accounting and settlement simulator",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			erasFlag,
			validatorsFlag,
			offenceRateFlag,
			offlineRateFlag,
			seedFlag,
			apiAddrFlag,
			apiCorsFlag,
			keepServingFlag,
			progressFlag,
			enableMetricsFlag,
			verbosityFlag,
			logFormatFlag,
		},
		Action: run,
		Commands: []cli.Command{
			{
				Name:   "default-config",
				Usage:  "print the default config",
				Action: printDefaultConfig,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	}
	return 0, errors.Errorf("unknown log level %q", s)
}

func initLogger(ctx *cli.Context) error {
	level, err := parseLevel(ctx.String(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "-verbosity")
	}
	var logfmt bool
	switch format := ctx.String(logFormatFlag.Name); format {
	case "auto":
		logfmt = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	case "logfmt":
		logfmt = true
	case "json":
	default:
		return errors.Errorf("-log-format: unknown format %q", format)
	}
	log.SetDefault(log.NewLogger(log.NewHandler(os.Stderr, logfmt, level)))
	return nil
}

func printDefaultConfig(*cli.Context) error {
	return config.Default().Encode(os.Stdout)
}

func openStore(ctx *cli.Context, cfg *config.Config) (kv.StoreCloser, error) {
	dir := ctx.String(dataDirFlag.Name)
	if dir == "" {
		dir = cfg.Storage.Path
	}
	if dir == "" {
		log.Info("using in memory store")
		return kv.NewMem(), nil
	}
	store, err := kv.Open(dir, kv.Options{CacheSizeMB: cfg.Storage.CacheMB})
	if err != nil {
		return nil, errors.Wrapf(err, "open store [%v]", dir)
	}
	log.Info("store opened", "dir", dir)
	return store, nil
}

func run(ctx *cli.Context) error {
	if err := initLogger(ctx); err != nil {
		return err
	}
	cfg, err := config.LoadFile(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sim, err := newSimulator(db, cfg, simulationOptions{
		Validators:  ctx.Int(validatorsFlag.Name),
		OffenceRate: ctx.Float64(offenceRateFlag.Name),
		OfflineRate: ctx.Float64(offlineRateFlag.Name),
		Seed:        ctx.Uint64(seedFlag.Name),
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)

	eras := uint32(ctx.Uint(erasFlag.Name))
	keepServing := ctx.Bool(keepServingFlag.Name)
	apiAddr := ctx.String(apiAddrFlag.Name)

	if apiAddr != "" {
		srv, url, err := startAPI(apiAddr, ctx.String(apiCorsFlag.Name), sim)
		if err != nil {
			return err
		}
		log.Info("api started", "url", url)
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	if ctx.Bool(progressFlag.Name) {
		bar := pb.New64(int64(eras)).SetMaxWidth(90).Start()
		sim.onEraDone = func() { bar.Add64(1) }
		defer bar.Finish()
	}

	g.Go(func() error {
		if err := sim.Run(gctx, eras); err != nil {
			return err
		}
		sim.LogSummary()
		if apiAddr != "" && keepServing {
			<-gctx.Done()
		}
		return errSimulationDone
	})

	if err := g.Wait(); err != nil && err != errSimulationDone {
		return err
	}
	return nil
}

var errSimulationDone = errors.New("simulation done")

// newEngine creates the engine with an outbox bridge sharing its store.
func newEngine(db kv.Store, cfg *config.Config, validators *validatorSet) (*engine.Engine, *bridge.Outbox, error) {
	outbox := bridge.NewOutbox(kv.Bucket("outbox/").NewStore(db), bridge.Config{
		MaxMessageSize: cfg.Bridge.MaxMessageSize,
		BaseFee:        cfg.Bridge.BaseFee,
		FeePerByte:     cfg.Bridge.FeePerByte,
		FeeBudget:      cfg.Bridge.FeeBudget,
	})
	e, err := engine.New(db, engine.Config{
		Params:     cfg,
		Validators: validators,
		Sender:     outbox,
	})
	if err != nil {
		return nil, nil, err
	}
	return e, outbox, nil
}
