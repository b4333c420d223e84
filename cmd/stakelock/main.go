// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakelock/stakelock/api"
	"github.com/stakelock/stakelock/api/admin"
	"github.com/stakelock/stakelock/builtin"
	"github.com/stakelock/stakelock/health"
	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/logdb"
	"github.com/stakelock/stakelock/lvldb"
	"github.com/stakelock/stakelock/metrics"
	"github.com/stakelock/stakelock/oracle"
	"github.com/stakelock/stakelock/runtime"
	"github.com/stakelock/stakelock/stakelock"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "Stakelock",
		Usage:   "Time-locked staking ledger",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			devFlag,
			persistFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			pprofFlag,
			oracleRPCFlag,
			oracleAddressFlag,
			cacheFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			disableNTPFlag,
		},
		Action: action,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func action(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	dev := ctx.Bool(devFlag.Name)

	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	params, err := cfg.stakerParams()
	if err != nil {
		return err
	}
	gen, err := cfg.genesis()
	if err != nil {
		return err
	}
	if dev {
		gen = devGenesis(gen)
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	var (
		mainDB  *lvldb.LevelDB
		logDB   *logdb.LogDB
		dataDir = "Memory"
	)
	if dev && !ctx.Bool(persistFlag.Name) {
		if mainDB, err = lvldb.NewMem(); err != nil {
			return err
		}
		if logDB, err = logdb.NewMem(); err != nil {
			return err
		}
	} else {
		if dataDir, err = makeDataDir(ctx); err != nil {
			return err
		}
		if mainDB, err = openMainDB(ctx, dataDir); err != nil {
			return err
		}
		if logDB, err = openLogDB(dataDir); err != nil {
			return err
		}
	}
	defer func() { logger.Info("closing state database..."); mainDB.Close() }()
	defer func() { logger.Info("closing event database..."); logDB.Close() }()

	exitCtx := handleExitSignal()

	var (
		feed     oracle.Feed
		mock     *oracle.MockAggregator
		feedAddr stakelock.Address
		feedDesc string
	)
	rpc := ctx.String(oracleRPCFlag.Name)
	if rpc == "" {
		rpc = cfg.Oracle.RPC
	}
	if rpc != "" || !dev {
		addr := ctx.String(oracleAddressFlag.Name)
		if addr == "" {
			addr = cfg.Oracle.Address
		}
		if rpc == "" || !common.IsHexAddress(addr) {
			return errors.Errorf("a price feed is required, set -%s and -%s", oracleRPCFlag.Name, oracleAddressFlag.Name)
		}
		chainlink, err := oracle.DialChainlinkFeed(exitCtx, rpc, common.HexToAddress(addr))
		if err != nil {
			return err
		}
		defer chainlink.Close()
		feed, feedAddr = chainlink, stakelock.Address(chainlink.Address())
		feedDesc = rpc + " " + feedAddr.String()
	} else {
		answer, err := cfg.mockAnswer()
		if err != nil {
			return err
		}
		mock = oracle.NewMockAggregator(cfg.Oracle.Mock.Decimals, answer, uint64(time.Now().Unix()))
		feed, feedAddr = mock, stakelock.OracleAddress
		feedDesc = "mock " + answer.String()
	}
	adapter := oracle.NewAdapter(feed, feedAddr, cfg.Oracle.PriceFreshness)

	rt, err := runtime.New(mainDB, logDB, &builtin.StakerDeps{Params: params, Oracle: adapter}, 4096)
	if err != nil {
		return err
	}
	if _, err := rt.Initialize(gen); err != nil {
		return err
	}

	ledgerHealth := health.New(adapter, rt.Now)
	rt.OnCommit(func(r *runtime.Receipt) { ledgerHealth.NewCall(r.Seq, r.UnwrittenEvents) })

	var apiLogs atomic.Bool
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	handler := api.New(rt, logDB, mock, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      &apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		DevMode:              dev,
	})

	g, gctx := errgroup.WithContext(exitCtx)
	apiURL, err := serve(gctx, g, "api", ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		url, err := serve(gctx, g, "metrics", ctx.String(metricsAddrFlag.Name), metricsHandler())
		if err != nil {
			return err
		}
		logger.Info("metrics server started", "url", url+"/metrics")
	}
	if ctx.Bool(enableAdminFlag.Name) {
		url, err := serve(gctx, g, "admin", ctx.String(adminAddrFlag.Name), admin.New(logLevel, &apiLogs, ledgerHealth))
		if err != nil {
			return err
		}
		logger.Info("admin server started", "url", url+"/admin")
	}
	if !ctx.Bool(disableNTPFlag.Name) {
		g.Go(func() error { return runClockCheck(gctx, time.Duration(cfg.Oracle.PriceFreshness)*time.Second/10) })
	}

	printStartupMessage(os.Stdout, dataDir, apiURL+"/", dev, feedDesc)
	return g.Wait()
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
