// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/blinklabs-io/btckit/internal/config"
	"github.com/blinklabs-io/btckit/internal/indexer"
	"github.com/blinklabs-io/btckit/internal/logging"
	"github.com/blinklabs-io/btckit/internal/metrics"
	"github.com/blinklabs-io/btckit/internal/state"
	"github.com/blinklabs-io/btckit/internal/version"
)

var cmdlineFlags struct {
	configFile string
	importFile string
	verify     bool
}

func main() {
	flag.StringVar(
		&cmdlineFlags.configFile,
		"config",
		"",
		"path to config file to load",
	)
	flag.StringVar(
		&cmdlineFlags.importFile,
		"import",
		"",
		"path to file of hex-encoded headers to import",
	)
	flag.BoolVar(
		&cmdlineFlags.verify,
		"verify",
		false,
		"re-validate all stored headers",
	)
	flag.Parse()

	// Load config
	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	// Configure logging
	logging.Setup()
	logger := logging.GetLogger()
	// Sync logger on exit
	defer func() {
		if err := logger.Sync(); err != nil {
			// We don't actually care about the error here, but we have to do something
			// to appease the linter
			return
		}
	}()

	logger.Info(
		fmt.Sprintf("btckit %s started", version.GetVersionString()),
	)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	// Load state
	if err := state.GetState().Load(); err != nil {
		logger.Fatalf("failed to load state: %s", err)
	}
	defer func() {
		if err := state.GetState().Close(); err != nil {
			logger.Errorf("failed to close state: %s", err)
		}
	}()

	// Start debug listener
	if cfg.Debug.ListenPort > 0 {
		logger.Infof(
			"starting debug listener on %s:%d",
			cfg.Debug.ListenAddress,
			cfg.Debug.ListenPort,
		)
		go func() {
			err := http.ListenAndServe( // nolint:gosec
				fmt.Sprintf(
					"%s:%d",
					cfg.Debug.ListenAddress,
					cfg.Debug.ListenPort,
				),
				nil,
			)
			if err != nil {
				logger.Fatalf("failed to start debug listener: %s", err)
			}
		}()
	}

	// Start metrics listener
	if cfg.Metrics.ListenPort > 0 {
		logger.Infof(
			"starting metrics listener on %s:%d",
			cfg.Metrics.ListenAddress,
			cfg.Metrics.ListenPort,
		)
		go func() {
			err := metrics.GetMetrics().Start(
				cfg.Metrics.ListenAddress,
				cfg.Metrics.ListenPort,
			)
			if err != nil {
				logger.Fatalf("failed to start metrics listener: %s", err)
			}
		}()
	}

	network := cfg.SelectedNetwork()
	idx, err := indexer.New(state.GetState(), network, metrics.GetMetrics())
	if err != nil {
		logger.Fatalf("failed to create indexer: %s", err)
	}
	profile, _ := cfg.SelectedProfile()
	if err := idx.Bootstrap(profile); err != nil {
		logger.Fatalf("failed to bootstrap checkpoint: %s", err)
	}
	tipHeight, tip, err := state.GetState().Tip()
	if err != nil {
		logger.Fatalf("failed to read chain tip: %s", err)
	}
	logger.Infof(
		"using network %s with tip %s at height %d",
		network.Name,
		tip.Hash(),
		tipHeight,
	)

	// Import headers
	importFile := cfg.Import.File
	if cmdlineFlags.importFile != "" {
		importFile = cmdlineFlags.importFile
	}
	if importFile != "" {
		if _, err := idx.ImportFile(ctx, importFile); err != nil {
			logger.Fatalf("import failed: %s", err)
		}
	}

	// Verify stored chain
	if cmdlineFlags.verify {
		if err := idx.Verify(ctx, cfg.Import.VerifyWorkers); err != nil {
			logger.Fatalf("verification failed: %s", err)
		}
	}

	// Keep serving metrics until interrupted
	if cfg.Metrics.ListenPort > 0 {
		<-ctx.Done()
	}
}
