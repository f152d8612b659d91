package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/blinklabs-io/naiad/internal/config"
	"github.com/blinklabs-io/naiad/internal/logging"
	"github.com/blinklabs-io/naiad/internal/rpc"
	"github.com/blinklabs-io/naiad/internal/state"
	"github.com/blinklabs-io/naiad/internal/storage"
	"github.com/blinklabs-io/naiad/internal/version"

	_ "go.uber.org/automaxprocs"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	programName = "naiadd"
)

var cmdlineFlags struct {
	configFile string
	version    bool
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.BoolVar(&cmdlineFlags.version, "version", false, "show version")
	flag.Parse()

	if cmdlineFlags.version {
		fmt.Printf("%s %s\n", programName, version.GetVersionString())
		os.Exit(0)
	}

	// Load config
	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	// Configure logging
	logging.Configure()
	logger := logging.GetLogger()

	// Start debug listener
	if cfg.Debug.ListenPort > 0 {
		logger.Info(
			"starting debug listener",
			"address", cfg.Debug.ListenAddress,
			"port", cfg.Debug.ListenPort,
		)
		go func() {
			debugMux := http.NewServeMux()
			debugMux.Handle("/metrics", promhttp.Handler())
			err := http.ListenAndServe(
				fmt.Sprintf("%s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort),
				debugMux,
			)
			if err != nil {
				logger.Error("failed to start debug listener", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Open chain state storage
	store, err := storage.OpenBadger(cfg.Storage.Directory)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()
	view := state.NewView(store)

	// The block-ingest layer (external collaborator) drives the chain
	// pipeline; this process serves state queries
	server := rpc.NewServer(view, cfg)
	if err := server.Start(); err != nil {
		logger.Error("failed to start RPC listener", "error", err)
		os.Exit(1)
	}
}
