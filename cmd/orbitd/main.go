// Package main provides the orbitd daemon - the Orbit wallet session core.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/events"
	"github.com/orbit-wallet/orbitd/internal/flags"
	"github.com/orbit-wallet/orbitd/internal/registry"
	"github.com/orbit-wallet/orbitd/internal/rpc"
	"github.com/orbit-wallet/orbitd/internal/session"
	"github.com/orbit-wallet/orbitd/internal/storage"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/internal/wallet/sim"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	// Parse flags
	var (
		dataDir     = flag.String("data-dir", "~/.orbit", "Data directory")
		apiAddr     = flag.String("api", "", "Status API address, overrides config")
		testnet     = flag.Bool("testnet", false, "Run on testnet (separate network and data)")
		seedFile    = flag.String("seed-file", "", "File holding a seed phrase; starts a session on boot")
		xpub        = flag.String("xpub", "", "Extended public key for a watch-only session on boot")
		pin         = flag.String("pin", "", "PIN for the boot session")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	// Set up logging (initial, may be overridden by config)
	log := logging.New(&logging.Config{
		Level:      *logLevel,
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("orbitd %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	// Determine data directory (testnet uses subdirectory)
	effectiveDataDir := *dataDir
	if *testnet {
		effectiveDataDir = filepath.Join(*dataDir, "testnet")
	}

	cfg, err := config.LoadConfig(effectiveDataDir)
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Apply CLI overrides (CLI flags take precedence over config file)
	cfg.Logging.Level = *logLevel
	cfg.Storage.DataDir = effectiveDataDir
	if *apiAddr != "" {
		cfg.API.Addr = *apiAddr
	}
	if *testnet {
		cfg.NetworkType = config.NetworkTestnet
	} else {
		cfg.NetworkType = config.NetworkMainnet
	}

	// Update logging with config level
	log = logging.New(&logging.Config{
		Level:      cfg.Logging.Level,
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	log.Info("Config loaded", "path", config.ConfigPath(effectiveDataDir))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	dataPath := config.ExpandPath(cfg.Storage.DataDir)
	store, err := storage.New(&storage.Config{
		DataDir: dataPath,
	})
	if err != nil {
		log.Fatal("Failed to initialize storage", "error", err)
	}
	defer store.Close()
	log.Info("Storage initialized", "path", dataPath)

	// Event bus connects the session core, the token workers and the API feed
	bus := events.NewBus()
	state := session.NewState()

	// Feature flags watch flags.yaml next to the config
	flagProvider, err := flags.NewFileProvider(dataPath, store)
	if err != nil {
		log.Fatal("Failed to initialize feature flags", "error", err)
	}
	defer flagProvider.Close()
	log.Info("Feature flags initialized", "path", filepath.Join(dataPath, flags.FlagsFileName))

	// Token registry: fetches go through the bus to whichever worker owns the
	// token's data
	reg := registry.NewMemoryRegistry(func(ctx context.Context, tokenID string) error {
		bus.Publish(events.TokenFetchBalanceRequested, events.TokenFetch{TokenID: tokenID, Forced: true})
		bus.Publish(events.TokenFetchHistoryRequested, events.TokenFetch{TokenID: tokenID, Forced: true})
		return nil
	})

	// Metadata worker answers detached metadata requests from the token loader
	metaWorker := registry.NewMetadataWorker(bus, registry.MetadataSourceFunc(
		func(ctx context.Context, tokenID string) (wallet.TokenMetadata, error) {
			return wallet.TokenMetadata{}, nil
		}))
	go metaWorker.Run(ctx)

	// Wallet backends. The simulated factory stands in until a production
	// backend is linked; both kinds resolve through it.
	factory := sim.NewFactory()
	factory.Configs[wallet.KindLocal] = sim.Config{
		Network: cfg.NetworkName(),
	}
	factory.Configs[wallet.KindRemoteService] = sim.Config{
		Network: cfg.NetworkName(),
	}
	log.Info("Wallet backends initialized", "network", cfg.NetworkName(),
		"service_url", cfg.ServiceBaseURL())

	// Session orchestrator
	orchestrator := session.NewOrchestrator(&session.OrchestratorConfig{
		Bus:      bus,
		State:    state,
		Store:    store,
		Flags:    flagProvider,
		Registry: reg,
		Factory:  factory,
		Config:   cfg,
	})
	go orchestrator.Run(ctx)
	log.Info("Session orchestrator started")

	// Status API
	rpcServer := rpc.NewServer(bus, state)
	if err := rpcServer.Start(cfg.API.Addr); err != nil {
		log.Fatal("Failed to start status server", "error", err)
	}

	printBanner(log, cfg, version)

	// Boot session from CLI credentials, if provided
	if *seedFile != "" || *xpub != "" {
		creds, err := bootCredentials(*seedFile, *xpub, *pin)
		if err != nil {
			log.Fatal("Invalid boot credentials", "error", err)
		}
		bus.Publish(events.StartWalletRequested, &events.StartRequest{Credentials: creds})
		log.Info("Boot session requested")
	} else {
		log.Info("No boot credentials, waiting for a start request")
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	log.Info("Shutting down...")

	// Graceful shutdown: cancel the session core first so listeners drain,
	// then stop the API
	cancel()

	if err := rpcServer.Stop(); err != nil {
		log.Error("Error stopping status server", "error", err)
	}

	log.Info("Goodbye!")
}

// bootCredentials builds start credentials from the CLI flags.
func bootCredentials(seedFile, xpub, pin string) (*wallet.Credentials, error) {
	creds := &wallet.Credentials{
		XPub: xpub,
		PIN:  pin,
	}

	if seedFile != "" {
		data, err := os.ReadFile(seedFile)
		if err != nil {
			return nil, err
		}
		creds.SeedPhrase = strings.TrimSpace(string(data))
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

func printBanner(log *logging.Logger, cfg *config.Config, version string) {
	networkLabel := "mainnet"
	if cfg.IsTestnet() {
		networkLabel = "TESTNET"
	}

	log.Info("")
	log.Info("=================================================")
	log.Infof("  Orbit Wallet Daemon (%s)", networkLabel)
	log.Infof("  Version: %s", version)
	log.Info("=================================================")
	log.Info("")
	log.Infof("  API: http://%s", cfg.API.Addr)
	log.Infof("  WS:  ws://%s/ws", cfg.API.Addr)
	log.Info("")
	log.Infof("  Network: %s", cfg.NetworkName())
	log.Infof("  Data dir: %s", config.ExpandPath(cfg.Storage.DataDir))
	log.Info("")
	log.Info("=================================================")
	log.Info("")
}
