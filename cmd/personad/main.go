package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"personachain/config"
	"personachain/crypto"
	"personachain/native/fees"
	"personachain/native/identity"
	"personachain/native/pairing"
	"personachain/native/persona"
	"personachain/native/rewards"
	"personachain/native/treasury"
	"personachain/native/venue"
	"personachain/observability/logging"
	"personachain/observability/metrics"
	"personachain/rpc"
	"personachain/state"
	"personachain/storage"
)

// baseSupply is the circulating supply of the base asset used by the
// treasury's burn accounting.
var baseSupply = new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1e18))

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memoryFlag := flag.Bool("memory", false, "DEV ONLY: run against an in-memory database")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("PERSONA_ENV"))
	logger := logging.Setup(logging.Options{Service: "personad", Env: env})

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	var db storage.Database
	if *memoryFlag {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = leveldb
	}
	defer db.Close()

	manager := state.NewManager(db)

	custody, err := resolveAddress(cfg.CustodyAddress, [20]byte{0xc0})
	if err != nil {
		logger.Error("Invalid custody address", slog.Any("error", err))
		os.Exit(1)
	}
	treasuryAddr, err := resolveAddress(cfg.TreasuryAddress, [20]byte{0xc1})
	if err != nil {
		logger.Error("Invalid treasury address", slog.Any("error", err))
		os.Exit(1)
	}
	vault, err := resolveAddress(cfg.VaultAddress, [20]byte{0xc2})
	if err != nil {
		logger.Error("Invalid vault address", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Launchpad accounts resolved",
		logging.Addr("custody", crypto.MustNewAddress(crypto.PersonaPrefix, custody[:]).String()),
		logging.Addr("vault", crypto.MustNewAddress(crypto.PersonaPrefix, vault[:]).String()))

	identityRegistry := identity.NewRegistry()
	identityRegistry.SetState(manager)

	pairingRegistry := pairing.NewRegistry()
	pairingRegistry.SetState(manager)

	rewardRegistry := rewards.NewRegistry()
	rewardRegistry.SetState(manager)

	feeEngine, err := fees.NewEngine(fees.Config{FeeBps: cfg.FeeBps, CreatorShareBps: cfg.CreatorShareBps})
	if err != nil {
		logger.Error("Invalid fee configuration", slog.Any("error", err))
		os.Exit(1)
	}

	treasuryEngine := treasury.NewEngine(cfg.BaseAsset, baseSupply)
	treasuryEngine.SetState(manager)
	treasuryEngine.SetVault(vault)

	venueRegistry := venue.NewRegistry()
	venueRegistry.SetState(manager)

	launchpadEvents := &metrics.Collector{}

	ledger := persona.NewLedger()
	ledger.SetState(manager)
	ledger.SetEmitter(launchpadEvents)
	ledger.SetIdentity(identityRegistry)
	ledger.SetPairings(pairingRegistry)
	ledger.SetCustody(custody)
	ledger.SetProtocolTreasury(treasuryAddr)
	ledger.SetLockDuration(cfg.LockDurationSeconds)

	engine := persona.NewIssuanceEngine(ledger, feeEngine)
	engine.SetVenue(venueRegistry)
	engine.SetTreasury(treasuryEngine)
	engine.SetLoyaltyAsset(cfg.LoyaltyAsset)
	reserve, err := cfg.CurveReserveAmount()
	if err != nil {
		logger.Error("Invalid curve reserve", slog.Any("error", err))
		os.Exit(1)
	}
	if reserve != nil {
		engine.SetCurveReserve(reserve)
	}

	server := rpc.NewServer(ledger, engine, pairingRegistry, feeEngine, treasuryEngine, rewardRegistry, logger, cfg.RPCRateLimit)
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("RPC server listening", slog.String("address", cfg.RPCAddress), slog.String("network", cfg.NetworkName))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("RPC server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", slog.Any("error", err))
	}
}

func resolveAddress(value string, fallback [20]byte) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return [20]byte{}, err
	}
	return decoded.Bytes(), nil
}
