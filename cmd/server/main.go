package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentwallet/agentwallet/internal/api"
	"github.com/agentwallet/agentwallet/internal/app"
	"github.com/agentwallet/agentwallet/internal/config"
	"github.com/agentwallet/agentwallet/internal/eth"
	"github.com/agentwallet/agentwallet/internal/logger"
	"github.com/agentwallet/agentwallet/internal/middleware"
	"github.com/agentwallet/agentwallet/internal/sharecipher"
	"github.com/agentwallet/agentwallet/internal/storage"
	"github.com/agentwallet/agentwallet/internal/txbuilder"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	store, err := storage.New(cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	slog.Info("connected to database")

	cipher, err := sharecipher.New(&sharecipher.Config{
		Provider:        cfg.ShareCipherProvider,
		SecretHex:       cfg.ShareSecretHex,
		AWSKMSKeyID:     cfg.AWSKMSKeyID,
		AWSKMSRegion:    cfg.AWSKMSRegion,
		VaultAddress:    cfg.VaultAddress,
		VaultToken:      cfg.VaultToken,
		VaultTransitKey: cfg.VaultTransitKey,
	})
	if err != nil {
		slog.Error("failed to initialize share cipher", "error", err)
		os.Exit(1)
	}

	slog.Info("initialized share cipher", "backend", cipher.Provider())

	rpc, err := eth.NewClient(cfg.RPCURL)
	if err != nil {
		slog.Error("failed to connect to RPC endpoint", "error", err)
		os.Exit(1)
	}
	defer rpc.Close()

	// Deployment sanity check. Envelopes always carry the configured chain
	// ID regardless of what the endpoint reports at runtime.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := rpc.VerifyChainID(startupCtx, cfg.ChainID); err != nil {
		cancelStartup()
		slog.Error("chain ID verification failed", "error", err)
		os.Exit(1)
	}
	cancelStartup()

	slog.Info("verified RPC endpoint", "chain_id", cfg.ChainID)

	builder := txbuilder.NewBuilder(cfg.ChainID, cfg.TransferGasLimit, rpc)

	shareRepo := storage.NewKeyShareRepository(store)
	transferRepo := storage.NewTransferRepository(store)

	transferService := app.NewTransferService(shareRepo, cipher, builder, rpc, transferRepo)
	provisionService := app.NewProvisionService(storage.NewProvisionStore(store), cipher, cfg.ChainID)

	server := api.NewServer(cfg,
		transferService,
		provisionService,
		middleware.NewAppAuth(cfg.APISecretHash),
		middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.RateLimitEnabled),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		slog.Error("server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		slog.Info("received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("error during shutdown", "error", err)
			slog.Warn("forcing shutdown")
		}

		slog.Info("server stopped")
	}
}
