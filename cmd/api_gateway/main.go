package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/rice-supply-chain-api/internal/api_gateway"
	"github.com/rice-supply-chain-api/internal/api_gateway/outbox_dispatcher"
	"github.com/rice-supply-chain-api/internal/api_gateway/service"
	"github.com/rice-supply-chain-api/internal/app"
	"github.com/rice-supply-chain-api/internal/config"
	"github.com/rice-supply-chain-api/internal/data/file"
	"github.com/rice-supply-chain-api/internal/data/mongo"
	"github.com/rice-supply-chain-api/internal/data/postgres"
	"github.com/rice-supply-chain-api/internal/domain/outbox"
	"github.com/rice-supply-chain-api/internal/domain/record"
	"github.com/rice-supply-chain-api/internal/identity"
	"github.com/rice-supply-chain-api/internal/logger"
	"github.com/rice-supply-chain-api/internal/platform/blockchain"
	"github.com/rice-supply-chain-api/internal/platform/messaging/producers"
	"github.com/rice-supply-chain-api/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)
	log.Info("Starting API gateway",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"store_backend", cfg.Store.Backend,
	)

	// Databases are only opened when a component needs them
	var postgresDB *persistence.PostgresDB
	if cfg.Store.Backend == config.StoreBackendPostgres {
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Error("Failed to initialize PostgreSQL", "error", err)
			os.Exit(1)
		}
	}

	var mongoDB *persistence.MongoDB
	if cfg.Store.Backend == config.StoreBackendMongo || cfg.History.Enabled {
		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}
	}

	snapshots, err := newSnapshotRepository(appCtx, log, cfg, postgresDB, mongoDB)
	if err != nil {
		log.Error("Failed to initialize snapshot repository", "error", err)
		os.Exit(1)
	}

	// Restore the record stores
	registry := app.NewRegistry(log, snapshots)
	registry.Restore(appCtx)

	// Outbox notifiers
	var notifiers []outbox.Notifier
	var balanceMonitor *blockchain.BalanceMonitor
	if cfg.Solana.Enabled {
		wallet, err := blockchain.LoadWallet(log, afero.NewOsFs(), cfg.Solana.WalletPrivateKey)
		if err != nil {
			log.Error("Failed to initialize Solana wallet", "error", err)
			os.Exit(1)
		}

		rpcClient := blockchain.NewClient(cfg.Solana.RPCURL, cfg.Solana.Commitment, log)
		anchorer := blockchain.NewAnchorer(rpcClient, wallet, cfg.Solana.ProofLamports, log)
		notifiers = append(notifiers, outbox_dispatcher.NewAnchorNotifier(anchorer, registry, log))

		balanceMonitor = blockchain.NewBalanceMonitor(rpcClient, wallet.PublicKey(), cfg.Solana.ProofLamports, log)
		if balance, err := balanceMonitor.Check(appCtx); err != nil {
			log.Warn("Initial wallet balance check failed, proofs may not be sent", "error", err)
		} else if wallet.Generated() && balance == 0 {
			log.Warn("Generated wallet has no funds, airdrop to it before proofs can be sent", "public_key", wallet.PublicKey())
		}
		if err := balanceMonitor.Start(cfg.Solana.BalanceCheckSchedule); err != nil {
			log.Error("Failed to schedule wallet balance checks", "error", err)
			os.Exit(1)
		}
	}

	var eventProducer *producers.RecordEventProducer
	if cfg.Kafka.Enabled {
		eventProducer, err = producers.NewRecordEventProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize record event producer", "error", err)
			os.Exit(1)
		}
		notifiers = append(notifiers, outbox_dispatcher.NewEventNotifier(eventProducer))
	}

	dispatcher, err := outbox_dispatcher.NewDispatcher(&cfg.Outbox, cfg.WorkerPool.Size, log, notifiers...)
	if err != nil {
		log.Error("Failed to create outbox dispatcher", "error", err)
		os.Exit(1)
	}
	dispatcher.Start(appCtx)
	log.Info("Outbox dispatcher started", "notifiers", len(notifiers))

	// Initialize services
	recordServices := registry.RecordServices(identity.NewGenerator(), dispatcher, log)

	var historyService service.HistoryService
	if cfg.History.Enabled {
		historyService = service.NewHistoryService(mongo.NewTraceRepository(log, mongoDB.Database()))
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, recordServices, historyService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests first so no new events are queued
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error("Error draining outbox", "error", err)
	}

	// Cancel the application context
	cancelAppCtx()

	if balanceMonitor != nil {
		balanceMonitor.Stop(shutdownCtx)
	}

	if eventProducer != nil {
		if err = eventProducer.Close(); err != nil {
			log.Error("Error closing Kafka producer", "error", err)
		}
	}

	if postgresDB != nil {
		postgresDB.Close()
	}

	if mongoDB != nil {
		if err = mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}

// newSnapshotRepository selects where record collections are persisted. The memory
// backend returns nil and the stores never write.
func newSnapshotRepository(
	ctx context.Context,
	log *slog.Logger,
	cfg *config.Config,
	postgresDB *persistence.PostgresDB,
	mongoDB *persistence.MongoDB,
) (record.SnapshotRepository, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		log.Warn("Memory store backend selected, records are lost on restart")
		return nil, nil
	case config.StoreBackendFile:
		return file.OpenSnapshots(log, afero.NewOsFs(), cfg.Store.DataDir), nil
	case config.StoreBackendPostgres:
		return postgres.NewSnapshotRepository(log, postgresDB), nil
	case config.StoreBackendMongo:
		repo := mongo.NewSnapshotRepository(log, mongoDB.Database())
		if err := mongoDB.EnsureIndexes(ctx, repo); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
