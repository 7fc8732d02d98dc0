package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/grantsync/indexer/pkg/backfill"
	"github.com/grantsync/indexer/pkg/chain"
	"github.com/grantsync/indexer/pkg/config"
	"github.com/grantsync/indexer/pkg/manifest"
	"github.com/grantsync/indexer/pkg/pgutil"
	"github.com/grantsync/indexer/pkg/processor"
	"github.com/grantsync/indexer/pkg/session"
	"github.com/grantsync/indexer/pkg/store"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	fromBlock  = flag.Uint64("from", 0, "First block of the backfill range (inclusive)")
	toBlock    = flag.Uint64("to", 0, "Last block of the backfill range (inclusive)")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *toBlock < *fromBlock {
		logger.Fatal("Invalid range",
			zap.Uint64("from", *fromBlock),
			zap.Uint64("to", *toBlock))
	}

	logger.Info("Starting GrantSync backfill",
		zap.Uint64("from", *fromBlock),
		zap.Uint64("to", *toBlock))

	// Initialize database
	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	st := store.NewStore(db)

	// Load contract manifest
	man, err := manifest.Load(cfg.Chain.ManifestPath)
	if err != nil {
		logger.Fatal("Failed to load contract manifest", zap.Error(err))
	}
	registry, err := man.RegistryContract()
	if err != nil {
		logger.Fatal("Failed to resolve registry contract", zap.Error(err))
	}

	// Initialize chain client
	client, err := chain.NewClient(&cfg.Chain, logger)
	if err != nil {
		logger.Fatal("Failed to initialize chain client", zap.Error(err))
	}
	defer client.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The backfill writes through the same session and idempotent processing
	// path as the tailer, so overlapping ranges are harmless.
	sessions := session.NewManager(client, st, logger)
	sess, err := sessions.GetOrCreateSession(ctx, registry)
	if err != nil {
		logger.Fatal("Failed to resolve chain session", zap.Error(err))
	}

	proc := processor.New(st, sess, logger)
	worker := backfill.NewWorker(client, proc, registry, cfg.Chain.ChunkSize, logger)

	report, err := worker.Run(ctx, *fromBlock, *toBlock)
	if err != nil {
		logger.Fatal("Backfill aborted", zap.Error(err))
	}

	if report.Failed() {
		for _, chunk := range report.FailedChunks {
			logger.Error("Chunk incomplete",
				zap.Uint64("from", chunk.Range.From),
				zap.Uint64("to", chunk.Range.To),
				zap.Error(chunk.Err))
		}
		logger.Error("Backfill finished with failed chunks",
			zap.Int("failed_chunks", len(report.FailedChunks)))
		os.Exit(1)
	}

	logger.Info("Backfill complete",
		zap.Int("applied", report.Applied),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("inconsistent", report.Inconsistent),
		zap.Int("skipped", report.Skipped))
}
