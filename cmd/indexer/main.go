package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/grantsync/indexer/pkg/chain"
	"github.com/grantsync/indexer/pkg/config"
	"github.com/grantsync/indexer/pkg/manifest"
	"github.com/grantsync/indexer/pkg/pgutil"
	"github.com/grantsync/indexer/pkg/processor"
	"github.com/grantsync/indexer/pkg/session"
	"github.com/grantsync/indexer/pkg/store"
	"github.com/grantsync/indexer/pkg/tailer"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
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

	logger.Info("Starting GrantSync Indexer")

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

	// Resolve the chain session before any event processing. A redeployed
	// chain produces a fresh session here rather than corrupting old data.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewManager(client, st, logger)
	sess, err := sessions.GetOrCreateSession(ctx, registry)
	if err != nil {
		logger.Fatal("Failed to resolve chain session", zap.Error(err))
	}

	proc := processor.New(st, sess, logger)
	tail := tailer.New(client, st, proc, registry, sess, cfg.Chain.PollInterval, logger)

	tailDone := make(chan error, 1)
	go func() {
		tailDone <- tail.Run(ctx)
	}()

	// Setup HTTP server for health and metrics
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint (liveness)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Readiness endpoint - returns 503 until the first tick completes
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !tail.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	// Metrics endpoint
	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled")
	}

	// Start HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, gracefully shutting down...")
	case err := <-tailDone:
		if err != nil && err != context.Canceled {
			logger.Error("Tail loop exited", zap.Error(err))
		}
	}

	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Indexer stopped")
}
