/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the walkops server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load YAML config
  2. Initialize logging
  3. Open the store (sqlite or memory)
  4. Build the billing engine and API handler
  5. Start the reconciliation scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file path (optional; defaults apply without it)
  -port    HTTP server port override
  -db      SQLite database path override
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/walkops.db"

  # Run with config file
  ./server -config=./walkops.yaml

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - config/config.go: Configuration loading
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pawsteps/walkops/api"
	"github.com/pawsteps/walkops/billing"
	"github.com/pawsteps/walkops/config"
	"github.com/pawsteps/walkops/logger"
	"github.com/pawsteps/walkops/store/memory"
	"github.com/pawsteps/walkops/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "YAML config file path")
	port := flag.Int("port", 0, "HTTP server port override")
	dbPath := flag.String("db", "", "SQLite database path override")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Store.Backend = "sqlite"
		cfg.Store.Path = *dbPath
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	// Store
	var store billing.Store
	var closeStore func() error
	switch cfg.Store.Backend {
	case "memory":
		store = memory.New()
		closeStore = func() error { return nil }
	default:
		s, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			logger.Error("failed to initialize database", "path", cfg.Store.Path, "error", err)
			os.Exit(1)
		}
		store = s
		closeStore = s.Close
	}
	defer closeStore()

	// Engine and API
	engine := billing.NewEngine(store)
	handler := api.NewHandler(engine)
	router := api.NewRouter(handler)

	// Reconciliation scheduler
	var sched *api.SweepScheduler
	if cfg.Scheduler.Enabled {
		sched = api.NewSweepScheduler(engine, cfg.Scheduler.Spec)
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", "spec", cfg.Scheduler.Spec, "error", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr, "store", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if sched != nil {
		sched.Stop()
	}

	logger.Info("server stopped")
}
