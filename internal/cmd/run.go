package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "modernc.org/sqlite"

	"github.com/striderun/strider/internal/db"
	"github.com/striderun/strider/internal/logging"
	"github.com/striderun/strider/internal/pipeline"
	"github.com/striderun/strider/internal/server"
	"github.com/striderun/strider/internal/workers"
)

// RuntimeConfig holds all runtime configuration from CLI flags
type RuntimeConfig struct {
	DBPath        string
	ListenAddr    string
	CacheSize     int
	Retention     time.Duration
	PruneInterval time.Duration
}

// Run is the main entry point for server mode
func Run(cfg *RuntimeConfig) error {
	log := logging.Logger

	log.Info().
		Str("db_path", cfg.DBPath).
		Str("addr", cfg.ListenAddr).
		Int("cache_size", cfg.CacheSize).
		Dur("retention", cfg.Retention).
		Dur("prune_interval", cfg.PruneInterval).
		Msg("starting strider")

	// Set up context for shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	// Open database with SQLite concurrency settings
	log.Info().Str("path", cfg.DBPath).Msg("opening database")
	sqlDB, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	if err := db.Configure(sqlDB); err != nil {
		return fmt.Errorf("configuring SQLite: %w", err)
	}

	if err := db.Migrate(ctx, sqlDB); err != nil {
		return err
	}

	queries := db.New(sqlDB)

	// Log database statistics
	workers.LogDatabaseStats(ctx, queries)

	analyzer, err := pipeline.NewAnalyzer(cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	// Start background workers with errgroup for graceful shutdown
	g, gCtx := errgroup.WithContext(ctx)

	pruner := workers.NewSessionPruner(queries, cfg.PruneInterval, cfg.Retention)
	g.Go(func() error {
		pruner.Run(gCtx)
		return nil
	})

	srv := server.New(analyzer, queries)
	serverErr := runHTTPServer(ctx, srv.Router(), cfg.ListenAddr)

	log.Info().Msg("waiting for workers to shut down")
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("worker error during shutdown")
	} else {
		log.Info().Msg("all workers shut down gracefully")
	}

	return serverErr
}

// runHTTPServer serves the API until the context is cancelled
func runHTTPServer(ctx context.Context, handler http.Handler, addr string) error {
	log := logging.Logger

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", addr).
			Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
