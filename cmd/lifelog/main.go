package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"lifelog/internal/amqp"
	"lifelog/internal/config"
	apphttp "lifelog/internal/http"
	applog "lifelog/internal/log"
	"lifelog/internal/services"
	"lifelog/internal/store"
	"lifelog/internal/store/memory"
	"lifelog/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Choose the event store backend.
	var (
		source store.EventSource
		repo   apphttp.Repository
	)
	switch cfg.DataBackend {
	case "sqlite":
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		source, repo = sqliteRepo, sqliteRepo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		// Memory backend is read-only: no repo, record routes answer 503.
		source = memory.New()
		logger.Info("Initialized memory backend")
	}

	// AMQP change bus is optional; failures degrade to single-instance mode.
	var bus *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		bus, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change notifications disabled", "error", err)
			bus = nil
		} else {
			defer bus.Close()
			logger.Info("Connected to AMQP change bus", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	summary := services.NewSummaryService(source, bus, services.SummaryConfig{
		CurrencyUnitID:  cfg.CurrencyUnitID,
		SubsetCacheSize: cfg.SubsetCacheSize,
		SubsetCacheTTL:  cfg.SubsetCacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm the snapshot so the first request already sees aggregates. A
	// failure here is not fatal: views stay empty until a refresh succeeds.
	warmCtx, warmCancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := summary.Refresh(warmCtx); err != nil {
		logger.Warn("Initial refresh failed, serving empty views", "error", err)
	}
	warmCancel()

	srv := apphttp.NewServer(":"+cfg.Port, summary, repo, cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting lifelog server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if bus != nil {
		g.Go(func() error {
			err := bus.Consume(gctx, func(msg *amqp.EventChangedMessage) {
				logger.Info("Received event change, refreshing", "event_id", msg.EventID, "op", msg.Op)
				refreshCtx, cancel := context.WithTimeout(gctx, cfg.RequestTimeout)
				defer cancel()
				if err := summary.Refresh(refreshCtx); err != nil {
					logger.Warn("Refresh after change message failed", "error", err)
				}
			})
			if err != nil && gctx.Err() == nil {
				logger.Error("Change consumer stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
