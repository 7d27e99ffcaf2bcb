/**
 * Land-record OCR Worker - Main Entry Point
 *
 * Go worker that turns scanned Tamil/English land records into structured
 * field records.
 *
 * Architecture:
 * - Asynq consumer for the Redis-backed job queue
 * - Pipeline: rasterize -> normalize -> recognize (Tesseract) -> aggregate -> extract
 * - Redis result hashes, status sets and job events for pollers
 * - PostgreSQL (or a local SQLite file) persistence for extraction records
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adverant/nexus/landrecord-worker/internal/config"
	"github.com/adverant/nexus/landrecord-worker/internal/logging"
	"github.com/adverant/nexus/landrecord-worker/internal/processor"
	"github.com/adverant/nexus/landrecord-worker/internal/queue"
	"github.com/adverant/nexus/landrecord-worker/internal/storage"
)

func main() {
	logger := logging.NewLogger("worker")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("Land-record worker starting...")
	logger.Info("Configuration loaded", "redis", cfg.RedisURL, "queue", cfg.QueueName,
		"workers", cfg.WorkerConcurrency, "languages", cfg.Languages, "dpi", cfg.RasterDPI)

	// Initialize pipeline
	proc, err := processor.NewFromConfig(cfg, logging.NewLogger("processor"))
	if err != nil {
		logger.Error("Failed to initialize pipeline", "error", err)
		os.Exit(1)
	}
	logger.Info("Pipeline initialized")

	handlerCfg := &queue.HandlerConfig{
		Runner:            proc,
		ProcessingTimeout: int64(cfg.ProcessingTimeout),
		Logger:            logging.NewLogger("queue"),
	}

	// Initialize record storage (PostgreSQL preferred, SQLite for single-host runs)
	var records storage.RecordStore
	var pg *storage.PostgresStore
	switch {
	case cfg.DatabaseURL != "":
		logger.Info("Connecting to PostgreSQL...")
		pg, err = storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to initialize PostgreSQL store", "error", err)
			os.Exit(1)
		}
		records = pg
		handlerCfg.Jobs = pg
	case cfg.SQLitePath != "":
		logger.Info("Opening SQLite store...", "path", cfg.SQLitePath)
		lite, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			logger.Error("Failed to initialize SQLite store", "error", err)
			os.Exit(1)
		}
		records = lite
	default:
		logger.Warn("No DATABASE_URL or SQLITE_PATH set, extraction records will not be persisted")
	}
	if records != nil {
		defer records.Close()
		handlerCfg.Records = records
	}

	// Initialize Redis result store
	results, err := queue.NewResultStore(cfg.RedisURL, cfg.QueueName)
	if err != nil {
		logger.Error("Failed to initialize result store", "error", err)
		os.Exit(1)
	}
	defer results.Close()
	handlerCfg.Tracker = results

	handler, err := queue.NewHandler(handlerCfg)
	if err != nil {
		logger.Error("Failed to initialize task handler", "error", err)
		os.Exit(1)
	}

	// Initialize queue consumer
	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:    cfg.RedisURL,
		QueueName:   cfg.QueueName,
		Concurrency: cfg.WorkerConcurrency,
		Handler:     handler,
		Logger:      logging.NewLogger("asynq"),
	})
	if err != nil {
		logger.Error("Failed to initialize queue consumer", "error", err)
		os.Exit(1)
	}

	if err := consumer.Start(); err != nil {
		logger.Error("Failed to start queue consumer", "error", err)
		os.Exit(1)
	}

	logger.Info("Land-record worker is READY", "queue", cfg.QueueName, "task", queue.TaskTypeExtract)
	logger.Info("Waiting for jobs...")

	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	if cfg.HealthInterval > 0 {
		health := &queue.HealthReporter{
			Consumer: consumer,
			Results:  results,
			Logger:   logging.NewLogger("health"),
		}
		if pg != nil {
			health.Database = pg
		}
		go health.Run(healthCtx, time.Duration(cfg.HealthInterval)*time.Second)
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal, initiating graceful shutdown...", "signal", sig.String())

	stopHealth()
	consumer.Stop()

	logger.Info("Shutdown complete")
}
