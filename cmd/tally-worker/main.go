package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/backend"
	"tally/internal/config"
	"tally/internal/log"
	"tally/internal/sheets"
	gsheet "tally/internal/sheets/google"
	mem "tally/internal/sheets/memory"
	"tally/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logger := log.Setup(cfg.LogLevel)

	logger.Info("Starting tally-worker")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker exists to drain the event queue; without a broker there
	// is nothing to consume.
	if cfg.AMQPURL == "" {
		logger.Error("RABBITMQ_URL is required for the export worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the data backend the server writes to
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// Choose the export destination
	var sheet sheets.Sheet
	switch cfg.ExportBackend {
	case "sheets":
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sheet = client
		logger.Info("Exporting to Google Sheets",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.SheetName)
	default:
		sheet = mem.New()
		logger.Info("Exporting to in-memory sheet", "backend", cfg.ExportBackend)
	}

	// Initialize AMQP client for consuming events
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(result.Backend, result.Backend, sheet)

	// Consume loop and reconcile ticker run until a signal or the first
	// hard failure cancels the group.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeTransactionEvents(gctx, func(event *amqp.TransactionEvent) error {
			return exportWorker.HandleEvent(gctx, event)
		})
	})

	g.Go(func() error {
		return exportWorker.RunReconcileLoop(gctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
