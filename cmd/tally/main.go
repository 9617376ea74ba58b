package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tally/internal/amqp"
	"tally/internal/backend"
	"tally/internal/classifier"
	"tally/internal/config"
	apphttp "tally/internal/http"
	"tally/internal/log"
	"tally/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logger := log.Setup(cfg.LogLevel)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize the data backend
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil && cfg.FallbackToLocal && backendCfg.Type != backend.LocalBackend {
		logger.Warn("Data backend unavailable, falling back to local ledger",
			"backend", cfg.DataBackend,
			"file", cfg.LocalFile,
			"error", err)
		result, err = factory.CreateBackend(context.Background(), backend.Config{
			Type:      backend.LocalBackend,
			LocalFile: cfg.LocalFile,
		})
	}
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

	// Initialize AMQP publisher for ledger events (optional)
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("Event publishing disabled - no RABBITMQ_URL provided")
	}

	// Initialize receipt classifier (optional)
	var receiptClassifier apphttp.ReceiptClassifier
	if cfg.OpenAIAPIKey != "" {
		receiptClassifier = classifier.New(classifier.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.ClassifierTimeout,
		})
		logger.Info("Receipt classifier enabled", "model", cfg.OpenAIModel)
	} else {
		logger.Info("Receipt classifier disabled - no OPENAI_API_KEY provided")
	}

	service := services.NewTransactionService(result.Backend, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, service, receiptClassifier, result.Backend)

	// Configure server timeouts
	srv.ReadTimeout = cfg.HTTPReadTimeout
	srv.WriteTimeout = cfg.HTTPWriteTimeout

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tally server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
