package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneypal/internal/amqp"
	"moneypal/internal/auth"
	"moneypal/internal/config"
	apphttp "moneypal/internal/http"
	"moneypal/internal/log"
	"moneypal/internal/services"
	"moneypal/internal/storage"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.New(log.Config{
		Component: log.ComponentAPI,
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// AMQP is optional: without it transactions stay PENDING and the
	// worker's startup sweep picks them up later.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to connect to AMQP, continuing without events", "error", err)
		} else {
			defer events.Close()
			logger.Info("AMQP event pipeline connected", "exchange", cfg.AMQPExchange)
		}
	}

	tokens := auth.NewTokenProvider(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	server := apphttp.NewServer(
		auth.NewService(store, tokens, logger.WithComponent(log.ComponentAuth)),
		tokens,
		services.NewTransactionService(store, events),
		services.NewCategoryService(store),
		services.NewBucketService(store, events),
		services.NewDashboardService(store),
		logger.WithComponent(log.ComponentHTTP),
	)

	srv := apphttp.NewHTTPServer(":"+cfg.Port, server.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("starting moneypal server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
