// Package main is the entry point for the Eva API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eva-wellness/eva/internal/config"
	"github.com/eva-wellness/eva/internal/gateway"
	"github.com/eva-wellness/eva/internal/handler"
	"github.com/eva-wellness/eva/internal/llm"
	natsclient "github.com/eva-wellness/eva/internal/nats"
	"github.com/eva-wellness/eva/internal/service"
	"github.com/eva-wellness/eva/internal/store"
	"github.com/eva-wellness/eva/pkg/logger"
	"github.com/eva-wellness/eva/pkg/tracing"
)

func main() {
	// Load configuration. A missing credential stops the process here.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting API server", zap.String("provider", string(cfg.LLMProvider)))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "eva-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer func() { _ = tracing.Shutdown(ctx, tp) }()
		}
	}

	// Initialize completion gateway
	llmClient, err := llm.NewClient(cfg.LLMProvider, cfg.APIKey(), cfg.LLMOptions())
	if err != nil {
		log.Fatal("failed to create completion client", zap.Error(err))
	}
	gw := gateway.New(llmClient, cfg.Policy(), cfg.CompletionTimeout, log)

	// Initialize services
	broker := service.NewBroker()
	defer broker.Close()

	svcOpts := []service.Option{service.WithBroker(broker)}
	routerCfg := handler.RouterConfig{
		Completer:         gw,
		Registry:          store.NewRegistry(),
		Broker:            broker,
		Logger:            log,
		AllowedOrigins:    cfg.AllowedOrigins,
		JWTSecret:         cfg.JWTSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}

	// Connect to NATS when the event journal is configured
	if cfg.NATSURL != "" {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		journal := natsclient.NewJournal(natsClient)
		if err := journal.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		svcOpts = append(svcOpts, service.WithJournal(journal))
		routerCfg.Journal = journal
	} else {
		log.Info("NATS_URL not set, chat event journal disabled")
	}

	routerCfg.ChatService = service.NewChatService(gw, log, svcOpts...)
	defer routerCfg.ChatService.Close()

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewRouter(routerCfg),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// SSE streams end when the broker closes their channels.
	broker.Close()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
