package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/proposer"
	"github.com/askdb/askdb/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv("askdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	engine, err := store.Open(context.Background(), cfg.Store)
	if err != nil {
		logger.Error("failed to open data store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	service := &pipeline.Service{
		Schema:       engine,
		Executor:     engine,
		Logger:       logger,
		RowLimit:     cfg.Store.RowLimit,
		QueryTimeout: cfg.Store.QueryTimeout,
	}
	if cfg.AI.Enabled {
		client, err := proposer.NewOpenAIClient(proposer.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			PlotModel:   cfg.AI.PlotModel,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize intent proposer", slog.Any("error", err))
			os.Exit(1)
		}
		service.Proposer = client
		service.Plotter = client
	}

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:            logger,
		Service:           service,
		Readiness:         api.CombineReadinessChecks(engine.HealthCheck),
		DependencyTimeout: time.Second,
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("store_driver", string(cfg.Store.Driver)),
			slog.Bool("ai_enabled", cfg.AI.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
