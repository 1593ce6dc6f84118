package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/storm-sounding-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-sounding-service/internal/adapter/kafka"
	"github.com/couchcryptid/storm-sounding-service/internal/adapter/netcdf"
	"github.com/couchcryptid/storm-sounding-service/internal/config"
	"github.com/couchcryptid/storm-sounding-service/internal/observability"
	"github.com/couchcryptid/storm-sounding-service/internal/pipeline"
	"github.com/couchcryptid/storm-sounding-service/internal/sounding"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	snapshot := sounding.NewSnapshot()
	notifier := kafkaadapter.NewNotificationWriter(cfg, logger)
	dispatcher := sounding.NewDispatcher(sounding.Fanout{snapshot, notifier}, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	p := pipeline.New(reader, pipeline.NewTransformer(logger), pipeline.NewDispatchLoader(dispatcher), logger, metrics, cfg.BatchSize)

	api := httpadapter.NewRouter(httpadapter.NewHandler(dispatcher, snapshot), cfg.CORSAllowedOrigins, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, dispatcher, api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Seed the dispatcher from a model grid file (optional via GRID_FILE).
	if cfg.Grid.File != "" {
		go func() {
			grid, err := netcdf.NewLoader(cfg.Grid, logger).Load(cfg.Grid.File)
			if err != nil {
				logger.Error("grid load failed", "file", cfg.Grid.File, "error", err)
				return
			}
			if err := dispatcher.SetData(grid); err != nil {
				logger.Error("grid rejected", "file", cfg.Grid.File, "error", err)
				return
			}
			logger.Info("grid loaded", "file", cfg.Grid.File, "times", len(grid.Times))
		}()
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start sounding pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := notifier.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
