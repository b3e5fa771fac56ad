// Command ampd runs the annual modulation prediction service: it consumes
// prediction requests from Kafka, evaluates them against the density-dependent
// phase transition model, and publishes tagged prediction events to the sink
// topic. An HTTP server exposes health, readiness, metrics, and on-demand
// prediction endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/haloscope/amp-service/internal/adapter/http"
	kafkaadapter "github.com/haloscope/amp-service/internal/adapter/kafka"
	"github.com/haloscope/amp-service/internal/config"
	"github.com/haloscope/amp-service/internal/domain"
	"github.com/haloscope/amp-service/internal/observability"
	"github.com/haloscope/amp-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	predictor := domain.NewPredictor(cfg.ModelParams())
	logger.Info("model configured",
		"peak_day", cfg.PeakDayOfYear,
		"width_days", cfg.FilamentWidthDays,
		"enhancement", cfg.DensityEnhancement,
		"critical_density", cfg.CriticalDensity,
		"steepness", cfg.TransitionSteepness,
		"target_year", cfg.TargetYear,
		"locale", cfg.MessageLocale,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(predictor, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, predictor, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start prediction pipeline.
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
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
