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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/dock-health-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/dock-health-etl/internal/adapter/feed"
	"github.com/couchcryptid/dock-health-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/dock-health-etl/internal/adapter/kafka"
	"github.com/couchcryptid/dock-health-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/dock-health-etl/internal/config"
	"github.com/couchcryptid/dock-health-etl/internal/observability"
	"github.com/couchcryptid/dock-health-etl/internal/pipeline"
	"github.com/couchcryptid/dock-health-etl/internal/report"
)

// historyStore is the persistent table: written by the pipeline, read by /history.
type historyStore interface {
	pipeline.Loader
	report.HistoryReader
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", "dock-health-etl")
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("job failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	client := feed.NewClient(cfg.FeedURL, cfg.FetchTimeout, metrics, logger)

	var store historyStore
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLitePath, cfg.TargetClass, metrics, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}()
		store = db
		logger.Info("history store", "backend", cfg.StoreBackend, "path", cfg.SQLitePath)
	default:
		store = csvstore.New(cfg.OutputPath, cfg.TargetClass, metrics, logger)
		logger.Info("history store", "backend", cfg.StoreBackend, "path", cfg.OutputPath)
	}

	loaders := []pipeline.Loader{store}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("summary publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSummaryTopic)
	}

	transformer := pipeline.NewTransformer(cfg.TargetClass, logger)
	p := pipeline.New(client, transformer, loaders, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, store, cfg.TargetColumn(), logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	logger.Info("job starting",
		"feed_url", cfg.FeedURL,
		"class", cfg.TargetClass,
		"iterations", cfg.Iterations,
	)
	runErr := p.Run(ctx, cfg.Iterations)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if cfg.PushgatewayURL != "" {
		if err := observability.PushMetrics(shutdownCtx, cfg.PushgatewayURL, cfg.PushgatewayJob, prometheus.DefaultGatherer); err != nil {
			logger.Error("metrics push failed", "error", err)
		}
	}

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("job complete")
	return nil
}
