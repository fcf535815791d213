// Command analytics starts the standalone analytics aggregation service.
//
// It consumes search and index-build events from Kafka, aggregates them in
// memory (query volume, latency percentiles, cache hit rate, zero-result
// queries, top queries), snapshots the aggregate to PostgreSQL when it is
// reachable, and serves GET /api/v1/analytics and
// GET /api/v1/analytics/snapshots.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/postgres"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := analytics.NewAggregator()
	checker := health.NewChecker()

	var store *aggregator.Store
	var saved <-chan struct{}
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, snapshots disabled", "error", err)
	} else {
		defer db.Close()
		if err := aggregator.Migrate(ctx, db); err != nil {
			slog.Error("failed to migrate analytics schema", "error", err)
			os.Exit(1)
		}
		store = aggregator.NewStore(db)
		latest, err := store.LatestSnapshot(ctx)
		switch {
		case err != nil:
			slog.Warn("could not load latest snapshot", "error", err)
		case latest != nil:
			agg.Restore(*latest)
			slog.Info("restored analytics from snapshot", "total_searches", latest.TotalSearches)
		}
		saved = store.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
		checker.Register("postgres", health.Ping(db.Ping, true))
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, agg.Handler())
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
	})

	var snapshots analytics.SnapshotLister
	if store != nil {
		snapshots = store
	}
	h := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", h.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("analytics consumer started", "topic", cfg.Kafka.Topics.AnalyticsEvents)
		return consumer.Start(gctx)
	})
	g.Go(func() error {
		slog.Info("analytics service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("analytics service error", "error", err)
	}
	stop()
	if saved != nil {
		<-saved
	}
	slog.Info("analytics service stopped")
}
