// Command essayd serves the essay browser API.
//
// It loads the essay corpus (files, HTTP, PostgreSQL or SQLite), builds the
// TF-IDF index, and answers filtered, searched and sorted essay list
// requests. Results are cached in Redis when enabled, and search events are
// published to Kafka for the analytics service. SIGHUP or
// POST /api/v1/index/rebuild reloads the corpus without a restart.
//
// Usage:
//
//	go run ./cmd/essayd [-config configs/development.yaml]
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
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/tracing"
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
	slog.Info("starting essay browser", "port", cfg.Server.Port, "corpus_source", cfg.Corpus.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	src, closeSource, err := corpus.OpenSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to open corpus source", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	checker := health.NewChecker()

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer,
			cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval, m)
		collector.Start(context.Background())
		slog.Info("analytics collector enabled", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}

	builderOpts := []indexer.Option{
		indexer.WithMetrics(m),
		indexer.WithEngineOptions(engine.WithTitleWeight(cfg.Search.TitleWeight)),
	}
	if collector != nil {
		builderOpts = append(builderOpts, indexer.WithTracker(collector))
	}
	builder := indexer.NewBuilder(src, cfg.Corpus.Source, cfg.Corpus.LoadTimeout, builderOpts...)
	checker.Register("index", health.Ready(builder.Ready))

	if _, err := builder.Rebuild(ctx); err != nil {
		slog.Error("initial index build failed, retrying in background", "error", err)
		go retryBuild(ctx, builder)
	}

	queryCache := cache.New(nil, 0)
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
			checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
			})
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
				OnStateChange: func(name string, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, cache.WithBreaker(breaker), cache.WithMetrics(m))
			checker.Register("redis", health.Ping(redisClient.Ping, true))
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	handlerOpts := []handler.Option{
		handler.WithCache(queryCache),
		handler.WithMetrics(m),
		handler.WithTracer(tracing.NewTracer(cfg.Tracing.Enabled, cfg.Tracing.SampleRate)),
	}
	if collector != nil {
		handlerOpts = append(handlerOpts, handler.WithTracker(collector))
	}
	adminKeys, err := apikey.NewValidator(cfg.Server.AdminKeyHashes)
	if err != nil {
		slog.Error("invalid admin key configuration", "error", err)
		os.Exit(1)
	}
	if adminKeys.Enabled() {
		handlerOpts = append(handlerOpts, handler.WithAdminGuard(middleware.RequireKey(
			middleware.KeyValidatorFunc(func(r *http.Request, key string) error {
				return adminKeys.Validate(r.Context(), key)
			}))))
	} else {
		slog.Warn("no admin keys configured, rebuild and cache invalidation are open")
	}
	h := handler.New(builder, cfg.Search.DefaultLimit, cfg.Search.MaxResults, handlerOpts...)

	go rebuildOnHangup(ctx, builder, queryCache)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Server.CORSOrigins
	limiter := ratelimit.New(ctx, time.Minute)

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.RateLimit(limiter, cfg.Server.RateLimit)(chain)
	chain = middleware.CORS(cors)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("essay browser listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	if collector != nil {
		collector.Close()
	}
	slog.Info("essay browser stopped")
}

// retryBuild keeps trying the first build until it succeeds or ctx ends.
func retryBuild(ctx context.Context, builder *indexer.Builder) {
	err := resilience.Retry(ctx, "initial index build", resilience.RetryConfig{
		MaxAttempts:  1 << 20,
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
	}, func() error {
		_, err := builder.Rebuild(ctx)
		return err
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("index build abandoned", "error", err)
	}
}

func rebuildOnHangup(ctx context.Context, builder *indexer.Builder, c *cache.QueryCache) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			slog.Info("SIGHUP received, rebuilding index")
			if _, err := builder.Rebuild(ctx); err != nil {
				slog.Error("index rebuild failed", "error", err)
				continue
			}
			if _, err := c.Invalidate(ctx); err != nil {
				slog.Warn("cache invalidation after rebuild failed", "error", err)
			}
		}
	}
}
