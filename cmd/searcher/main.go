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

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	corpusDir := flag.String("corpus", "", "corpus directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpusDir != "" {
		cfg.Indexer.CorpusDir = *corpusDir
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"corpus_dir", cfg.Indexer.CorpusDir,
	)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	engine, err := indexer.New(ctx, cfg.Indexer, indexer.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	report := engine.Report()
	if !report.Available {
		slog.Warn("index is empty, every query will return no results", "reason", report.Reason)
	}

	var redisClient *pkgredis.Client
	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			store := cache.NewBreakerStore(redisClient, resilience.CircuitBreakerConfig{
				FailureThreshold: cfg.Redis.BreakerThreshold,
				ResetTimeout:     cfg.Redis.BreakerReset,
				OnStateChange: func(_, to resilience.State) {
					if to == resilience.StateOpen {
						m.CacheBreakerOpen.Set(1)
					} else {
						m.CacheBreakerOpen.Set(0)
					}
				},
			})
			queryCache = cache.New(store, cfg.Redis.CacheTTL, m)
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		indexProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		event := analytics.IndexEvent{
			BuildID:       report.BuildID,
			CorpusDir:     report.CorpusDir,
			Available:     report.Available,
			FilesIndexed:  report.FilesIndexed,
			FilesSkipped:  report.FilesSkipped,
			Tokens:        report.Tokens,
			DistinctWords: report.DistinctWords,
			DurationMs:    report.DurationMs,
		}
		publishCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := resilience.Retry(publishCtx, "publish-index-event",
			resilience.RetryConfig{MaxAttempts: cfg.Kafka.PublishAttempts, InitialDelay: 500 * time.Millisecond},
			func(ctx context.Context) error {
				return analytics.PublishIndexEvent(ctx, indexProducer, event)
			})
		cancel()
		if err != nil {
			slog.Warn("failed to publish index event", "error", err)
		}
		if err := indexProducer.Close(); err != nil {
			slog.Warn("closing index event producer", "error", err)
		}

		queryProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer queryProducer.Close()
		collector = analytics.NewCollector(queryProducer, 10000)
		collector.Start(ctx)
		defer collector.Close()
	}

	checker := health.NewChecker(2 * time.Second)
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if err := engine.Unavailable(); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		r := engine.Report()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d distinct words", r.FilesIndexed, r.DistinctWords),
		}
	})
	checker.RegisterOptional("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusUp, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(engine, queryCache, collector, m, cfg.Search.MaxOccurrences)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	limiter := ratelimit.New(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RateLimit(limiter)(chain)
	chain = middleware.CORS(cfg.CORS)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, registry)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return shutdownMetrics(shutdownCtx)
		})
	}
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
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
	return g.Wait()
}
