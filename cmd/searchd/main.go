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

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/execution"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/consumer"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/service"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
)

const cacheCallTimeout = 50 * time.Millisecond

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("search server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := execution.ParseMode(cfg.Engine.DefaultMode)
	if err != nil {
		return fmt.Errorf("engine.defaultMode: %w", err)
	}
	engine, err := indexer.NewEngine(cfg.Engine.StopWords, cfg.Engine)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	slog.Info("starting search server",
		"port", cfg.Server.Port,
		"stop_words", len(engine.StopWords()),
		"default_mode", mode.String(),
	)

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var (
		queryCache  *cache.QueryCache
		redisClient *pkgredis.Client
	)
	if cfg.Search.CacheEnabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis, 5*time.Second)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(cache.Guard(redisClient, cacheCallTimeout), cfg.Redis.CacheTTL)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	svc := service.New(engine, service.Options{
		Cache:            queryCache,
		Metrics:          m,
		WindowSize:       cfg.Search.RequestWindow,
		BatchConcurrency: cfg.Search.BatchConcurrency,
		DefaultMode:      mode,
	})

	if cfg.Postgres.Enabled {
		if err := bootstrap(ctx, cfg.Postgres, svc); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	handler.New(svc, cfg.Search.PageSize).Register(mux)

	checker := health.NewChecker()
	checker.Register("index_engine", health.PingCheck(svc.Ping, health.StatusDown))
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		return health.PingCheck(redisClient.Ping, health.StatusDegraded)(ctx)
	})

	if cfg.Kafka.Enabled {
		topic := cfg.Kafka.Topics.DocumentEvents
		producer := kafka.NewProducer(cfg.Kafka, topic)
		defer producer.Close()
		ingesthandler.New(publisher.New(producer)).Register(mux)

		events := kafka.NewConsumer(cfg.Kafka, topic, consumer.HandleMessage(svc, m))
		defer events.Close()
		go func() {
			if err := events.Start(ctx); err != nil {
				slog.Error("document event consumer error", "error", err)
			}
		}()
		slog.Info("document event consumer started", "topic", topic, "group", cfg.Kafka.ConsumerGroup)
	}

	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", m.Handler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.HandlerTimeout())(chain)
	if cfg.Server.RateLimit > 0 {
		limiter := ratelimit.New(cfg.Server.RateLimit, time.Minute)
		go limiter.Run(ctx, 5*time.Minute)
		chain = middleware.RateLimit(limiter)(chain)
		slog.Info("rate limiting enabled", "per_minute", cfg.Server.RateLimit)
	}
	chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
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

	slog.Info("search server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func bootstrap(ctx context.Context, cfg config.PostgresConfig, svc *service.Service) error {
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	res, err := loader.Load(ctx, loader.NewPostgresSource(db), svc, nil)
	if err != nil {
		return fmt.Errorf("bootstrapping index: %w", err)
	}
	slog.Info("index bootstrapped from postgres",
		"table", cfg.Table,
		"loaded", res.Loaded,
		"rejected", res.Rejected,
	)
	return nil
}
