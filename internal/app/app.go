package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/plantstore/internal/config"
	"github.com/utafrali/plantstore/internal/event"
	handler "github.com/utafrali/plantstore/internal/handler/http"
	"github.com/utafrali/plantstore/internal/mailer"
	"github.com/utafrali/plantstore/internal/repository"
	"github.com/utafrali/plantstore/internal/repository/docstore"
	"github.com/utafrali/plantstore/internal/repository/postgres"
	"github.com/utafrali/plantstore/internal/review"
	"github.com/utafrali/plantstore/internal/service"
	"github.com/utafrali/plantstore/internal/session"
	"github.com/utafrali/plantstore/migrations"
	"github.com/utafrali/plantstore/pkg/database"
	"github.com/utafrali/plantstore/pkg/health"
	"github.com/utafrali/plantstore/pkg/httpclient"
	pkgkafka "github.com/utafrali/plantstore/pkg/kafka"
	"github.com/utafrali/plantstore/pkg/middleware"
	"github.com/utafrali/plantstore/pkg/tracing"
)

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// initTracer is replaced in tests to observe the exporter lifecycle.
var initTracer = tracing.InitTracer

// stores groups the repositories of the selected backend.
type stores struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	reviews  repository.ReviewRepository
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := initTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	healthHandler := health.NewHandler()

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}

	var repos stores
	switch cfg.StoreBackend {
	case config.BackendDocstore:
		repos = a.openDocstore(cfg, reg, healthHandler)
	default:
		if repos, err = a.openPostgres(ctx, cfg, reg, healthHandler); err != nil {
			_ = a.shutdownTracer()
			return nil, err
		}
	}

	// Sessions live in Redis.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		a.closeStores()
		_ = a.shutdownTracer()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = redisClient
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// Domain events are optional; a nil producer publishes nothing.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger, reg)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// Build the dependency graph.
	eventProducer := event.NewProducer(a.producer, logger)
	sessionStore := session.NewStore(redisClient, logger)
	tokens := session.NewTokenManager(cfg.JWTSecret)

	authService := service.NewAuthService(repos.users, sessionStore, tokens, mailer.NewLogSender(logger), eventProducer, service.AuthConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		SessionTTL:    cfg.SessionTTL,
		RememberTTL:   cfg.SessionRememberTTL,
		BcryptCost:    cfg.BcryptCost,
	}, logger)
	reviewer := review.New(repos.orders, repos.reviews, review.Config{
		QueryTimeout: cfg.ReviewQueryTimeout,
		WriteTimeout: cfg.ReviewWriteTimeout,
	}, logger, review.NewMetrics(reg))

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:        cfg.ServiceName,
		Auth:               authService,
		Catalog:            service.NewCatalogService(repos.products, logger),
		Orders:             service.NewOrderService(repos.orders, eventProducer, logger),
		Reviews:            service.NewReviewService(reviewer, eventProducer, logger),
		Tokens:             tokens.Validate,
		Sessions:           sessionStore,
		Health:             healthHandler,
		HTTPMetrics:        middleware.NewHTTPMetrics(reg, cfg.ServiceName),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		CORS:               cors,
		AuthRateLimit: middleware.RateLimitConfig{
			RPS:   cfg.AuthRateLimitRPS,
			Burst: cfg.AuthRateLimitBurst,
		},
		PprofCIDRs:         cfg.PprofAllowedCIDRs,
		CatalogCacheMaxAge: cfg.CatalogCacheMaxAge,
		Logger:             logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openPostgres connects the pool, applies migrations and returns the
// PostgreSQL repositories.
func (a *App) openPostgres(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, h *health.Handler) (stores, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), a.logger)
	if err != nil {
		return stores{}, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RegisterPoolMetrics(reg, pool, cfg.ServiceName); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("register pool metrics: %w", err)
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")
	}

	if threshold := cfg.SlowQueryThreshold(); threshold > 0 {
		database.SetSlowQueryLogging(threshold, a.logger)
	}

	h.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	return stores{
		users:    postgres.NewUserRepository(pool),
		products: postgres.NewProductRepository(pool),
		orders:   postgres.NewOrderRepository(pool),
		reviews:  postgres.NewReviewRepository(pool),
	}, nil
}

// openDocstore returns repositories backed by the document store REST API,
// called through a retrying client behind a circuit breaker.
func (a *App) openDocstore(cfg *config.Config, reg prometheus.Registerer, h *health.Handler) stores {
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.DocstoreTimeout
	clientCfg.MaxRetries = cfg.DocstoreMaxRetries

	doer := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("docstore"),
		httpclient.NewBreakerMetrics(reg),
		a.logger,
	)
	client := docstore.NewClient(cfg.DocstoreBaseURL, doer)
	a.logger.Info("using document store", slog.String("base_url", cfg.DocstoreBaseURL))

	h.RegisterNonCritical("docstore", client.Ping)

	return stores{
		users:    docstore.NewUserRepository(client),
		products: docstore.NewProductRepository(client),
		orders:   docstore.NewOrderRepository(client),
		reviews:  docstore.NewReviewRepository(client),
	}
}

// shutdownTracer flushes pending spans and stops the exporter. It runs at
// most once.
func (a *App) shutdownTracer() error {
	if a.tracerShutdown == nil {
		return nil
	}
	shutdown := a.tracerShutdown
	a.tracerShutdown = nil

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return shutdown(ctx)
}

func (a *App) closeStores() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store_backend", a.cfg.StoreBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: the HTTP server drains
// in-flight requests, then pending spans are flushed, then the Kafka producer,
// Redis and the PostgreSQL pool are closed.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.shutdownTracer(); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.closeStores()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
