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
	"github.com/redis/go-redis/v9"

	"github.com/ironfuel/cartapi/internal/config"
	"github.com/ironfuel/cartapi/internal/event"
	handler "github.com/ironfuel/cartapi/internal/handler/http"
	"github.com/ironfuel/cartapi/internal/payment"
	paymentmock "github.com/ironfuel/cartapi/internal/payment/mock"
	paymentstripe "github.com/ironfuel/cartapi/internal/payment/stripe"
	"github.com/ironfuel/cartapi/internal/repository"
	pgrepo "github.com/ironfuel/cartapi/internal/repository/postgres"
	redisrepo "github.com/ironfuel/cartapi/internal/repository/redis"
	"github.com/ironfuel/cartapi/internal/service"
	"github.com/ironfuel/cartapi/migrations"
	"github.com/ironfuel/cartapi/pkg/database"
	"github.com/ironfuel/cartapi/pkg/health"
	"github.com/ironfuel/cartapi/pkg/httpclient"
	pkgkafka "github.com/ironfuel/cartapi/pkg/kafka"
	"github.com/ironfuel/cartapi/pkg/middleware"
	"github.com/ironfuel/cartapi/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics and traces.
const ServiceName = "cart-api"

// Version is set at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App wires together all dependencies and runs the cart API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown tracing.ShutdownFunc
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything opened before a failure is closed again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			if cerr := a.closeAll(context.Background()); cerr != nil {
				logger.Error("cleanup after failed startup", slog.String("error", cerr.Error()))
			}
		}
	}()

	// Initialize tracing.
	a.tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL pool and schema.
	pgCfg := cfg.Postgres()
	a.pool, err = database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return nil, err
	}
	if v, verr := database.ServerVersion(ctx, a.pool); verr == nil {
		logger.Info("connected to PostgreSQL",
			slog.String("server_version", v),
			slog.Int("max_conns", int(pgCfg.MaxConns)),
		)
	}
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	// Metrics registry.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := database.RegisterPoolMetrics(reg, a.pool, ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}
	breakerMetrics, err := httpclient.NewBreakerMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register breaker metrics: %w", err)
	}

	processor := newProcessor(cfg, breakerMetrics, logger)
	logger.Info("payment processor initialized", slog.String("provider", processor.Name()))

	healthHandler := health.NewHandler()

	// Optional Redis backed checkout idempotency.
	var idempotency repository.IdempotencyStore
	if cfg.RedisAddr != "" {
		a.rdb = database.NewRedisClient(cfg.Redis())
		if perr := a.rdb.Ping(ctx).Err(); perr != nil {
			logger.Warn("redis not reachable at startup",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", perr.Error()),
			)
		} else {
			logger.Info("connected to Redis",
				slog.String("addr", cfg.RedisAddr),
				slog.Int("db", cfg.RedisDB),
			)
		}
		store := redisrepo.NewIdempotencyStore(a.rdb)
		idempotency = store
		healthHandler.RegisterNonCritical("redis", store.Ping)
	} else {
		logger.Info("REDIS_ADDR not set, checkout idempotency disabled")
	}

	// Optional Kafka producer for cart events.
	var publisher service.EventPublisher = event.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		kafkaCfg.Async = true
		a.producer = pkgkafka.NewProducer(kafkaCfg, logger)
		publisher = event.NewProducer(a.producer)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("KAFKA_BROKERS not set, cart events disabled")
	}

	// Build the dependency graph.
	repo := pgrepo.NewCartRepository(a.pool, cfg.QueryTimeout())
	healthHandler.RegisterCritical("postgres", repo.Ping)

	cartService := service.NewCartService(repo, publisher, logger)
	checkoutService := service.NewCheckoutService(processor, idempotency, publisher, service.CheckoutConfig{
		Currency:       cfg.CheckoutCurrency,
		SuccessURL:     cfg.CheckoutSuccessURL,
		CancelURL:      cfg.CheckoutCancelURL,
		Timeout:        cfg.CheckoutTimeout(),
		IdempotencyTTL: cfg.IdempotencyTTL(),
	}, logger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		CartService:     cartService,
		CheckoutService: checkoutService,
		Health:          healthHandler,
		Metrics:         middleware.NewHTTPMetrics(reg, ServiceName),
		Gatherer:        reg,
		CORS:            cors,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
		Logger:          logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// newProcessor builds the configured payment processor. Stripe calls go
// through the circuit breaker transport and are never retried.
func newProcessor(cfg *config.Config, metrics *httpclient.BreakerMetrics, logger *slog.Logger) payment.Processor {
	if cfg.PaymentProvider == config.ProviderMock {
		return paymentmock.NewProcessor()
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.CheckoutTimeout()
	breaker := httpclient.NewBreakerTransport(
		httpclient.NewTransport(clientCfg),
		cfg.CircuitBreaker("stripe"),
		metrics,
		logger,
	)

	return paymentstripe.NewProcessor(paymentstripe.Config{
		SecretKey:  cfg.StripeSecretKey,
		APIURL:     cfg.StripeAPIURL,
		HTTPClient: httpclient.New(clientCfg, breaker),
	}, logger)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown drains HTTP first, then releases the collaborators.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if err := a.closeAll(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Error("application shutdown finished with errors", slog.String("error", err.Error()))
		return err
	}
	a.logger.Info("application shutdown complete")
	return nil
}

// closeAll flushes traces and events before closing the stores.
func (a *App) closeAll(ctx context.Context) error {
	var errs []error
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka producer close: %w", err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
