package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/ironfuel/cartapi/pkg/config"
	"github.com/ironfuel/cartapi/pkg/database"
	"github.com/ironfuel/cartapi/pkg/httpclient"
)

// Payment providers.
const (
	ProviderStripe = "stripe"
	ProviderMock   = "mock"
)

// Config holds all configuration for the cart API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"PORT" envDefault:"5000"`

	// PostgreSQL. DATABASE_URL wins over the discrete settings when set.
	DatabaseURL  string `env:"DATABASE_URL"`
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ironfuel"`
	PostgresPass string `env:"POSTGRES_PASSWORD"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"ironfuel"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"require"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	DBQueryTimeoutSecs    int   `env:"DB_QUERY_TIMEOUT_SECONDS" envDefault:"5"`
	SlowQueryThresholdMs  int   `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Payments
	PaymentProvider string `env:"PAYMENT_PROVIDER" envDefault:"stripe"`
	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	StripeAPIURL    string `env:"STRIPE_API_URL"`

	// Checkout
	CheckoutCurrency        string `env:"CHECKOUT_CURRENCY" envDefault:"myr"`
	CheckoutSuccessURL      string `env:"CHECKOUT_SUCCESS_URL" envDefault:"https://iron-fuel-frontend-e7xl.vercel.app/success"`
	CheckoutCancelURL       string `env:"CHECKOUT_CANCEL_URL" envDefault:"https://iron-fuel-frontend-e7xl.vercel.app/cart"`
	CheckoutTimeoutSecs     int    `env:"CHECKOUT_TIMEOUT_SECONDS" envDefault:"10"`
	CheckoutIdempotencyMins int    `env:"CHECKOUT_IDEMPOTENCY_TTL_MINUTES" envDefault:"30"`

	// Circuit breaker around the payment processor
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Redis. Empty address disables checkout idempotency.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka. No brokers disables cart events.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart api config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.DatabaseURL == "" && c.PostgresHost == "" {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST is required")
	}
	if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid pool bounds: min %d, max %d", c.DBMinConns, c.DBMaxConns)
	}
	if c.DBQueryTimeoutSecs < 1 {
		return fmt.Errorf("DB_QUERY_TIMEOUT_SECONDS must be positive, got %d", c.DBQueryTimeoutSecs)
	}
	switch c.PaymentProvider {
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=%s", ProviderStripe)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
	if c.StripeAPIURL != "" {
		if _, err := url.ParseRequestURI(c.StripeAPIURL); err != nil {
			return fmt.Errorf("invalid STRIPE_API_URL %q: %w", c.StripeAPIURL, err)
		}
	}
	if len(c.CheckoutCurrency) != 3 {
		return fmt.Errorf("CHECKOUT_CURRENCY must be a 3-letter ISO code, got %q", c.CheckoutCurrency)
	}
	for name, rawURL := range map[string]string{
		"CHECKOUT_SUCCESS_URL": c.CheckoutSuccessURL,
		"CHECKOUT_CANCEL_URL":  c.CheckoutCancelURL,
	} {
		u, err := url.ParseRequestURI(rawURL)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid %s %q: scheme must be http or https", name, rawURL)
		}
	}
	if c.CheckoutTimeoutSecs < 1 {
		return fmt.Errorf("CHECKOUT_TIMEOUT_SECONDS must be positive, got %d", c.CheckoutTimeoutSecs)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		URL:             c.DatabaseURL,
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the idempotency store connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// QueryTimeout bounds a single store round trip.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.DBQueryTimeoutSecs) * time.Second
}

// CheckoutTimeout bounds a single payment processor call.
func (c *Config) CheckoutTimeout() time.Duration {
	return time.Duration(c.CheckoutTimeoutSecs) * time.Second
}

// IdempotencyTTL is how long a checkout idempotency key is remembered.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.CheckoutIdempotencyMins) * time.Minute
}

// CircuitBreaker returns the payment processor breaker settings.
func (c *Config) CircuitBreaker(name string) httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  c.CBMaxRequests,
		Interval:     time.Duration(c.CBInterval) * time.Second,
		Timeout:      time.Duration(c.CBTimeout) * time.Second,
		FailureRatio: c.CBFailureRatio,
		MinRequests:  c.CBMinRequests,
	}
}
