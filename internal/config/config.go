package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/plantstore/pkg/config"
	"github.com/utafrali/plantstore/pkg/database"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendDocstore = "docstore"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"storefront"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort        int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Backing store for users, products, orders and reviews.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost   string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort   int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser   string        `env:"POSTGRES_USER" envDefault:"plantstore"`
	PostgresPass   string        `env:"POSTGRES_PASSWORD" envDefault:"plantstore_secret"`
	PostgresDB     string        `env:"POSTGRES_DB" envDefault:"plantstore"`
	PostgresSSL    string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns     int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns     int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLife  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdle  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	RunMigrations  bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	LogSlowQueryMS int           `env:"LOG_SLOW_QUERY_MS" envDefault:"200"`

	// Document store (json-server compatible REST API)
	DocstoreBaseURL    string        `env:"DOCSTORE_BASE_URL" envDefault:"http://localhost:3001"`
	DocstoreTimeout    time.Duration `env:"DOCSTORE_TIMEOUT" envDefault:"5s"`
	DocstoreMaxRetries int           `env:"DOCSTORE_MAX_RETRIES" envDefault:"2"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Sessions
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionRememberTTL time.Duration `env:"SESSION_REMEMBER_TTL" envDefault:"720h"`
	JWTSecret          string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// HTTP surface
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32" envSeparator:","`
	PublicBaseURL      string   `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:5173"`
	CatalogCacheMaxAge int      `env:"CATALOG_CACHE_MAX_AGE" envDefault:"60"`

	// Per-IP token bucket on login, registration and activation mail.
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"0.5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// Review workflow
	ReviewQueryTimeout time.Duration `env:"REVIEW_QUERY_TIMEOUT" envDefault:"3s"`
	ReviewWriteTimeout time.Duration `env:"REVIEW_WRITE_TIMEOUT" envDefault:"5s"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StoreBackend != BackendPostgres && c.StoreBackend != BackendDocstore {
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendDocstore, c.StoreBackend)
	}
	if c.ReviewQueryTimeout <= 0 || c.ReviewWriteTimeout <= 0 {
		return fmt.Errorf("review timeouts must be positive")
	}
	if c.SessionTTL <= 0 || c.SessionRememberTTL < c.SessionTTL {
		return fmt.Errorf("SESSION_REMEMBER_TTL (%s) must be at least SESSION_TTL (%s)", c.SessionRememberTTL, c.SessionTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.AuthRateLimitRPS < 0 || (c.AuthRateLimitRPS > 0 && c.AuthRateLimitBurst < 1) {
		return fmt.Errorf("AUTH_RATE_LIMIT_RPS must be >= 0 and AUTH_RATE_LIMIT_BURST >= 1 when limiting")
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %g", c.OTelSampleRate)
	}

	// Outside development the JWT secret must be set explicitly and be long enough.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// Postgres returns the connection settings for the pgx pool.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLife,
		MaxConnIdleTime: c.DBMaxConnIdle,
	}
}

// Redis returns the connection settings for the session store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// SlowQueryThreshold converts LOG_SLOW_QUERY_MS to a duration.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.LogSlowQueryMS) * time.Millisecond
}
