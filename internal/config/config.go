package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/emrahgewer/yorumatorapp/pkg/config"
	"github.com/emrahgewer/yorumatorapp/pkg/database"
	"github.com/emrahgewer/yorumatorapp/pkg/tracing"
)

// ServiceName labels logs, metrics, traces and produced events.
const ServiceName = "yorumator-api"

// Config holds all configuration for the service. It is built once at
// startup and never mutated afterwards.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort            int           `env:"HTTP_PORT" envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"20s"`
	CORSAllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"yorumator"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"yorumator_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"yorumator"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	RunMigrations         bool  `env:"DB_RUN_MIGRATIONS" envDefault:"true"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka
	KafkaEnabled       bool          `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers       []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string        `env:"KAFKA_CONSUMER_GROUP" envDefault:"yorumator-notifications"`
	IdempotencyTTL     time.Duration `env:"KAFKA_IDEMPOTENCY_TTL" envDefault:"24h"`

	// Redis (consumer idempotency). Empty host falls back to memory.
	RedisHost     string `env:"REDIS_HOST" envDefault:""`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Auth. When disabled the gateway-injected X-User-ID header is trusted.
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"true"`
	JWTSecret   string `env:"JWT_SECRET" envDefault:""`
	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"yorumator-accounts"`

	// Moderation scorer. Empty URL approves every review.
	ModerationURL     string        `env:"MODERATION_URL" envDefault:""`
	ModerationTimeout time.Duration `env:"MODERATION_TIMEOUT" envDefault:"2s"`

	// Engine
	RatingRefreshMaxAttempts int `env:"RATING_REFRESH_MAX_ATTEMPTS" envDefault:"3"`
	ReplyPageLimit           int `env:"REPLY_PAGE_LIMIT" envDefault:"100"`

	// Per-caller limit on engagement writes (opinions, follows, favorites,
	// replies). Zero disables it.
	WriteRateLimitRPS   float64 `env:"WRITE_RATE_LIMIT_RPS" envDefault:"5"`
	WriteRateLimitBurst int     `env:"WRITE_RATE_LIMIT_BURST" envDefault:"10"`

	// Pprof debug endpoints (IP allowlist in CIDR notation). Empty disables them.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort))
	}
	if c.PostgresHost == "" {
		errs = append(errs, errors.New("POSTGRES_HOST is required"))
	}
	if c.PostgresUser == "" {
		errs = append(errs, errors.New("POSTGRES_USER is required"))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true"))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate))
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when AUTH_ENABLED is true"))
	}
	if c.RatingRefreshMaxAttempts < 1 || c.RatingRefreshMaxAttempts > 3 {
		errs = append(errs, fmt.Errorf("RATING_REFRESH_MAX_ATTEMPTS must be between 1 and 3, got %d", c.RatingRefreshMaxAttempts))
	}
	if c.ReplyPageLimit < 1 || c.ReplyPageLimit > 100 {
		errs = append(errs, fmt.Errorf("REPLY_PAGE_LIMIT must be between 1 and 100, got %d", c.ReplyPageLimit))
	}
	if c.WriteRateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("WRITE_RATE_LIMIT_RPS must not be negative, got %f", c.WriteRateLimitRPS))
	}
	if c.WriteRateLimitRPS > 0 && c.WriteRateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("WRITE_RATE_LIMIT_BURST must be at least 1, got %d", c.WriteRateLimitBurst))
	}
	if c.ModerationURL != "" && c.ModerationTimeout <= 0 {
		errs = append(errs, errors.New("MODERATION_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Postgres returns the pool configuration.
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
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis configuration; ok is false when Redis is not set up.
func (c *Config) Redis() (cfg database.RedisConfig, ok bool) {
	if c.RedisHost == "" {
		return database.RedisConfig{}, false
	}
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}, true
}

// Tracing returns the OpenTelemetry configuration.
func (c *Config) Tracing(version string) tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}

// SlowQueryThreshold returns the slow query threshold as a duration.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
