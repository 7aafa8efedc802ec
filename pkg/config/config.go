package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is intentionally empty: every field names its variable in full.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and deploy tooling.
const (
	EnvAppEnv          = "LEXBID_APP_ENV"
	EnvPort            = "LEXBID_APP_PORT"
	EnvDBDSN           = "LEXBID_DB_DSN"
	EnvRedisURL        = "LEXBID_REDIS_URL"
	EnvJWTSecret       = "LEXBID_JWT_SECRET"
	EnvJWTIssuer       = "LEXBID_JWT_ISSUER"
	EnvJWTExpMins      = "LEXBID_JWT_EXPIRATION_MINUTES"
	EnvProviderBaseURL = "LEXBID_PROVIDER_BASE_URL"
	EnvProviderAPIKey  = "LEXBID_PROVIDER_API_KEY"
	EnvProviderSecret  = "LEXBID_PROVIDER_WEBHOOK_SECRET"
	EnvStorageBaseURL  = "LEXBID_STORAGE_BASE_URL"
	EnvStorageAPIKey   = "LEXBID_STORAGE_API_KEY"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Quotes       QuotesConfig
	Provider     ProviderConfig
	Storage      StorageConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Quotes.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEXBID_APP_ENV" required:"true"`
	Port         string `envconfig:"LEXBID_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEXBID_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEXBID_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"LEXBID_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"LEXBID_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEXBID_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEXBID_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEXBID_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEXBID_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEXBID_REDIS_ADDR"`
	Password     string        `envconfig:"LEXBID_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEXBID_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEXBID_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEXBID_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEXBID_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEXBID_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEXBID_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LEXBID_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEXBID_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LEXBID_JWT_EXPIRATION_MINUTES" required:"true"`
}

// QuotesConfig bounds lawyer quotes. Amounts are expressed in the major
// currency unit (e.g. dollars) and parsed as fixed-point downstream.
type QuotesConfig struct {
	MaxAmount       string `envconfig:"LEXBID_QUOTE_MAX_AMOUNT" default:"250000"`
	MaxDurationDays int    `envconfig:"LEXBID_QUOTE_MAX_DURATION_DAYS" default:"365"`
}

func (q QuotesConfig) validate() error {
	if strings.TrimSpace(q.MaxAmount) == "" {
		return fmt.Errorf("quote max amount is required")
	}
	if q.MaxDurationDays <= 0 {
		return fmt.Errorf("quote max duration days must be positive")
	}
	return nil
}

// ProviderConfig carries the payment provider credentials.
type ProviderConfig struct {
	BaseURL        string        `envconfig:"LEXBID_PROVIDER_BASE_URL" required:"true"`
	APIKey         string        `envconfig:"LEXBID_PROVIDER_API_KEY" required:"true"`
	WebhookSecret  string        `envconfig:"LEXBID_PROVIDER_WEBHOOK_SECRET" required:"true"`
	Currency       string        `envconfig:"LEXBID_PROVIDER_CURRENCY" default:"usd"`
	Timeout        time.Duration `envconfig:"LEXBID_PROVIDER_TIMEOUT" default:"10s"`
	IdempotencyTTL time.Duration `envconfig:"LEXBID_PROVIDER_IDEMPOTENCY_TTL" default:"720h"`
}

// StorageConfig points at the object storage gateway that issues signed URLs.
type StorageConfig struct {
	BaseURL           string        `envconfig:"LEXBID_STORAGE_BASE_URL" required:"true"`
	APIKey            string        `envconfig:"LEXBID_STORAGE_API_KEY" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"LEXBID_STORAGE_DOWNLOAD_URL_EXPIRY" default:"15m"`
	Timeout           time.Duration `envconfig:"LEXBID_STORAGE_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEXBID_AUTO_MIGRATE" default:"false"`
}
