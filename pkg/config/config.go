package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Receipts ReceiptConfig
	Settings SettingsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRACKLOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"TRACKLOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRACKLOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRACKLOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN             string        `envconfig:"TRACKLOCK_DB_DSN" required:"true"`
	MaxOpenConns    int           `envconfig:"TRACKLOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRACKLOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRACKLOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRACKLOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	AutoMigrate     bool          `envconfig:"TRACKLOCK_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL            string        `envconfig:"TRACKLOCK_REDIS_URL"`
	Address        string        `envconfig:"TRACKLOCK_REDIS_ADDRESS"`
	Password       string        `envconfig:"TRACKLOCK_REDIS_PASSWORD"`
	DB             int           `envconfig:"TRACKLOCK_REDIS_DB" default:"0"`
	DialTimeout    time.Duration `envconfig:"TRACKLOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"TRACKLOCK_REDIS_IDEMPOTENCY_TTL" default:"168h"`
}

// ReceiptConfig shapes the bearer tokens minted for anonymous purchases.
type ReceiptConfig struct {
	TokenBytes int           `envconfig:"TRACKLOCK_RECEIPT_TOKEN_BYTES" default:"32"`
	TokenTTL   time.Duration `envconfig:"TRACKLOCK_RECEIPT_TOKEN_TTL" default:"720h"`
}

// SettingsConfig locates the file-backed runtime settings store.
type SettingsConfig struct {
	Path string `envconfig:"TRACKLOCK_SETTINGS_PATH" default:"data/settings.json"`
}
