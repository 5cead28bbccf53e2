package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DanielPopoola/church-donations/internal/domain"
	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/shopspring/decimal"
)

const envPrefix = "DONATIONS_"

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Stripe    StripeConfig    `koanf:"stripe"`
	Retry     RetryConfig     `koanf:"retry"`
	Logger    LoggerConfig    `koanf:"logger"`
	Worker    WorkerConfig    `koanf:"worker"`
	Donations DonationsConfig `koanf:"donations"`
	Auth      AuthConfig      `koanf:"auth"`
}

type WorkerConfig struct {
	Interval   time.Duration `koanf:"interval" validate:"required"`
	BatchSize  int           `koanf:"batch_size" validate:"required"`
	StaleAfter time.Duration `koanf:"stale_after" validate:"required"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// StripeConfig holds the card processor credentials. BaseURL is only
// overridden in tests.
type StripeConfig struct {
	SecretKey        string        `koanf:"secret_key" validate:"required"`
	WebhookSecret    string        `koanf:"webhook_secret" validate:"required"`
	BaseURL          string        `koanf:"base_url"`
	ConnTimeout      time.Duration `koanf:"conn_timeout" validate:"required"`
	WebhookTolerance time.Duration `koanf:"webhook_tolerance" validate:"required"`
}

type RetryConfig struct {
	BaseDelay  int32 `koanf:"base_delay"`
	MaxRetries int32 `koanf:"max_retries"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type DonationsConfig struct {
	MaxAmount       string `koanf:"max_amount" validate:"required"`
	DefaultCurrency string `koanf:"default_currency" validate:"required,len=3"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret" validate:"required"`
}

var defaults = map[string]any{
	"primary.env":                 "dev",
	"server.port":                 "8080",
	"server.read_timeout":         "15s",
	"server.write_timeout":        "15s",
	"server.idle_timeout":         "60s",
	"database.port":               5432,
	"database.ssl_mode":           "disable",
	"database.max_open_conns":     20,
	"database.max_idle_conns":     2,
	"database.conn_max_lifetime":  "1h",
	"database.conn_max_idle_time": "10m",
	"stripe.conn_timeout":         "10s",
	"stripe.webhook_tolerance":    "5m",
	"retry.base_delay":            1,
	"retry.max_retries":           3,
	"logger.level":                "info",
	"worker.interval":             "1m",
	"worker.batch_size":           50,
	"worker.stale_after":          "30m",
	"donations.max_amount":        "10000",
	"donations.default_currency":  "USD",
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	if _, err := mainConfig.Donations.AmountPolicy(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}
	if _, err := domain.NormalizeCurrency(mainConfig.Donations.DefaultCurrency); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// AmountPolicy parses the configured donation ceiling.
func (c DonationsConfig) AmountPolicy() (domain.AmountPolicy, error) {
	maxAmount, err := decimal.NewFromString(c.MaxAmount)
	if err != nil {
		return domain.AmountPolicy{}, fmt.Errorf("donations.max_amount: %w", err)
	}
	if !maxAmount.IsPositive() {
		return domain.AmountPolicy{}, fmt.Errorf("donations.max_amount must be positive, got %s", c.MaxAmount)
	}
	return domain.AmountPolicy{Max: maxAmount}, nil
}

// NewLogger builds the process logger. Development gets human readable text,
// everything else JSON.
func (c LoggerConfig) NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}

	format := c.Format
	if format == "" {
		format = "json"
		if env == "dev" || env == "development" {
			format = "text"
		}
	}

	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func (c LoggerConfig) level() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
