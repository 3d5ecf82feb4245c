package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

type Config struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	ProductsFile string `env:"PRODUCTS_FILE"`

	Pricing  PricingConfig  `envPrefix:"PRICING_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Database DatabaseConfig `envPrefix:"DB_"`
}

type PricingConfig struct {
	Source        string        `env:"SOURCE" envDefault:"embedded"`
	Dir           string        `env:"DIR" envDefault:"assets/pricing"`
	BaseURL       string        `env:"BASE_URL"`
	APIKey        string        `env:"API_KEY"`
	BaseSheet     string        `env:"BASE_SHEET" envDefault:"base-pricing.csv"`
	DiscountSheet string        `env:"DISCOUNT_SHEET" envDefault:"quantity-discounts.csv"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	RetryAttempts int           `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryInitial  time.Duration `env:"RETRY_INITIAL" envDefault:"1s"`
	RetryMax      time.Duration `env:"RETRY_MAX" envDefault:"5s"`
}

// RedisConfig is optional: an empty Addr disables the sheet cache.
type RedisConfig struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	TTL      time.Duration `env:"TTL" envDefault:"24h"`
}

type DatabaseConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

func (d DatabaseConfig) Configured() bool {
	return d.User != "" && d.Name != ""
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Pricing.Source {
	case SourceEmbedded:
	case SourceFile:
		if c.Pricing.Dir == "" {
			return fmt.Errorf("PRICING_DIR is required for the file source")
		}
	case SourceHTTP:
		if c.Pricing.BaseURL == "" {
			return fmt.Errorf("PRICING_BASE_URL is required for the http source")
		}
	case SourcePostgres:
		if !c.Database.Configured() {
			return fmt.Errorf("DB_USER and DB_NAME are required for the postgres source")
		}
	default:
		return fmt.Errorf("unknown pricing source %q", c.Pricing.Source)
	}

	if c.Pricing.RetryAttempts < 1 {
		return fmt.Errorf("PRICING_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Pricing.FetchTimeout <= 0 {
		return fmt.Errorf("PRICING_FETCH_TIMEOUT must be positive")
	}

	return nil
}
