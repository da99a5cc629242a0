package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Supported data providers.
const (
	ProviderTwelveData = "twelvedata"
	ProviderAlpaca     = "alpaca"
	ProviderCSV        = "csv"
)

// Supported cache backends.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

// Config holds all application configuration
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DataProvider is a comma separated list tried in order, e.g. "twelvedata,csv".
	DataProvider  string `env:"DATA_PROVIDER" envDefault:"twelvedata"`
	TwelveAPIKey  string `env:"TWELVE_API_KEY"`
	TwelveBaseURL string `env:"TWELVE_BASE_URL"`
	AlpacaAPIKey  string `env:"ALPACA_API_KEY"`
	AlpacaSecret  string `env:"ALPACA_API_SECRET"`
	AlpacaDataURL string `env:"ALPACA_DATA_URL"`
	AlpacaFeed    string `env:"ALPACA_FEED" envDefault:"iex"`
	CSVDataDir    string `env:"CSV_DATA_DIR" envDefault:"data"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RequestsPerSec  int           `env:"REQUESTS_PER_SEC" envDefault:"5"`
	MaxRetryTimeout time.Duration `env:"MAX_RETRY_TIMEOUT" envDefault:"30s"`

	CacheBackend  string        `env:"CACHE_BACKEND" envDefault:"memory"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"12h"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"regimetrader"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	MetricsAddr      string `env:"METRICS_ADDR"`
	TailRows         int    `env:"TAIL_ROWS" envDefault:"10"`
	DefaultTicker    string `env:"DEFAULT_TICKER" envDefault:"SPY"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	return FromEnv(), nil
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() *Config {
	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	cfg.DataProvider = strings.ToLower(getEnvWithDefault("DATA_PROVIDER", ProviderTwelveData))
	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.TwelveBaseURL = os.Getenv("TWELVE_BASE_URL")
	cfg.AlpacaAPIKey = getEnvWithDefault("ALPACA_API_KEY", os.Getenv("APCA_API_KEY_ID"))
	cfg.AlpacaSecret = getEnvWithDefault("ALPACA_API_SECRET", os.Getenv("APCA_API_SECRET_KEY"))
	cfg.AlpacaDataURL = os.Getenv("ALPACA_DATA_URL")
	cfg.AlpacaFeed = getEnvWithDefault("ALPACA_FEED", "iex")
	cfg.CSVDataDir = getEnvWithDefault("CSV_DATA_DIR", "data")

	cfg.RequestTimeout = getEnvDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.MaxRetryTimeout = getEnvDurationWithDefault("MAX_RETRY_TIMEOUT", 30*time.Second)

	cfg.CacheBackend = strings.ToLower(getEnvWithDefault("CACHE_BACKEND", CacheMemory))
	cfg.CacheTTL = getEnvDurationWithDefault("CACHE_TTL", 12*time.Hour)
	cfg.RedisAddr = getEnvWithDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "regimetrader")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.TailRows = getEnvIntWithDefault("TAIL_ROWS", 10)
	cfg.DefaultTicker = strings.ToUpper(getEnvWithDefault("DEFAULT_TICKER", "SPY"))

	return &cfg
}

// Providers splits DataProvider into its ordered entries.
func (c *Config) Providers() []string {
	var out []string
	for _, name := range strings.Split(c.DataProvider, ",") {
		if name = strings.TrimSpace(strings.ToLower(name)); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Validate checks that every configured provider has its credentials and that the
// cache backend is known and usable.
func (c *Config) Validate() error {
	var errs []error

	providers := c.Providers()
	if len(providers) == 0 {
		errs = append(errs, errors.New("DATA_PROVIDER is empty"))
	}
	for _, name := range providers {
		switch name {
		case ProviderTwelveData:
			if c.TwelveAPIKey == "" {
				errs = append(errs, errors.New("TWELVE_API_KEY is required for the twelvedata provider"))
			}
		case ProviderAlpaca:
			if c.AlpacaAPIKey == "" || c.AlpacaSecret == "" {
				errs = append(errs, errors.New("ALPACA_API_KEY and ALPACA_API_SECRET are required for the alpaca provider"))
			}
		case ProviderCSV:
			if c.CSVDataDir == "" {
				errs = append(errs, errors.New("CSV_DATA_DIR is required for the csv provider"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown DATA_PROVIDER %q", name))
		}
	}

	switch c.CacheBackend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis cache"))
		}
	case CachePostgres:
		if c.DBHost == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for the postgres cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend))
	}

	if c.RequestsPerSec <= 0 {
		errs = append(errs, errors.New("REQUESTS_PER_SEC must be positive"))
	}
	if c.TailRows < 0 {
		errs = append(errs, errors.New("TAIL_ROWS must not be negative"))
	}

	return errors.Join(errs...)
}

// ReportTailRows is TailRows as the pipeline reads it: a configured zero
// becomes -1 so the report carries no rows instead of the pipeline default.
func (c *Config) ReportTailRows() int {
	if c.TailRows == 0 {
		return -1
	}
	return c.TailRows
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationWithDefault accepts Go durations ("45s") or a bare number of seconds.
func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
