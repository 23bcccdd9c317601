package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment            string        `mapstructure:"ENV"`
	DBDSN                  string        `mapstructure:"DB_DSN"`
	Storage                string        `mapstructure:"STORAGE"`
	HTTPAddr               string        `mapstructure:"HTTP_ADDR"`
	AuthSecret             string        `mapstructure:"AUTH_SECRET"`
	MigrationsDir          string        `mapstructure:"MIGRATIONS_DIR"`
	TelegramToken          string        `mapstructure:"TELEGRAM_TOKEN"`
	QuotaTimezone          string        `mapstructure:"QUOTA_TIMEZONE"`
	RequireApprovedRequest bool          `mapstructure:"REQUIRE_APPROVED_REQUEST"`
	RateLimitRPS           int           `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst         int           `mapstructure:"RATE_LIMIT_BURST"`
	SnapshotInterval       time.Duration `mapstructure:"SNAPSHOT_INTERVAL"`

	// LoadedDotEnv: найден ли .env файл.
	LoadedDotEnv bool `mapstructure:"-"`
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	loaded := godotenv.Load(".env") == nil
	return FromEnv(loaded)
}

// FromEnv собирает конфиг только из переменных окружения.
func FromEnv(loadedDotEnv bool) (*Config, error) {
	cfg := &Config{
		Environment:   envOr("ENV", "development"),
		DBDSN:         os.Getenv("DB_DSN"),
		Storage:       strings.ToLower(envOr("STORAGE", StoragePostgres)),
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		AuthSecret:    os.Getenv("AUTH_SECRET"),
		MigrationsDir: envOr("MIGRATIONS_DIR", "migrations"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		QuotaTimezone: envOr("QUOTA_TIMEZONE", "UTC"),
		LoadedDotEnv:  loadedDotEnv,
	}

	var err error
	if cfg.RequireApprovedRequest, err = envBool("REQUIRE_APPROVED_REQUEST", false); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = envInt("RATE_LIMIT_RPS", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", 40); err != nil {
		return nil, err
	}
	if cfg.SnapshotInterval, err = envDuration("SNAPSHOT_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.Storage)
	}

	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required but not set")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if cfg.SnapshotInterval <= 0 {
		return nil, fmt.Errorf("SNAPSHOT_INTERVAL must be positive")
	}
	if _, err := cfg.QuotaLocation(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// QuotaLocation: часовой пояс, в котором полночь воскресенья открывает неделю квоты.
func (c *Config) QuotaLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.QuotaTimezone)
	if err != nil {
		return nil, fmt.Errorf("QUOTA_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
