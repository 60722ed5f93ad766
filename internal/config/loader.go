package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DatabaseConfig selects and tunes the SQL store.
type DatabaseConfig struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"`
	DSN          string `env:"DSN" envDefault:"file:roombooking.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
}

// RedisConfig configures the optional Redis backend. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// Config captures environment driven configuration values for the booking service.
type Config struct {
	Env               string         `env:"APP_ENV" envDefault:"production"`
	LogLevel          string         `env:"LOG_LEVEL"`
	HTTPPort          int            `env:"ROOMBOOKING_HTTP_PORT" envDefault:"8080"`
	Database          DatabaseConfig `envPrefix:"ROOMBOOKING_DB_"`
	Redis             RedisConfig    `envPrefix:"ROOMBOOKING_REDIS_"`
	SequenceBackend   string         `env:"ROOMBOOKING_SEQUENCE_BACKEND" envDefault:"sql"`
	LockTTL           time.Duration  `env:"ROOMBOOKING_LOCK_TTL" envDefault:"10s"`
	Timezone          string         `env:"ROOMBOOKING_TIMEZONE" envDefault:"UTC"`
	ShutdownTimeout   time.Duration  `env:"ROOMBOOKING_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DirectorySeedFile string         `env:"ROOMBOOKING_DIRECTORY_SEED_FILE"`
	DirectoryCacheTTL time.Duration  `env:"ROOMBOOKING_DIRECTORY_CACHE_TTL" envDefault:"30s"`

	location *time.Location
}

// Location returns the time zone used to expand calendar dates.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence over it. Every invalid value
// is reported in a single error.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	invalid := make([]string, 0, 4)

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "ROOMBOOKING_HTTP_PORT")
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		invalid = append(invalid, "ROOMBOOKING_DB_DRIVER")
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		invalid = append(invalid, "ROOMBOOKING_DB_DSN")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		invalid = append(invalid, "ROOMBOOKING_DB_MAX_OPEN_CONNS")
	}

	cfg.SequenceBackend = strings.ToLower(strings.TrimSpace(cfg.SequenceBackend))
	switch cfg.SequenceBackend {
	case "sql":
	case "redis":
		if !cfg.Redis.Enabled() {
			invalid = append(invalid, "ROOMBOOKING_REDIS_ADDR")
		}
	default:
		invalid = append(invalid, "ROOMBOOKING_SEQUENCE_BACKEND")
	}

	if cfg.LockTTL <= 0 {
		invalid = append(invalid, "ROOMBOOKING_LOCK_TTL")
	}
	if cfg.ShutdownTimeout <= 0 {
		invalid = append(invalid, "ROOMBOOKING_SHUTDOWN_TIMEOUT")
	}
	if cfg.DirectoryCacheTTL < 0 {
		invalid = append(invalid, "ROOMBOOKING_DIRECTORY_CACHE_TTL")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		invalid = append(invalid, "ROOMBOOKING_TIMEZONE")
	} else {
		cfg.location = loc
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}
