package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string        `env:"PORT"          envDefault:"8080"`
	Environment  string        `env:"ENVIRONMENT"   envDefault:"development"`
	LogLevelName string        `env:"LOG_LEVEL"     envDefault:"info"`
	RedisURL     string        `env:"REDIS_URL"`
	SQLitePath   string        `env:"SQLITE_PATH"`
	Retention    time.Duration `env:"GAME_RETENTION" envDefault:"24h"`
	DataDir      string        `env:"DATA_DIR"      envDefault:"data"`
	PCID         string        `env:"PC_ID"         envDefault:"drifter"`
	RNGSeed      uint64        `env:"RNG_SEED"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"50ms"`
	StartBiome   string        `env:"START_BIOME"   envDefault:"PLAINS"`
	StartWeather string        `env:"START_WEATHER" envDefault:"CLEAR"`
	APIURL       string        `env:"API_URL"       envDefault:"http://localhost:8080"`

	LogLevel slog.Level `env:"-"`
}

// Load reads the configuration from the environment, after applying a
// .env file from the working directory when one exists. Variables that
// are already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive, got %s", cfg.TickInterval)
	}
	return &cfg, nil
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
