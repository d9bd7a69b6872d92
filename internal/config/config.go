package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	SaveDir   string     `env:"FALLEN_GOD_SAVE_DIR"   envDefault:".saves"`
	HistoryDB string     `env:"FALLEN_GOD_HISTORY_DB" envDefault:".saves/history.db"`
	Content   string     `env:"FALLEN_GOD_CONTENT"`
	Seed      uint64     `env:"FALLEN_GOD_SEED"`
	LogLevel  slog.Level `env:"FALLEN_GOD_LOG_LEVEL"  envDefault:"info"`
	LogFormat string     `env:"FALLEN_GOD_LOG_FORMAT" envDefault:"text"`
	LogFile   string     `env:"FALLEN_GOD_LOG_FILE"   envDefault:".saves/fallen-god.log"`
}

// LoadConfig loads the configuration from environment variables. A zero Seed
// means a fresh random seed per process.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("FALLEN_GOD_LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	return &cfg, nil
}
