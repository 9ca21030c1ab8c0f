package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port            string        `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL     string        `env:"DATABASE_URL" envDefault:"employees.db"`
	ImportEnabled   bool          `env:"IMPORT_ENABLED" envDefault:"true"`
	ImportPath      string        `env:"IMPORT_PATH" envDefault:"employees.csv"`
	ImportBatchSize int           `env:"IMPORT_BATCH_SIZE" envDefault:"500"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`
	DBLogLevel      string        `env:"DB_LOG_LEVEL" envDefault:"warn"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("APP_PORT must be a port number, got %q", c.Port)
	}

	if c.ImportEnabled && strings.TrimSpace(c.ImportPath) == "" {
		return fmt.Errorf("IMPORT_PATH required when IMPORT_ENABLED is set")
	}

	if c.ImportBatchSize < 1 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive")
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be one of: text, json")
	}

	switch strings.ToLower(c.DBLogLevel) {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("DB_LOG_LEVEL must be one of: silent, error, warn, info")
	}

	return nil
}
