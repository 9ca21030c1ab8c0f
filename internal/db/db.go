package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"employee-dashboard/internal/apperror"
	"employee-dashboard/internal/config"
)

// Connect opens the backing store named by cfg.DatabaseURL and verifies it is
// reachable. postgres:// URLs (or key=value DSNs with host=) select PostgreSQL;
// anything else is treated as a SQLite path or file: URI.
func Connect(cfg config.Config) (*gorm.DB, error) {
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(cfg.DBLogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	dialector := Dialector(cfg.DatabaseURL)
	database, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnavailable, "backing store unreachable", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeUnavailable, "backing store unreachable", err)
	}

	if dialector.Name() == "sqlite" {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY between pooled conns.
		sqlDB.SetMaxOpenConns(1)
		if err := database.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			_ = sqlDB.Close()
			return nil, apperror.Wrap(apperror.CodeUnavailable, "configure sqlite", err)
		}
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, apperror.Wrap(apperror.CodeUnavailable, "backing store unreachable", err)
	}

	return database, nil
}

func Dialector(dsn string) gorm.Dialector {
	dsn = strings.TrimSpace(dsn)
	if IsPostgres(dsn) {
		return postgres.Open(dsn)
	}
	return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
}

func IsPostgres(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "postgres://") ||
		strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=")
}

func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
