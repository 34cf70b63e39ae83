// Package db opens the gorm connection and applies the schema.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stormkeep/invoices/internal/config"
)

// retryDelay is the pause between connection attempts while postgres starts.
var retryDelay = 2 * time.Second

// gormWriter routes gorm's SQL log through zerolog.
type gormWriter struct{ log zerolog.Logger }

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// GormConfig returns the gorm settings shared by the server, the CLI and tests.
func GormConfig(log zerolog.Logger, debug bool) *gorm.Config {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(gormWriter{log: log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}
}

// Open connects to the configured database, retrying postgres until it accepts connections.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	gcfg := GormConfig(log, cfg.Debug)

	if cfg.Driver == config.DriverSQLite {
		path := cfg.DSN()
		if dir := filepath.Dir(path); !strings.HasPrefix(path, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		log.Info().Str("driver", cfg.Driver).Str("path", path).Msg("connecting to database")
		conn, err := gorm.Open(sqlite.Open(withForeignKeys(path)), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return conn, nil
	}

	dsn := NormalizeDSN(cfg.DSN())
	log.Info().Str("driver", cfg.Driver).Str("dsn", MaskDSN(dsn)).Msg("connecting to database")
	var conn *gorm.DB
	var err error
	for i := 1; i <= cfg.ConnectRetries; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Int("max", cfg.ConnectRetries).Msg("database connection failed, retrying")
		if i < cfg.ConnectRetries {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return conn, nil
}

// withForeignKeys turns on sqlite foreign key enforcement for the connection.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// Ping runs a trivial query against the connection.
func Ping(conn *gorm.DB) error {
	return conn.Exec("SELECT 1").Error
}
