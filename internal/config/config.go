// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/stormkeep/invoices/internal/logger"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Log      logger.LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds connection settings for either PostgreSQL or SQLite.
type DatabaseConfig struct {
	Driver string
	// URL overrides the discrete postgres fields when set (postgres://... or key=value list).
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	SQLitePath string

	Debug          bool
	ConnectRetries int
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev         bool
	Migrations  bool
	SeedCompany bool
}

// DSN returns the connection string for the configured driver.
// For postgres it is the key=value form unless URL is set.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		if d.URL != "" {
			return strings.TrimPrefix(d.URL, "sqlite://")
		}
		return d.SQLitePath
	}
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URLString returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URLString() string {
	if d.URL != "" && d.Driver == DriverPostgres {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	dbURL := getEnv("DATABASE_URL", "")
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:         getEnv("DB_DRIVER", driverFromURL(dbURL)),
			URL:            dbURL,
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "invoices"),
			Password:       getEnv("DB_PASSWORD", "invoices123"),
			DBName:         getEnv("DB_NAME", "invoices"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			SQLitePath:     getEnv("SQLITE_PATH", "data/invoices.db"),
			Debug:          getEnvBool("DB_DEBUG", false),
			ConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),
		},
		App: AppConfig{
			Dev:         getEnvBool("DEV", false),
			Migrations:  getEnvBool("MIGRATIONS", false),
			SeedCompany: getEnvBool("SEED_COMPANY", true),
		},
		Log: logger.LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "console"),
			TimeFormat: getEnv("LOG_TIME_FORMAT", logger.DefaultConfig().TimeFormat),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
		},
	}
}

// Validate reports the first configuration value that cannot work.
func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("config: invalid PORT %q", c.Server.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("config: unsupported LOG_FORMAT %q", c.Log.Format)
	}
	if c.Database.ConnectRetries < 1 {
		return fmt.Errorf("config: DB_CONNECT_RETRIES must be at least 1")
	}
	return nil
}

// driverFromURL infers the driver from a DATABASE_URL scheme; postgres is the default.
func driverFromURL(u string) string {
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "sqlite://") || strings.HasPrefix(lower, "file:") || strings.HasSuffix(lower, ".db") {
		return DriverSQLite
	}
	return DriverPostgres
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
