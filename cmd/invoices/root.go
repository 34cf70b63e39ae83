package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/stormkeep/invoices/internal/config"
	"github.com/stormkeep/invoices/internal/db"
	"github.com/stormkeep/invoices/internal/logger"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "invoices",
	Short: "StormKeep invoice manager",
	Long: `Manage recipients, invoices and the company profile, and export
invoices as HTML or A4 PDF documents.

Configuration is read from the environment (and a .env file when present).
Running without a subcommand starts the web server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deps is what every subcommand needs once configuration is loaded.
type deps struct {
	cfg *config.Config
	db  *gorm.DB
	log zerolog.Logger
}

// bootstrap loads .env and config, configures logging and opens the database.
// When migrate is true the schema is brought up to date before returning.
func bootstrap(migrate bool) (*deps, error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	log := logger.WithComponent("main")

	conn, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if migrate {
		if err := db.Migrate(conn, cfg.Database, cfg.App.Migrations); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &deps{cfg: cfg, db: conn, log: log}, nil
}

func (rt *deps) close() {
	if sqlDB, err := rt.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
