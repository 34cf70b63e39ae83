package db

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/stormkeep/invoices/internal/config"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		SQLitePath:     "file:" + t.Name() + "?mode=memory&cache=shared",
		ConnectRetries: 1,
	}
	conn, err := Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// sqlMigrations is ignored for sqlite; AutoMigrate runs instead.
	if err := Migrate(conn, cfg, true); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Migrating twice must be a no-op.
	if err := Migrate(conn, cfg, false); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := Ping(conn); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"url untouched", "postgres://u:p@h:5432/db", "postgres://u:p@h:5432/db"},
		{"quoted kv gets sslmode", `"host=h  user=u dbname=d"`, "host=h user=u dbname=d sslmode=disable"},
		{"kv keeps sslmode", "host=h user=u dbname=d sslmode=require", "host=h user=u dbname=d sslmode=require"},
		{"garbage untouched", "not-a-dsn", "not-a-dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDSN(tt.in); got != tt.want {
				t.Errorf("NormalizeDSN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=inv password=secret dbname=invoices sslmode=disable")
	want := "postgres://inv:secret@db:5432/invoices?sslmode=disable"
	if got != want {
		t.Fatalf("ToURLDSN() = %q, want %q", got, want)
	}
	if got := ToURLDSN("host=db"); got != "host=db" {
		t.Fatalf("incomplete DSN should be returned unchanged, got %q", got)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=h password=secret user=u"); got != "host=h password=*** user=u" {
		t.Fatalf("kv mask = %q", got)
	}
	if got := MaskDSN("postgres://u:secret@h:5432/db"); got != "postgres://u:***@h:5432/db" {
		t.Fatalf("url mask = %q", got)
	}
}

func TestWithForeignKeys(t *testing.T) {
	if got := withForeignKeys("data/x.db"); got != "data/x.db?_foreign_keys=1" {
		t.Fatalf("got %q", got)
	}
	if got := withForeignKeys("file:x?mode=memory"); got != "file:x?mode=memory&_foreign_keys=1" {
		t.Fatalf("got %q", got)
	}
}
