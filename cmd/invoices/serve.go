package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stormkeep/invoices/internal/render"
	"github.com/stormkeep/invoices/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer rt.close()

	if rt.cfg.App.SeedCompany {
		// A failed seed only means the first request lands on /settings.
		if _, err := services.NewCompanyService(rt.db).EnsureDefault(cmd.Context()); err != nil {
			rt.log.Error().Err(err).Msg("seeding default company failed")
		}
	}

	app := NewApp(rt.db, render.NewEngine())
	srv := &http.Server{
		Addr:         ":" + rt.cfg.Server.Port,
		Handler:      app.Handler(),
		ReadTimeout:  time.Duration(rt.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(rt.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(rt.cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		rt.log.Info().Str("port", rt.cfg.Server.Port).Bool("dev", rt.cfg.App.Dev).Str("driver", rt.cfg.Database.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	rt.log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Error().Err(err).Msg("error during shutdown")
		return err
	}
	rt.log.Info().Msg("server stopped gracefully")
	return nil
}
