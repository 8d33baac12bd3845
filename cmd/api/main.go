package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PratikDhanave/utm-receiver/internal/config"
	"github.com/PratikDhanave/utm-receiver/internal/httpserver"
	"github.com/PratikDhanave/utm-receiver/internal/logging"
	"github.com/PratikDhanave/utm-receiver/internal/store"
)

// main boots the service: config → DB → schema → HTTP server → shutdown.
func main() {
	if err := run(); err != nil {
		logging.Component("main").Error("fatal", logging.ErrorAttrs(err)...)
		os.Exit(1)
	}
}

func run() error {
	// Load runtime config from environment (DATABASE_URL is required).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel, cfg.LogJSON)
	log := logging.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to Postgres using a connection pool shared by all requests.
	db, err := store.NewPostgresStore(cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	// Ensure utm_clicks exists before accepting traffic.
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	log.Info("database connected and utm_clicks table ready")

	router, err := httpserver.NewRouter(cfg, db)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
