// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

// Command server runs the TCG Atlas HTTP service: the card catalog query API
// plus the authenticated ingest trigger endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tcgatlas/tcgatlas/internal/api"
	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/database"
	"github.com/tcgatlas/tcgatlas/internal/ingest"
	"github.com/tcgatlas/tcgatlas/internal/logging"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting TCG Atlas")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database open failed: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Database close failed")
		}
	}()

	manager := ingest.NewManager(db, &cfg.Ingest)
	handler := api.NewHandler(db, manager, cfg)
	router := api.NewRouter(handler, cfg)

	// No global WriteTimeout: ingest triggers respond only after a full run,
	// which can take minutes. Query routes get their deadline from the router.
	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router.Setup(),
		ReadTimeout: cfg.Server.Timeout,
		IdleTimeout: 2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-stop:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logging.Info().Msg("Server stopped")
	return nil
}
