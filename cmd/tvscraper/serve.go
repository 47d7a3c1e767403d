package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/shapedtime/tvscraper/internal/api"
	"github.com/shapedtime/tvscraper/internal/library"
	"github.com/shapedtime/tvscraper/internal/metrics"
	"github.com/shapedtime/tvscraper/internal/resolve"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the REST API",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	slog.Info("Starting tvscraper", "config", c.String("config"), "backend", cfg.Storage.Backend)

	var storeOpts []library.Option
	var engineOpts []resolve.Option
	var metricsServer *metrics.Server

	// The store observer must exist before the store, so the collector
	// reads through a reference filled in once the library is loaded.
	stats := &storeStats{}
	if cfg.Metrics.Enabled {
		reg, m := metrics.NewRegistry(stats)
		storeOpts = append(storeOpts, library.WithObserver(m))
		engineOpts = append(engineOpts, resolve.WithRecorder(m))
		metricsServer = metrics.NewServer(cfg.Metrics.Port, reg)
	}

	lib, backend, err := openLibrary(c, cfg, storeOpts, engineOpts)
	if err != nil {
		return err
	}
	defer backend.Close()
	stats.store = lib.Store()

	apiServer := api.NewServer(lib, api.WithAuth(cfg.Server.Auth))
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: apiServer.Handler(),
	}

	go func() {
		slog.Info("Starting REST API server", "port", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("REST API server error", "error", err)
		}
	}()

	if metricsServer != nil {
		go metricsServer.Start()
	}

	slog.Info("tvscraper is ready", "api_url", fmt.Sprintf("http://localhost:%d/api", cfg.Server.HTTPPort))

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("Received signal, shutting down", "signal", sig)

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("REST API server shutdown error", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	if err := lib.Save(ctx); err != nil {
		slog.Error("final save failed", "error", err)
	}

	slog.Info("tvscraper stopped")
	return nil
}

type storeStats struct {
	store *library.Store
}

func (s *storeStats) Stats() map[library.Kind]int {
	if s.store == nil {
		return nil
	}
	return s.store.Stats()
}

func (s *storeStats) WatchedSeasons() ([]library.Attrs, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.WatchedSeasons()
}

func (s *storeStats) ScrapedSeasonsToNotify() ([]library.Attrs, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ScrapedSeasonsToNotify()
}
