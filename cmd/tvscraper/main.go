package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shapedtime/tvscraper/internal/config"
	"github.com/shapedtime/tvscraper/internal/library"
	"github.com/shapedtime/tvscraper/internal/persist"
	"github.com/shapedtime/tvscraper/internal/resolve"
	"github.com/shapedtime/tvscraper/internal/service"
)

func main() {
	app := &cli.App{
		Name:  "tvscraper",
		Usage: "track TV shows and pick the best file for every episode",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to configuration file",
				EnvVars: []string{"TVSCRAPER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			showsCommand(),
			bestCommand(),
			convertCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration and installs the default logger.
func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	slog.SetDefault(newLogger(cfg.Log))
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// openLibrary opens the configured backend and loads the library from it.
func openLibrary(c *cli.Context, cfg *config.Config, storeOpts []library.Option, engineOpts []resolve.Option) (*service.Library, persist.Backend, error) {
	backend, err := persist.Open(cfg.Storage, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	storeOpts = append([]library.Option{library.WithLogger(slog.With("component", "store"))}, storeOpts...)
	store := library.NewStore(storeOpts...)

	engineOpts = append([]resolve.Option{resolve.WithLogger(slog.With("component", "resolve"))}, engineOpts...)
	engine := resolve.NewEngine(store, engineOpts...)

	lib := service.New(store, backend, engine)
	if err := lib.Load(c.Context); err != nil {
		backend.Close()
		return nil, nil, err
	}
	return lib, backend, nil
}
