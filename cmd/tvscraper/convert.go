package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/shapedtime/tvscraper/internal/config"
	"github.com/shapedtime/tvscraper/internal/persist"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "copy the library from the configured backend to another one",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to-backend", Required: true, Usage: "target backend: file, sqlite, postgres, badger or bolt"},
			&cli.StringFlag{Name: "to-path", Usage: "target file or directory"},
			&cli.StringFlag{Name: "to-dsn", Usage: "target PostgreSQL connection URL"},
		},
		Action: convert,
	}
}

func convert(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	target := config.StorageConfig{
		Backend: c.String("to-backend"),
		Path:    c.String("to-path"),
		DSN:     c.String("to-dsn"),
	}
	if target == cfg.Storage {
		return fmt.Errorf("source and target storage are the same")
	}
	targetCfg := *cfg
	targetCfg.Storage = target
	if err := targetCfg.Validate(); err != nil {
		return err
	}
	if err := targetCfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	src, err := persist.Open(cfg.Storage, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	dst, err := persist.Open(target, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to open target: %w", err)
	}
	defer dst.Close()

	doc, err := src.Load(c.Context)
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	slog.Info("Loaded source document", "backend", cfg.Storage.Backend, "nodes", doc.Count())

	if err := dst.Save(c.Context, doc); err != nil {
		return fmt.Errorf("failed to save target: %w", err)
	}

	// Verify node counts
	check, err := dst.Load(c.Context)
	if err != nil {
		return fmt.Errorf("failed to reload target: %w", err)
	}
	if check.Count() != doc.Count() {
		return fmt.Errorf("node count mismatch: source=%d target=%d", doc.Count(), check.Count())
	}

	slog.Info("Conversion completed successfully", "backend", target.Backend, "nodes", check.Count())
	return nil
}
