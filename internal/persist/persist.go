// Package persist loads and saves the whole library document. Every backend
// swaps the complete document; there are no partial writes.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shapedtime/tvscraper/internal/config"
	"github.com/shapedtime/tvscraper/internal/library"
)

// ErrLocked is returned when another process holds the document lock.
var ErrLocked = errors.New("document is locked by another process")

// Backend stores a library document. Load returns an empty document when
// nothing has been saved yet.
type Backend interface {
	Load(ctx context.Context) (*library.Document, error)
	Save(ctx context.Context, doc *library.Document) error
	Close() error
}

// Open creates the backend selected by the storage configuration.
func Open(cfg config.StorageConfig, log *slog.Logger) (Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "persist", "backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendFile:
		return NewFileBackend(cfg.Path, log)
	case config.BackendSQLite:
		return OpenSQL(DialectSQLite, cfg.Path, log)
	case config.BackendPostgres:
		return OpenSQL(DialectPostgres, cfg.DSN, log)
	case config.BackendBadger:
		return OpenBadger(cfg.Path, log)
	case config.BackendBolt:
		return OpenBolt(cfg.Path, log)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func emptyDocument() *library.Document {
	return &library.Document{}
}
