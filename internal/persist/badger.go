package persist

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"

	"github.com/shapedtime/tvscraper/internal/library"
)

var documentKey = []byte("tvscraper/document")

// BadgerBackend keeps the gob-encoded document under a single Badger key.
type BadgerBackend struct {
	db  *badger.DB
	log *slog.Logger
}

// badgerLogger adapts slog for Badger's logger interface.
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(f, v...))
}

func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(f, v...))
}

// OpenBadger opens or creates the Badger database in dir.
func OpenBadger(dir string, log *slog.Logger) (*BadgerBackend, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(&badgerLogger{log: log}).
		WithValueLogFileSize(1<<26 - 1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	// Run garbage collection
	err = db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		db.Close()
		return nil, err
	}

	return &BadgerBackend{db: db, log: log}, nil
}

// Load decodes the stored document, or returns an empty one.
func (b *BadgerBackend) Load(ctx context.Context) (*library.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx := b.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get(documentKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		b.log.Info("no stored document, starting empty")
		return emptyDocument(), nil
	}
	if err != nil {
		return nil, err
	}

	valb, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	doc := emptyDocument()
	if err := gob.NewDecoder(bytes.NewReader(valb)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Save replaces the stored document.
func (b *BadgerBackend) Save(ctx context.Context, doc *library.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		doc = emptyDocument()
	}

	var value bytes.Buffer
	if err := gob.NewEncoder(&value).Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tx := b.db.NewTransaction(true)
	defer tx.Discard()

	if err := tx.SetEntry(badger.NewEntry(documentKey, value.Bytes())); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	b.log.Info("document saved", "nodes", doc.Count(), "bytes", value.Len())
	return nil
}

// Close shuts down the Badger database.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
