package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/shapedtime/tvscraper/internal/library"
)

var bucketDocument = []byte("document")

// BoltBackend keeps the JSON-encoded document in a bbolt bucket.
type BoltBackend struct {
	db  *bolt.DB
	log *slog.Logger
}

// OpenBolt opens or creates the bolt file at path.
func OpenBolt(path string, log *slog.Logger) (*BoltBackend, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDocument)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltBackend{db: db, log: log}, nil
}

// Load decodes the stored document, or returns an empty one.
func (b *BoltBackend) Load(ctx context.Context) (*library.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketDocument).Get(documentKey); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc := emptyDocument()
	if data == nil {
		b.log.Info("no stored document, starting empty")
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Save replaces the stored document.
func (b *BoltBackend) Save(ctx context.Context, doc *library.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		doc = emptyDocument()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocument).Put(documentKey, data)
	})
	if err != nil {
		return err
	}

	b.log.Info("document saved", "nodes", doc.Count(), "bytes", len(data))
	return nil
}

// Close closes the bolt file.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
