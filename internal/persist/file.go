package persist

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/shapedtime/tvscraper/internal/library"
)

// Codec converts a document to and from its file representation.
type Codec interface {
	Marshal(doc *library.Document) ([]byte, error)
	Unmarshal(data []byte) (*library.Document, error)
}

// CodecFor picks the codec from the file extension: .yaml and .yml use YAML,
// anything else the legacy XML layout.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	}
	return XMLCodec{}
}

// FileBackend keeps the document in a single file next to a lock file.
type FileBackend struct {
	path  string
	codec Codec
	lock  *flock.Flock
	log   *slog.Logger
}

// NewFileBackend creates a backend for the document at path.
func NewFileBackend(path string, log *slog.Logger) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("document path is empty")
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileBackend{
		path:  path,
		codec: CodecFor(path),
		lock:  flock.New(path + ".lock"),
		log:   log,
	}, nil
}

// Path returns the document location.
func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) withLock(fn func() error) error {
	ok, err := b.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", b.path, ErrLocked)
	}
	defer func() {
		if err := b.lock.Unlock(); err != nil {
			b.log.Warn("failed to release document lock", "error", err)
		}
	}()
	return fn()
}

// Load reads the document. A missing file is an empty document.
func (b *FileBackend) Load(ctx context.Context) (*library.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *library.Document
	err := b.withLock(func() error {
		data, err := os.ReadFile(b.path)
		if err != nil {
			if os.IsNotExist(err) {
				b.log.Info("document file not found, starting empty", "path", b.path)
				doc = emptyDocument()
				return nil
			}
			return err
		}
		doc, err = b.codec.Unmarshal(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", b.path, err)
	}

	b.log.Debug("document loaded", "path", b.path, "nodes", doc.Count())
	return doc, nil
}

// Save writes the document to a temporary file and renames it over the old
// one, so readers never see a partial document.
func (b *FileBackend) Save(ctx context.Context, doc *library.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := b.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	err = b.withLock(func() error {
		tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
		if err != nil {
			return err
		}
		tmpName := tmp.Name()
		defer os.Remove(tmpName) // no-op after a successful rename

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmpName, b.path)
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", b.path, err)
	}

	b.log.Info("document saved", "path", b.path, "nodes", doc.Count())
	return nil
}

// Close releases nothing; the lock is only held during Load and Save.
func (b *FileBackend) Close() error { return nil }

// YAMLCodec encodes documents with yaml.v3.
type YAMLCodec struct{}

func (YAMLCodec) Marshal(doc *library.Document) ([]byte, error) {
	if doc == nil {
		doc = emptyDocument()
	}
	return yaml.Marshal(doc)
}

func (YAMLCodec) Unmarshal(data []byte) (*library.Document, error) {
	doc := emptyDocument()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
