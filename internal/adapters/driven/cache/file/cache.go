// Package file provides an EmbeddingCache that keeps one JSON marker file per document.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	storagefile "github.com/custodia-labs/docqa/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

const markerSuffix = "_embeddings.json"

// Cache stores markers as <dir>/<doc_id>_embeddings.json.
type Cache struct {
	dir string
	now func() time.Time
}

// New creates a file cache rooted at dir, creating it if needed.
func New(dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: cache directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{dir: dir, now: time.Now}, nil
}

// Exists reports whether a marker file exists for docID.
func (c *Cache) Exists(_ context.Context, docID string) (bool, error) {
	path, err := c.path(docID)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat marker: %w", err)
	}
	return true, nil
}

// Record writes the marker for docID, replacing any existing one.
func (c *Cache) Record(_ context.Context, docID string, chunkCount int) error {
	path, err := c.path(docID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(domain.CacheMarker{
		DocID:      docID,
		Timestamp:  c.now().UTC(),
		ChunkCount: chunkCount,
	})
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}

	err = storagefile.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}

// Get reads the marker for docID, or returns domain.ErrNotFound.
func (c *Cache) Get(_ context.Context, docID string) (*domain.CacheMarker, error) {
	path, err := c.path(docID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read marker: %w", err)
	}
	var marker domain.CacheMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("decode marker: %w", err)
	}
	return &marker, nil
}

// Forget removes the marker file for docID if present.
func (c *Cache) Forget(_ context.Context, docID string) error {
	path, err := c.path(docID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove marker: %w", err)
	}
	return nil
}

// Close releases resources.
func (c *Cache) Close() error {
	return nil
}

func (c *Cache) path(docID string) (string, error) {
	if docID == "" || strings.ContainsAny(docID, `/\`) || docID == "." || docID == ".." {
		return "", fmt.Errorf("%w: invalid document id %q", domain.ErrInvalidInput, docID)
	}
	return filepath.Join(c.dir, docID+markerSuffix), nil
}
