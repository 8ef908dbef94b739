// Package file provides filesystem-backed storage adapters.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure UploadStore implements the interface.
var _ driven.UploadStore = (*UploadStore)(nil)

// UploadStore keeps uploaded originals as <dir>/<doc_id><ext>.
type UploadStore struct {
	dir string
}

// NewUploadStore creates an upload store rooted at dir, creating it if needed.
func NewUploadStore(dir string) (*UploadStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: upload directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// Dir returns the upload directory.
func (s *UploadStore) Dir() string {
	return s.dir
}

// Save streams r to disk, rejecting bodies larger than maxBytes.
// The file only appears under its final name once fully written.
func (s *UploadStore) Save(ctx context.Context, docID, ext string, r io.Reader, maxBytes int64) (string, int64, error) {
	if docID == "" || strings.ContainsAny(docID, `/\.`) {
		return "", 0, fmt.Errorf("%w: invalid document id %q", domain.ErrInvalidInput, docID)
	}
	if maxBytes <= 0 {
		return "", 0, fmt.Errorf("%w: upload limit must be positive", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	ext = normaliseExt(ext)

	tmpPath := filepath.Join(s.dir, docID+"."+uuid.NewString()+".part")
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(r, maxBytes+1))
	closeErr := f.Close()

	fail := func(err error) (string, int64, error) {
		_ = os.Remove(tmpPath)
		return "", 0, err
	}
	if copyErr != nil {
		return fail(fmt.Errorf("write upload: %w", copyErr))
	}
	if closeErr != nil {
		return fail(fmt.Errorf("close upload: %w", closeErr))
	}
	if n > maxBytes {
		return fail(fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, maxBytes))
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	finalPath := filepath.Join(s.dir, docID+ext)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fail(fmt.Errorf("commit upload: %w", err))
	}
	return finalPath, n, nil
}

// Remove deletes a stored upload. Missing files are ignored.
func (s *UploadStore) Remove(_ context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// Find returns the stored upload for docID, or domain.ErrNotFound.
func (s *UploadStore) Find(_ context.Context, docID string) (string, error) {
	if docID == "" || strings.ContainsAny(docID, `/\.*?[`) {
		return "", fmt.Errorf("%w: invalid document id %q", domain.ErrInvalidInput, docID)
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, docID+".*"))
	if err != nil {
		return "", fmt.Errorf("find upload: %w", err)
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, ".part") {
			return m, nil
		}
	}
	return "", domain.ErrNotFound
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.ContainsAny(ext[1:], `/\.`) {
		return ""
	}
	return ext
}
