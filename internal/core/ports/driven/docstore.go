package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentRegistry holds the documents uploaded during this process.
// It is not persisted; documents are rehydrated from their indexes on demand.
type DocumentRegistry interface {
	// Save stores or replaces a document.
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all documents ordered by upload time.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a document. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, id string) error
}

// UploadStore keeps the original uploaded files.
type UploadStore interface {
	// Save writes r to storage under docID with the given extension.
	// Returns domain.ErrFileTooLarge if more than maxBytes would be written,
	// in which case nothing is kept.
	Save(ctx context.Context, docID, ext string, r io.Reader, maxBytes int64) (path string, size int64, err error)

	// Find returns the path of the stored upload for docID, or domain.ErrNotFound.
	Find(ctx context.Context, docID string) (string, error)

	// Remove deletes the stored file at path. Removing a missing file is a no-op.
	Remove(ctx context.Context, path string) error
}
