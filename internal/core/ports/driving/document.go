package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentService manages uploaded documents.
type DocumentService interface {
	// Upload stores, extracts and indexes a new document.
	Upload(ctx context.Context, req UploadRequest) (*domain.DocumentStats, error)

	// IndexFile indexes a document already on local disk without copying it.
	IndexFile(ctx context.Context, path string) (*domain.DocumentStats, error)

	// Get retrieves a document by ID, or domain.ErrNotFound.
	// Documents indexed by an earlier process are rehydrated from their index.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Stats returns the statistics of a document.
	Stats(ctx context.Context, id string) (*domain.DocumentStats, error)

	// List returns all documents known to this process.
	List(ctx context.Context) ([]domain.DocumentStats, error)

	// Delete removes the upload, cache marker, index and registry entry.
	// Returns domain.ErrNotFound if the document is unknown.
	Delete(ctx context.Context, id string) error
}

// UploadRequest describes an incoming file.
type UploadRequest struct {
	// Filename is the client-supplied file name.
	Filename string

	// ContentType is the declared MIME type. Empty or
	// application/octet-stream means "sniff from content".
	ContentType string

	// Body is the file content.
	Body io.Reader
}
