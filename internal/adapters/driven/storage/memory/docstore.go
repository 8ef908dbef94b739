package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure DocumentRegistry implements the interface.
var _ driven.DocumentRegistry = (*DocumentRegistry)(nil)

// DocumentRegistry is an in-memory implementation of driven.DocumentRegistry.
// Records live only as long as the process.
type DocumentRegistry struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewDocumentRegistry creates a new in-memory document registry.
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{
		documents: make(map[string]domain.Document),
	}
}

// Save stores or replaces a document.
func (r *DocumentRegistry) Save(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[doc.ID] = *doc
	return nil
}

// Get retrieves a document by ID.
func (r *DocumentRegistry) Get(_ context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// List returns all documents ordered by upload time, then ID.
func (r *DocumentRegistry) List(_ context.Context) ([]domain.Document, error) {
	r.mu.RLock()
	docs := make([]domain.Document, 0, len(r.documents))
	for _, doc := range r.documents {
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].UploadTime.Equal(docs[j].UploadTime) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].UploadTime.Before(docs[j].UploadTime)
	})
	return docs, nil
}

// Delete removes a document. Unknown IDs are ignored.
func (r *DocumentRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.documents, id)
	return nil
}
