package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Normaliser extracts page-tagged text from one kind of document.
// Each normaliser handles specific MIME types (e.g., PDF, PNG).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Normalise extracts the pages of raw.
	// Returns domain.ErrExtractionFailed if no text is recoverable.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of extraction.
type NormaliseResult struct {
	// Pages holds one chunk per page with text, in page order.
	Pages []domain.PageChunk

	// PageCount is the number of pages in the source, including blank ones.
	PageCount int

	// MIMEType is the canonical type the document was extracted as.
	// Set by the registry.
	MIMEType string
}
