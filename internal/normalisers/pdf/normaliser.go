// Package pdf extracts per-page text from PDF documents.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the only type this normaliser accepts.
const MIMEType = "application/pdf"

// Normaliser reads PDFs with a pure-Go parser, one PageChunk per non-blank page.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page. Blank pages are skipped but
// still counted in PageCount.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil || raw.Path == "" {
		return nil, domain.ErrInvalidInput
	}

	pages, count, err := extractPages(ctx, raw.Path)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no text found in %s", domain.ErrExtractionFailed, raw.Filename)
	}

	return &driven.NormaliseResult{
		Pages:     pages,
		PageCount: count,
	}, nil
}

// extractPages walks the page tree. The parser panics on some malformed
// inputs, so panics are turned into extraction errors.
func extractPages(ctx context.Context, path string) (pages []domain.PageChunk, count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, count = nil, 0
			err = fmt.Errorf("%w: parse pdf: %v", domain.ErrExtractionFailed, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open pdf: %w", domain.ErrExtractionFailed, err)
	}
	defer f.Close()

	count = reader.NumPage()
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: page %d: %w", domain.ErrExtractionFailed, i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.PageChunk{
			Page:    i,
			Content: text,
			Type:    domain.PageTypePage,
		})
	}
	return pages, count, nil
}
