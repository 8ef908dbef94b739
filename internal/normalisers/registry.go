package normalisers

import (
	"context"
	"fmt"
	"mime"
	"slices"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers/image"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// octetStream is the type browsers send when they do not know better.
const octetStream = "application/octet-stream"

// aliases maps non-canonical MIME types onto the canonical form.
var aliases = map[string]string{
	"image/jpg":         "image/jpeg",
	"image/pjpeg":       "image/jpeg",
	"application/x-pdf": "application/pdf",
}

// Registry dispatches documents to the highest-priority normaliser
// registered for their MIME type.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string][]driven.Normaliser)}
}

// NewDefaultRegistry returns a registry with the PDF and image normalisers.
func NewDefaultRegistry(ocr domain.OCRSettings) *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(image.New(image.WithCommand(ocr.Command), image.WithLanguage(ocr.Language)))
	return r
}

// Register adds a normaliser under each of its MIME types.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range n.SupportedMIMETypes() {
		key := canonical(t)
		if slices.Contains(r.byType[key], n) {
			continue
		}
		list := append(r.byType[key], n)
		slices.SortStableFunc(list, func(a, b driven.Normaliser) int {
			return b.Priority() - a.Priority()
		})
		r.byType[key] = list
	}
}

// SupportedMIMETypes returns the canonical MIME types with a normaliser, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Supports reports whether mimeType has a registered normaliser.
func (r *Registry) Supports(mimeType string) bool {
	return r.lookup(canonical(mimeType)) != nil
}

// Normalise extracts raw with the best normaliser for its type. An empty or
// octet-stream type is replaced by one sniffed from the file content.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil || raw.Path == "" {
		return nil, domain.ErrInvalidInput
	}

	mimeType, err := Resolve(raw.Path, raw.MIMEType)
	if err != nil {
		return nil, err
	}

	n := r.lookup(mimeType)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, mimeType)
	}

	logger.Debug("normalising %s as %s", raw.Filename, mimeType)
	doc := *raw
	doc.MIMEType = mimeType
	result, err := n.Normalise(ctx, &doc)
	if err != nil {
		return nil, err
	}
	result.MIMEType = mimeType
	return result, nil
}

// Resolve returns the canonical MIME type for a file, sniffing the content
// when the declared type carries no information.
func Resolve(path, declared string) (string, error) {
	t := canonical(declared)
	if t != "" && t != octetStream {
		return t, nil
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: detect type: %w", domain.ErrExtractionFailed, err)
	}
	return canonical(detected.String()), nil
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if list := r.byType[mimeType]; len(list) > 0 {
		return list[0]
	}
	return nil
}

// canonical lower-cases t, strips parameters and applies aliases.
func canonical(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		t = mt
	} else if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if alias, ok := aliases[t]; ok {
		return alias
	}
	return t
}
