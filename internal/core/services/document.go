package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// unknownExt is given to uploads whose file name has no extension.
const unknownExt = ".bin"

// DocumentService manages uploaded documents: storage, extraction,
// indexing and removal.
type DocumentService struct {
	registry    driven.DocumentRegistry
	uploads     driven.UploadStore
	normalisers driven.NormaliserRegistry
	retrieval   driving.RetrievalService
	index       driven.VectorIndex
	cache       driven.EmbeddingCache
	maxUpload   int64
}

// NewDocumentService creates a new document service.
// The cache is optional (can be nil).
func NewDocumentService(
	registry driven.DocumentRegistry,
	uploads driven.UploadStore,
	normalisers driven.NormaliserRegistry,
	retrieval driving.RetrievalService,
	index driven.VectorIndex,
	cache driven.EmbeddingCache,
	maxUploadBytes int64,
) *DocumentService {
	return &DocumentService{
		registry:    registry,
		uploads:     uploads,
		normalisers: normalisers,
		retrieval:   retrieval,
		index:       index,
		cache:       cache,
		maxUpload:   maxUploadBytes,
	}
}

// Upload stores the file, extracts its text and indexes it.
// On any failure after the file was stored, the stored file is removed.
func (s *DocumentService) Upload(ctx context.Context, req driving.UploadRequest) (*domain.DocumentStats, error) {
	logger.Section("Upload")

	filename := filepath.Base(strings.TrimSpace(req.Filename))
	if req.Body == nil || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: a file is required", domain.ErrInvalidInput)
	}

	uploadedAt := time.Now()
	id := domain.NewDocumentID(filename, uploadedAt)

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = unknownExt
	}
	path, size, err := s.uploads.Save(ctx, id, ext, req.Body, s.maxUpload)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	logger.Debug("Stored %s as %s (%d bytes)", filename, path, size)

	doc, err := s.process(ctx, id, filename, path, req.ContentType, uploadedAt)
	if err != nil {
		if rmErr := s.uploads.Remove(context.WithoutCancel(ctx), path); rmErr != nil {
			logger.Warn("Failed to remove upload %s: %v", path, rmErr)
		}
		return nil, fmt.Errorf("upload: %w", err)
	}

	stats := doc.Stats()
	return &stats, nil
}

// IndexFile indexes a local file in place.
func (s *DocumentService) IndexFile(ctx context.Context, path string) (*domain.DocumentStats, error) {
	logger.Section("Index File")

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("index file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	uploadedAt := time.Now()
	filename := filepath.Base(abs)
	doc, err := s.process(ctx, domain.NewDocumentID(filename, uploadedAt), filename, abs, "", uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("index file: %w", err)
	}

	stats := doc.Stats()
	return &stats, nil
}

// process extracts, indexes and registers one stored file.
func (s *DocumentService) process(
	ctx context.Context, id, filename, path, mimeType string, uploadedAt time.Time,
) (*domain.Document, error) {
	start := time.Now()

	result, err := s.normalisers.Normalise(ctx, &domain.RawDocument{
		Path:     path,
		Filename: filename,
		MIMEType: mimeType,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Extracted %d of %d pages from %s", len(result.Pages), result.PageCount, filename)

	chunkCount, err := s.ingest(ctx, id, result.Pages)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:         id,
		Filename:   filename,
		FileType:   domain.FileTypeFor(result.MIMEType),
		MIMEType:   result.MIMEType,
		FilePath:   path,
		TotalPages: result.PageCount,
		ChunkCount: chunkCount,
		UploadTime: uploadedAt,
		Pages:      result.Pages,
	}
	applyTextStats(doc)
	doc.ProcessingTime = time.Since(start)

	if err := s.registry.Save(ctx, doc); err != nil {
		_ = s.retrieval.Forget(context.WithoutCancel(ctx), id)
		return nil, fmt.Errorf("register document: %w", err)
	}

	logger.Info("Indexed %s as %s: %d pages, %d chunks in %v",
		filename, id, doc.TotalPages, chunkCount, doc.ProcessingTime)
	return doc, nil
}

// ingest indexes pages unless a cache marker and a persisted index already
// exist for id. Cache failures are logged and treated as a miss.
func (s *DocumentService) ingest(ctx context.Context, id string, pages []domain.PageChunk) (int, error) {
	if marker := s.cachedMarker(ctx, id); marker != nil {
		if ok, err := s.index.Exists(ctx, id); err == nil && ok {
			logger.Debug("Using cached embeddings for %s", id)
			return marker.ChunkCount, nil
		}
	}

	count, err := s.retrieval.Ingest(ctx, id, pages)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Record(ctx, id, count); err != nil {
			logger.Warn("Failed to record cache marker for %s: %v", id, err)
		}
	}
	return count, nil
}

func (s *DocumentService) cachedMarker(ctx context.Context, id string) *domain.CacheMarker {
	if s.cache == nil {
		return nil
	}
	marker, err := s.cache.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Cache lookup for %s failed: %v", id, err)
		}
		return nil
	}
	return marker
}

// Get returns a document. Documents that are not in the registry but have a
// persisted index are rebuilt from the index metadata and registered.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.registry.Get(ctx, id)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.rehydrate(ctx, id)
}

func (s *DocumentService) rehydrate(ctx context.Context, id string) (*domain.Document, error) {
	meta, err := s.index.Metadata(ctx, id)
	if errors.Is(err, domain.ErrIndexNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}

	doc := &domain.Document{
		ID:         id,
		Filename:   id,
		FileType:   domain.FileTypePDF,
		ChunkCount: len(meta),
	}

	if path, err := s.uploads.Find(ctx, id); err == nil {
		doc.FilePath = path
		doc.Filename = filepath.Base(path)
		doc.MIMEType = mime.TypeByExtension(filepath.Ext(path))
		doc.FileType = domain.FileTypeFor(doc.MIMEType)
	}
	if marker := s.cachedMarker(ctx, id); marker != nil {
		doc.UploadTime = marker.Timestamp
	}

	pageType := domain.PageTypePage
	if doc.FileType == domain.FileTypeImage {
		pageType = domain.PageTypeImage
	}
	doc.Pages = pagesFromChunks(meta, pageType)
	for _, p := range doc.Pages {
		doc.TotalPages = max(doc.TotalPages, p.Page)
	}
	applyTextStats(doc)

	if err := s.registry.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}
	logger.Debug("Rehydrated %s from its index (%d chunks)", id, len(meta))
	return doc, nil
}

// Stats returns the statistics of a document.
func (s *DocumentService) Stats(ctx context.Context, id string) (*domain.DocumentStats, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stats := doc.Stats()
	return &stats, nil
}

// List returns the statistics of every registered document, oldest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentStats, error) {
	docs, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := make([]domain.DocumentStats, len(docs))
	for i := range docs {
		stats[i] = docs[i].Stats()
	}
	return stats, nil
}

// Delete removes everything stored for a document: the upload, the cache
// marker, the index and the registry entry.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	logger.Section("Delete")

	_, err := s.registry.Get(ctx, id)
	known := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if !known {
		exists, err := s.index.Exists(ctx, id)
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			// No index or upload can be stored under a malformed id.
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
		case err != nil:
			return fmt.Errorf("delete: %w", err)
		}
		known = exists
	}

	path, err := s.uploads.Find(ctx, id)
	switch {
	case err == nil:
		known = true
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		path = ""
	default:
		return fmt.Errorf("delete: %w", err)
	}

	if !known {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}

	if err := s.uploads.Remove(ctx, path); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Forget(ctx, id); err != nil {
			logger.Warn("Failed to remove cache marker for %s: %v", id, err)
		}
	}
	if err := s.retrieval.Forget(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := s.registry.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	logger.Info("Deleted document %s", id)
	return nil
}

func applyTextStats(doc *domain.Document) {
	stats := domain.ComputeTextStats(doc.FullText())
	doc.TotalWords = stats.Words
	doc.TotalChars = stats.Chars
	doc.ReadingTime = stats.ReadingTime
}

// pagesFromChunks rebuilds page text from stored sub-chunks. Consecutive
// windows of a page are joined with their shared words counted once.
// Heavily repetitive text may lose words at window boundaries.
func pagesFromChunks(chunks []domain.SubChunk, pageType domain.PageType) []domain.PageChunk {
	var pages []domain.PageChunk
	var words []string
	current := -1

	flush := func(page int) {
		if len(words) > 0 {
			pages = append(pages, domain.PageChunk{Page: page, Content: strings.Join(words, " "), Type: pageType})
		}
		words = nil
	}

	lastPage := 0
	for _, c := range chunks {
		if c.ChunkIndex != current {
			flush(lastPage)
			current = c.ChunkIndex
		}
		lastPage = c.SourcePage

		next := strings.Fields(c.Content)
		words = append(words, next[sharedWords(words, next):]...)
	}
	flush(lastPage)

	return pages
}

// sharedWords returns the length of the longest suffix of a that is a prefix of b.
func sharedWords(a, b []string) int {
	for k := min(len(a), len(b)); k > 0; k-- {
		if slices.Equal(a[len(a)-k:], b[:k]) {
			return k
		}
	}
	return 0
}
