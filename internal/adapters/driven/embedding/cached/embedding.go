// Package cached wraps an embedding service with an in-memory LRU cache
// keyed by the SHA-256 of the input text.
package cached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves repeated texts from memory and forwards misses
// to the wrapped service. Returned vectors are copies; callers may modify them.
type EmbeddingService struct {
	inner driven.EmbeddingService
	cache *lru.Cache[string, []float32]
}

// NewEmbeddingService wraps inner with a cache holding up to size vectors.
func NewEmbeddingService(inner driven.EmbeddingService, size int) (*EmbeddingService, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner embedding service is nil", domain.ErrInvalidInput)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: cache size must be greater than zero", domain.ErrInvalidInput)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return &EmbeddingService{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, computing it on a miss.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vec, ok := s.cache.Get(key); ok {
		return cloneVector(vec), nil
	}
	vec, err := s.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, cloneVector(vec))
	return vec, nil
}

// EmbedBatch embeds only the distinct texts that are not cached, in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missing := make(map[string][]int)
	var order []string
	for i, text := range texts {
		if vec, ok := s.cache.Get(cacheKey(text)); ok {
			results[i] = cloneVector(vec)
			continue
		}
		if _, seen := missing[text]; !seen {
			order = append(order, text)
		}
		missing[text] = append(missing[text], i)
	}
	if len(order) == 0 {
		return results, nil
	}

	embedded, err := s.inner.EmbedBatch(ctx, order)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(order) {
		return nil, fmt.Errorf("received %d embeddings for %d texts", len(embedded), len(order))
	}
	for i, text := range order {
		for _, idx := range missing[text] {
			results[idx] = cloneVector(embedded[i])
		}
		s.cache.Add(cacheKey(text), cloneVector(embedded[i]))
	}
	return results, nil
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping forwards to the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	return s.cache.Len()
}

// Close purges the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Purge()
	return s.inner.Close()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if src == nil {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}
