package services

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/cache/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/local"
	storagefile "github.com/custodia-labs/docqa/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	answer   string
	parts    []string
	err      error
	streamed int
	calls    [][]driven.ChatMessage
	opts     []driven.GenerateOptions
}

func (m *mockLLM) record(messages []driven.ChatMessage, opts driven.GenerateOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages)
	m.opts = append(m.opts, opts)
}

func (m *mockLLM) Complete(_ context.Context, messages []driven.ChatMessage, opts driven.GenerateOptions) (*driven.Completion, error) {
	m.record(messages, opts)
	if m.err != nil {
		return nil, m.err
	}
	return &driven.Completion{
		Answer: m.answer,
		Model:  "mock",
		Usage:  domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (m *mockLLM) Stream(_ context.Context, messages []driven.ChatMessage, opts driven.GenerateOptions) iter.Seq2[string, error] {
	m.record(messages, opts)
	return func(yield func(string, error) bool) {
		for _, p := range m.parts {
			m.mu.Lock()
			m.streamed++
			m.mu.Unlock()
			if !yield(p, nil) {
				return
			}
		}
		if m.err != nil {
			yield("", m.err)
		}
	}
}

func (m *mockLLM) ModelName() string            { return "mock" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// lastCall returns the messages of the most recent generation call.
func (m *mockLLM) lastCall(t *testing.T) []driven.ChatMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.calls, "generation service was not called")
	return m.calls[len(m.calls)-1]
}

// mapPromptStore implements driven.PromptStore from a fixed map.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", errors.New("no prompt " + name)
	}
	return p, nil
}

func (m mapPromptStore) Reload() {}

func testPrompts() mapPromptStore {
	return mapPromptStore{
		driven.PromptQASystem:        "Answer briefly.",
		driven.PromptQAExamples:      "Q1\n===\nA1\n---\nQ2\n===\nA2",
		driven.PromptQAUser:          "Context:\n%s\n\nQuestion: %s",
		driven.PromptSummarySystem:   "Summarise.",
		driven.PromptSummaryExamples: "Long text\n===\nShort text",
		driven.PromptSummaryUser:     "Summarize:\n%s",
	}
}

// failingEmbedder implements driven.EmbeddingService and always fails.
type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

func (failingEmbedder) Dimensions() int            { return 0 }
func (failingEmbedder) ModelName() string          { return "failing" }
func (failingEmbedder) Ping(context.Context) error { return domain.ErrEmbeddingUnavailable }
func (failingEmbedder) Close() error               { return nil }

// shortEmbedder returns one vector fewer than requested.
type shortEmbedder struct {
	driven.EmbeddingService
}

func (s shortEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := s.EmbeddingService.EmbedBatch(ctx, texts)
	if err != nil || len(vectors) == 0 {
		return vectors, err
	}
	return vectors[:len(vectors)-1], nil
}

// brokenCache implements driven.EmbeddingCache and fails every call.
type brokenCache struct{}

func (brokenCache) Exists(context.Context, string) (bool, error) {
	return false, errors.New("disk full")
}

func (brokenCache) Record(context.Context, string, int) error {
	return errors.New("disk full")
}

func (brokenCache) Forget(context.Context, string) error {
	return errors.New("disk full")
}

func (brokenCache) Close() error { return nil }

func (brokenCache) Get(context.Context, string) (*domain.CacheMarker, error) {
	return nil, errors.New("disk full")
}

// --- Test stack ---

// testStack wires the services over real on-disk adapters in a temp dir.
type testStack struct {
	dataDir   string
	registry  *memory.DocumentRegistry
	uploads   *storagefile.UploadStore
	index     *flat.Index
	cache     driven.EmbeddingCache
	retrieval *RetrievalService
	documents *DocumentService
	query     *QueryService
	llm       *mockLLM
}

type stackOption func(*stackConfig)

type stackConfig struct {
	embedder driven.EmbeddingService
	cache    driven.EmbeddingCache
	chunking domain.ChunkingSettings
	maxBytes int64
}

func withEmbedder(e driven.EmbeddingService) stackOption {
	return func(c *stackConfig) { c.embedder = e }
}

func withCache(c driven.EmbeddingCache) stackOption {
	return func(cfg *stackConfig) { cfg.cache = c }
}

func withChunking(size, overlap int) stackOption {
	return func(c *stackConfig) {
		c.chunking = domain.ChunkingSettings{Size: size, Overlap: overlap}
	}
}

func withMaxUpload(n int64) stackOption {
	return func(c *stackConfig) { c.maxBytes = n }
}

func newTestStack(t *testing.T, opts ...stackOption) *testStack {
	t.Helper()
	dir := t.TempDir()
	defaults := domain.DefaultAppSettings()

	cfg := stackConfig{chunking: defaults.Chunking, maxBytes: defaults.Storage.MaxUploadBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.embedder == nil {
		embedder, err := local.NewEmbeddingService(local.Config{})
		require.NoError(t, err)
		cfg.embedder = embedder
	}
	if cfg.cache == nil {
		cache, err := file.New(dir + "/cache")
		require.NoError(t, err)
		cfg.cache = cache
	}

	pipeline, err := postprocessors.NewDefaultPipeline(cfg.chunking)
	require.NoError(t, err)
	index, err := flat.New(dir + "/indexes")
	require.NoError(t, err)
	uploads, err := storagefile.NewUploadStore(dir + "/uploads")
	require.NoError(t, err)

	s := &testStack{
		dataDir:  dir,
		registry: memory.NewDocumentRegistry(),
		uploads:  uploads,
		index:    index,
		cache:    cfg.cache,
		llm:      &mockLLM{answer: "Paris 🇫🇷", parts: []string{"Paris", " 🇫🇷"}},
	}
	s.retrieval = NewRetrievalService(pipeline, cfg.embedder, index, defaults.Retrieval.TopK)
	s.documents = NewDocumentService(
		s.registry,
		uploads,
		normalisers.NewDefaultRegistry(defaults.OCR),
		s.retrieval,
		index,
		cfg.cache,
		cfg.maxBytes,
	)
	s.query = NewQueryService(s.documents, s.retrieval, s.llm, testPrompts(), QueryConfig{
		HistoryLimit: defaults.LLM.HistoryLimit,
		Summary:      defaults.Summary,
	})
	return s
}
