package cli

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockDocumentService knows the documents in docs.
type mockDocumentService struct {
	docs    map[string]*domain.DocumentStats
	indexed []string
	deleted []string
	err     error
}

func (m *mockDocumentService) Upload(_ context.Context, _ driving.UploadRequest) (*domain.DocumentStats, error) {
	return nil, m.err
}

func (m *mockDocumentService) IndexFile(_ context.Context, path string) (*domain.DocumentStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.indexed = append(m.indexed, path)
	return &domain.DocumentStats{
		DocID:          "a1b2c3d4e5f6",
		Filename:       "report.pdf",
		FileType:       domain.FileTypePDF,
		TotalPages:     3,
		TotalWords:     1200,
		ReadingTime:    6,
		ChunkCount:     14,
		UploadTime:     time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		ProcessingTime: 1.5,
	}, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if _, ok := m.docs[id]; !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return &domain.Document{}, nil
}

func (m *mockDocumentService) Stats(_ context.Context, id string) (*domain.DocumentStats, error) {
	stats, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return stats, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentStats, error) {
	out := make([]domain.DocumentStats, 0, len(m.docs))
	for _, s := range m.docs {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// mockRetrievalService returns chunks for every question.
type mockRetrievalService struct {
	chunks []domain.RetrievedChunk
	err    error
	topK   int
}

func (m *mockRetrievalService) Ingest(_ context.Context, _ string, _ []domain.PageChunk) (int, error) {
	return 0, nil
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context, _, _ string, topK int,
) ([]domain.RetrievedChunk, error) {
	m.topK = topK
	return m.chunks, m.err
}

func (m *mockRetrievalService) Forget(_ context.Context, _ string) error {
	return nil
}

// mockQueryService answers every question with answer.
type mockQueryService struct {
	answer    string
	sources   []domain.Source
	err       error
	streamErr error
	asked     []driving.AskRequest
	length    string
}

func (m *mockQueryService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.asked = append(m.asked, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Answer{
		Answer:       m.answer,
		Sources:      m.sources,
		ResponseTime: 0.5,
		TokensUsed:   domain.Usage{TotalTokens: 42},
	}, nil
}

func (m *mockQueryService) AskStream(_ context.Context, req driving.AskRequest) (iter.Seq2[string, error], error) {
	m.asked = append(m.asked, req)
	if m.err != nil {
		return nil, m.err
	}
	parts := strings.SplitAfter(m.answer, " ")
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
		if m.streamErr != nil {
			yield("", m.streamErr)
		}
	}, nil
}

func (m *mockQueryService) Summarise(_ context.Context, _, length string) (*domain.Summary, error) {
	m.length = length
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Summary{Summary: "A short summary.", Length: length}, nil
}

// mockSettingsService keeps settings as text.
type mockSettingsService struct {
	values   map[string]string
	settings domain.AppSettings
}

func newMockSettingsService() *mockSettingsService {
	settings := domain.DefaultAppSettings()
	return &mockSettingsService{
		settings: settings,
		values: map[string]string{
			"llm.api_key":     "sk-1234567890abcdef",
			"llm.base_url":    "http://localhost:1234/v1",
			"retrieval.top_k": "3",
			"server.addr":     "127.0.0.1:0",
		},
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	s.LLM.BaseURL = m.values["llm.base_url"]
	s.Server.Addr = m.values["server.addr"]
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Value(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return v, nil
}

func (m *mockSettingsService) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (m *mockSettingsService) ConfigPath() string {
	return "/tmp/docqa/config.toml"
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	documents *mockDocumentService
	retrieval *mockRetrievalService
	query     *mockQueryService
	settings  *mockSettingsService
}

// setupTestServices installs mocks for every service and returns a
// cleanup func restoring the previous services and flag values.
func setupTestServices() (*testServices, func()) {
	prevSettings, prevDocs, prevRetrieval, prevQuery, prevPrompts :=
		settingsService, documentService, retrievalService, queryService, promptStore
	prevValidate := validateLLM

	ts := &testServices{
		documents: &mockDocumentService{docs: map[string]*domain.DocumentStats{
			"a1b2c3d4e5f6": {DocID: "a1b2c3d4e5f6", Filename: "report.pdf", TotalPages: 3},
		}},
		retrieval: &mockRetrievalService{chunks: []domain.RetrievedChunk{
			{Page: 2, Relevance: 0.91, Content: "The total is 42."},
			{Page: 3, Relevance: 0.55, Content: "Appendix."},
		}},
		query: &mockQueryService{
			answer:  "The total is 42 [Page 2]",
			sources: []domain.Source{{Page: 2, Content: "The total is 42.", Relevance: 0.91}},
		},
		settings: newMockSettingsService(),
	}

	settingsService = ts.settings
	documentService = ts.documents
	retrievalService = ts.retrieval
	queryService = ts.query
	promptStore = nil
	validateLLM = func(context.Context, *domain.LLMSettings) error { return nil }

	return ts, func() {
		settingsService, documentService, retrievalService, queryService, promptStore =
			prevSettings, prevDocs, prevRetrieval, prevQuery, prevPrompts
		validateLLM = prevValidate
		resetFlags()
	}
}

// resetFlags restores command flag variables to their defaults.
func resetFlags() {
	indexJSON = false
	searchTopK, searchJSON = 0, false
	askNoStream, askTopK, askJSON = false, 0, false
	summarizeLength, summarizeJSON = "", false
	serveAddr = ""
	mcpHTTPAddr = ""
}
