package services

import (
	"context"
	"fmt"
	"iter"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// sourcePreviewChars is how much of a chunk is shown as a cited source.
const sourcePreviewChars = 200

// DefaultSummaryLength is used when a summary request names no length.
const DefaultSummaryLength = "medium"

var (
	streamOptions = driven.GenerateOptions{
		MaxTokens:   150,
		Temperature: 0.5,
		StopWords:   []string{"\n\n\n", "In summary", "To summarize"},
	}
	completeOptions = driven.GenerateOptions{
		MaxTokens:   150,
		Temperature: 0.3,
		StopWords:   []string{"\n\n\n", "In conclusion"},
	}
)

// QueryConfig holds the settings a QueryService reads per call.
type QueryConfig struct {
	// HistoryLimit is how many trailing chat turns are sent. Zero sends none.
	HistoryLimit int

	// Summary maps summary lengths to character budgets.
	Summary domain.SummarySettings
}

// QueryService answers questions about documents and summarises them.
type QueryService struct {
	documents driving.DocumentService
	retrieval driving.RetrievalService
	llm       driven.LLMService
	messages  messageBuilder
	cfg       QueryConfig
}

// NewQueryService creates a new query service.
func NewQueryService(
	documents driving.DocumentService,
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg QueryConfig,
) *QueryService {
	return &QueryService{
		documents: documents,
		retrieval: retrieval,
		llm:       llm,
		messages:  messageBuilder{prompts: prompts},
		cfg:       cfg,
	}
}

// Ask answers a question from the document's most relevant chunks.
// When nothing relevant is found the answer is a fixed message and the
// generation service is not called.
func (s *QueryService) Ask(ctx context.Context, req driving.AskRequest) (*domain.Answer, error) {
	logger.Section("Ask")
	start := time.Now()

	chunks, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return &domain.Answer{
			Answer:       domain.NoRelevantInformation,
			Sources:      []domain.Source{},
			ResponseTime: elapsed(start),
		}, nil
	}

	messages, err := s.messages.qa(chunks, req.Question, s.history(req.History))
	if err != nil {
		return nil, err
	}

	completion, err := s.llm.Complete(ctx, messages, completeOptions)
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	logger.Debug("Answer from %s: %d tokens", completion.Model, completion.Usage.TotalTokens)

	return &domain.Answer{
		Answer:       completion.Answer,
		Sources:      sources(chunks),
		ResponseTime: elapsed(start),
		TokensUsed:   completion.Usage,
	}, nil
}

// AskStream answers a question fragment by fragment. Unknown documents and
// retrieval failures are reported before any fragment is produced.
func (s *QueryService) AskStream(ctx context.Context, req driving.AskRequest) (iter.Seq2[string, error], error) {
	logger.Section("Ask (stream)")

	chunks, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return func(yield func(string, error) bool) {
			yield(domain.NoRelevantInformation, nil)
		}, nil
	}

	messages, err := s.messages.qa(chunks, req.Question, s.history(req.History))
	if err != nil {
		return nil, err
	}

	return s.llm.Stream(ctx, messages, streamOptions), nil
}

// Summarise summarises the start of a document. length selects how many
// characters of the document text are sent.
func (s *QueryService) Summarise(ctx context.Context, docID, length string) (*domain.Summary, error) {
	logger.Section("Summarise")
	start := time.Now()

	if length = strings.TrimSpace(length); length == "" {
		length = DefaultSummaryLength
	}

	doc, err := s.documents.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	text := truncateRunes(doc.FullText(), s.cfg.Summary.CharsFor(length))
	logger.Debug("Summarising %s: %d chars (length %q)", docID, utf8.RuneCountInString(text), length)

	messages, err := s.messages.summary(text)
	if err != nil {
		return nil, err
	}

	completion, err := s.llm.Complete(ctx, messages, completeOptions)
	if err != nil {
		return nil, fmt.Errorf("summarise: %w", err)
	}

	return &domain.Summary{
		Summary:      completion.Answer,
		Length:       length,
		ResponseTime: elapsed(start),
	}, nil
}

// prepare checks the request and the document, then retrieves context.
func (s *QueryService) prepare(ctx context.Context, req driving.AskRequest) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if _, err := s.documents.Get(ctx, req.DocID); err != nil {
		return nil, err
	}

	chunks, err := s.retrieval.Retrieve(ctx, req.DocID, req.Question, req.TopK)
	if err != nil {
		return nil, err
	}
	logger.Debug("Question %q: %d chunks", req.Question, len(chunks))
	return chunks, nil
}

func (s *QueryService) history(turns []domain.ChatTurn) []domain.ChatTurn {
	if s.cfg.HistoryLimit <= 0 {
		return nil
	}
	if len(turns) > s.cfg.HistoryLimit {
		return turns[len(turns)-s.cfg.HistoryLimit:]
	}
	return turns
}

func sources(chunks []domain.RetrievedChunk) []domain.Source {
	out := make([]domain.Source, len(chunks))
	for i, c := range chunks {
		out[i] = domain.Source{
			Page:      c.Page,
			Content:   truncateRunes(c.Content, sourcePreviewChars) + "...",
			Relevance: round2(c.Relevance),
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func elapsed(start time.Time) float64 {
	return round2(time.Since(start).Seconds())
}
