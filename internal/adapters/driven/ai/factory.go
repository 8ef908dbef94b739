// Package ai provides factory functions for creating AI service adapters
// and the index and cache they feed.
package ai

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	cachefile "github.com/custodia-labs/docqa/internal/adapters/driven/cache/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/cached"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Subdirectories of the data directory.
const (
	IndexDirName = "indexes"
	CacheDirName = "cache"
)

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	VectorIndex      driven.VectorIndex
	Cache            driven.EmbeddingCache
	PromptStore      *file.PromptStore
	Warnings         []string // Non-fatal issues found while starting up.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.Cache != nil {
		r.Cache.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise creates every AI-facing collaborator from settings.
// An unreachable embedding service is fatal, since nothing can be indexed or
// retrieved without it. An unreachable generation service is only a warning:
// retrieval keeps working and generation errors surface per request.
func Initialise(ctx context.Context, settings *domain.AppSettings, promptDir string) (*InitResult, error) {
	result := &InitResult{}
	ok := false
	defer func() {
		if !ok {
			result.Close()
		}
	}()

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	result.EmbeddingService = embedder

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		return nil, err
	}
	result.LLMService = llm
	if err := ping(ctx, llm.Ping); err != nil {
		msg := fmt.Sprintf("generation service %s at %s is unreachable: %v",
			llm.ModelName(), settings.LLM.BaseURL, err)
		logger.Warn("%s", msg)
		result.Warnings = append(result.Warnings, msg)
	}

	index, err := flat.New(filepath.Join(settings.Storage.DataDir, IndexDirName))
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	result.VectorIndex = index

	cache, err := CreateCache(&settings.Storage)
	if err != nil {
		return nil, err
	}
	result.Cache = cache

	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("open prompt store: %w", err)
	}
	result.PromptStore = prompts

	logger.Debug("Embedding model %s, generation model %s", embedder.ModelName(), llm.ModelName())
	ok = true
	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	ctx context.Context, settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docqa config set embedding.provider local' to work offline",
			domain.ErrEmbeddingUnavailable, err)
	}

	if err := ping(ctx, svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa config set embedding.provider local' to work offline",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()
	return ping(ctx, svc.Ping)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// A positive CacheSize wraps it in an in-memory LRU of text embeddings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, errors.New("embedding settings are required")
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderLocal:
		embedder, err := local.NewEmbeddingService(local.Config{Dimensions: settings.Dimensions})
		if err != nil {
			return nil, err
		}
		svc = embedder

	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		svc = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}

	if settings.CacheSize <= 0 {
		return svc, nil
	}
	wrapped, err := cached.NewEmbeddingService(svc, settings.CacheSize)
	if err != nil {
		svc.Close()
		return nil, err
	}
	return wrapped, nil
}

// CreateLLMService creates the appropriate LLM service based on settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, errors.New("llm settings are required")
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderLocal:
		return nil, errors.New("the local provider only supports embeddings, use openai or ollama")

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateCache opens the cache marker store selected by settings.
func CreateCache(settings *domain.StorageSettings) (driven.EmbeddingCache, error) {
	switch settings.CacheBackend {
	case domain.CacheBackendFile, "":
		cache, err := cachefile.New(filepath.Join(settings.DataDir, CacheDirName))
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return cache, nil

	case domain.CacheBackendSQLite:
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return store.EmbeddingCache(), nil

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", settings.CacheBackend)
	}
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}
