package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal is the in-process hashing embedder.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible API, including LM Studio.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// SupportsGeneration returns true if this provider can serve chat completions.
func (p AIProvider) SupportsGeneration() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Local (feature hashing, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (LM Studio, OpenAI)"
	default:
		return unknownDescription
	}
}

// CacheBackend selects where cache markers are stored.
type CacheBackend string

// Available cache backends.
const (
	// CacheBackendFile stores one JSON marker file per document.
	CacheBackendFile CacheBackend = "file"

	// CacheBackendSQLite stores markers in a SQLite table.
	CacheBackendSQLite CacheBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	return b == CacheBackendFile || b == CacheBackendSQLite
}

// ChunkingSettings controls how page text is split into sub-chunks.
type ChunkingSettings struct {
	// Size is the window length in words.
	Size int

	// Overlap is the number of words shared by consecutive windows.
	// Must be smaller than Size.
	Overlap int
}

// RetrievalSettings controls query-time retrieval.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint for remote providers.
	BaseURL string

	// APIKey is the API key, if the endpoint needs one.
	APIKey string

	// Dimensions is the vector size for the local provider.
	// Remote providers discover it from the first response.
	Dimensions int

	// CacheSize is the number of text embeddings kept in memory. Zero disables the cache.
	CacheSize int
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name sent with each request.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key, if the endpoint needs one.
	APIKey string

	// Timeout bounds each generation call.
	Timeout time.Duration

	// HistoryLimit is how many recent chat turns are sent with a question.
	HistoryLimit int
}

// StorageSettings controls on-disk layout.
type StorageSettings struct {
	// DataDir is the root for uploads, indexes and cache markers.
	DataDir string

	// CacheBackend selects the cache marker store.
	CacheBackend CacheBackend

	// MaxUploadBytes is the largest accepted upload.
	MaxUploadBytes int64
}

// ServerSettings controls the HTTP API.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// CORSOrigins lists allowed origins.
	CORSOrigins []string
}

// OCRSettings controls image text recognition.
type OCRSettings struct {
	// Command is the tesseract executable.
	Command string

	// Language is the tesseract language code.
	Language string
}

// SummarySettings controls how much text is sent for summarisation.
type SummarySettings struct {
	// Lengths maps a requested summary length to a character budget.
	Lengths map[string]int

	// DefaultChars is used for lengths not in Lengths.
	DefaultChars int
}

// CharsFor returns the character budget for a summary length.
func (s SummarySettings) CharsFor(length string) int {
	if n, ok := s.Lengths[length]; ok {
		return n
	}
	return s.DefaultChars
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
	Server    ServerSettings
	OCR       OCRSettings
	Summary   SummarySettings
}

// DefaultAppSettings returns settings with sensible defaults.
// DataDir is left empty; callers resolve it against the config directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    500,
			Overlap: 50,
		},
		Retrieval: RetrievalSettings{
			TopK: 3,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Dimensions: 384,
			CacheSize:  1024,
		},
		LLM: LLMSettings{
			Provider:     AIProviderOpenAI,
			Model:        "local-model",
			BaseURL:      "http://localhost:1234/v1",
			Timeout:      120 * time.Second,
			HistoryLimit: 6,
		},
		Storage: StorageSettings{
			CacheBackend:   CacheBackendFile,
			MaxUploadBytes: 50 * 1024 * 1024,
		},
		Server: ServerSettings{
			Addr:        ":8000",
			CORSOrigins: []string{"*"},
		},
		OCR: OCRSettings{
			Command:  "tesseract",
			Language: "eng",
		},
		Summary: SummarySettings{
			Lengths:      map[string]int{"length": 1000},
			DefaultChars: 4000,
		},
	}
}

// Validate checks settings for values the services cannot run with.
func (s AppSettings) Validate() error {
	if s.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive", ErrInvalidInput)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be in [0, chunking.size)", ErrInvalidInput)
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidInput)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
	}
	if !s.LLM.Provider.SupportsGeneration() {
		return fmt.Errorf("%w: unsupported llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	if !s.Storage.CacheBackend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidInput, s.Storage.CacheBackend)
	}
	if s.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: storage.max_upload_mb must be positive", ErrInvalidInput)
	}
	return nil
}
