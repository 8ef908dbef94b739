package services

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyTopK             = "retrieval.top_k"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedCacheSize   = "embedding.cache_size"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTimeout       = "llm.timeout_seconds"
	keyLLMHistoryLimit  = "llm.history_limit"
	keyDataDir          = "storage.data_dir"
	keyCacheBackend     = "storage.cache_backend"
	keyMaxUploadMB      = "storage.max_upload_mb"
	keyServerAddr       = "server.addr"
	keyCORSOrigins      = "server.cors_origins"
	keyOCRCommand       = "ocr.command"
	keyOCRLanguage      = "ocr.language"
	keySummaryMaxChars  = "summary.max_chars"
	keySummaryLengthMax = "summary.length_chars"
)

// summaryLengthName is the one named summary length with its own budget.
const summaryLengthName = "length"

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindList
)

// settingKinds lists every recognised key and how its value is parsed.
var settingKinds = map[string]settingKind{
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyTopK:             kindInt,
	keyEmbedProvider:    kindString,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedDimensions:  kindInt,
	keyEmbedCacheSize:   kindInt,
	keyLLMProvider:      kindString,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMTimeout:       kindInt,
	keyLLMHistoryLimit:  kindInt,
	keyDataDir:          kindString,
	keyCacheBackend:     kindString,
	keyMaxUploadMB:      kindInt,
	keyServerAddr:       kindString,
	keyCORSOrigins:      kindList,
	keyOCRCommand:       kindString,
	keyOCRLanguage:      kindString,
	keySummaryMaxChars:  kindInt,
	keySummaryLengthMax: kindInt,
}

// SettingsService resolves application settings from the config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get resolves current settings: defaults, overridden by stored values.
// The result is validated.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := resolve(s.configStore)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Set parses value for key, checks the resulting settings validate and
// persists the value.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindList:
		parsed = splitList(value)
	default:
		parsed = strings.TrimSpace(value)
	}

	candidate := resolve(overlay{ConfigStore: s.configStore, key: key, value: parsed})
	if err := candidate.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns all recognised setting keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Value returns the effective value of one setting as text.
func (s *SettingsService) Value(key string) (string, error) {
	if _, ok := settingKinds[key]; !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return formatSetting(resolve(s.configStore), key), nil
}

// ConfigPath returns the location of the settings file.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// resolve layers stored values over the defaults.
func resolve(store driven.ConfigStore) *domain.AppSettings {
	d := domain.DefaultAppSettings()
	r := reader{store: store}

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Size:    r.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: r.getInt(keyChunkOverlap, d.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: r.getInt(keyTopK, d.Retrieval.TopK),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProvider(r.getString(keyEmbedProvider, string(d.Embedding.Provider))),
			Model:      r.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:    r.getString(keyEmbedBaseURL, d.Embedding.BaseURL),
			APIKey:     r.getString(keyEmbedAPIKey, d.Embedding.APIKey),
			Dimensions: r.getInt(keyEmbedDimensions, d.Embedding.Dimensions),
			CacheSize:  r.getInt(keyEmbedCacheSize, d.Embedding.CacheSize),
		},
		LLM: domain.LLMSettings{
			Provider:     domain.AIProvider(r.getString(keyLLMProvider, string(d.LLM.Provider))),
			Model:        r.getString(keyLLMModel, d.LLM.Model),
			BaseURL:      r.getString(keyLLMBaseURL, d.LLM.BaseURL),
			APIKey:       r.getString(keyLLMAPIKey, d.LLM.APIKey),
			Timeout:      time.Duration(r.getInt(keyLLMTimeout, int(d.LLM.Timeout/time.Second))) * time.Second,
			HistoryLimit: r.getInt(keyLLMHistoryLimit, d.LLM.HistoryLimit),
		},
		Storage: domain.StorageSettings{
			DataDir:        r.getString(keyDataDir, d.Storage.DataDir),
			CacheBackend:   domain.CacheBackend(r.getString(keyCacheBackend, string(d.Storage.CacheBackend))),
			MaxUploadBytes: int64(r.getInt(keyMaxUploadMB, int(d.Storage.MaxUploadBytes>>20))) << 20,
		},
		Server: domain.ServerSettings{
			Addr:        r.getString(keyServerAddr, d.Server.Addr),
			CORSOrigins: r.getList(keyCORSOrigins, d.Server.CORSOrigins),
		},
		OCR: domain.OCRSettings{
			Command:  r.getString(keyOCRCommand, d.OCR.Command),
			Language: r.getString(keyOCRLanguage, d.OCR.Language),
		},
		Summary: domain.SummarySettings{
			Lengths: map[string]int{
				summaryLengthName: r.getInt(keySummaryLengthMax, d.Summary.Lengths[summaryLengthName]),
			},
			DefaultChars: r.getInt(keySummaryMaxChars, d.Summary.DefaultChars),
		},
	}

	if settings.Storage.DataDir == "" {
		settings.Storage.DataDir = filepath.Join(filepath.Dir(store.Path()), "data")
	}
	return settings
}

func formatSetting(s *domain.AppSettings, key string) string {
	switch key {
	case keyChunkSize:
		return strconv.Itoa(s.Chunking.Size)
	case keyChunkOverlap:
		return strconv.Itoa(s.Chunking.Overlap)
	case keyTopK:
		return strconv.Itoa(s.Retrieval.TopK)
	case keyEmbedProvider:
		return string(s.Embedding.Provider)
	case keyEmbedModel:
		return s.Embedding.Model
	case keyEmbedBaseURL:
		return s.Embedding.BaseURL
	case keyEmbedAPIKey:
		return s.Embedding.APIKey
	case keyEmbedDimensions:
		return strconv.Itoa(s.Embedding.Dimensions)
	case keyEmbedCacheSize:
		return strconv.Itoa(s.Embedding.CacheSize)
	case keyLLMProvider:
		return string(s.LLM.Provider)
	case keyLLMModel:
		return s.LLM.Model
	case keyLLMBaseURL:
		return s.LLM.BaseURL
	case keyLLMAPIKey:
		return s.LLM.APIKey
	case keyLLMTimeout:
		return strconv.Itoa(int(s.LLM.Timeout / time.Second))
	case keyLLMHistoryLimit:
		return strconv.Itoa(s.LLM.HistoryLimit)
	case keyDataDir:
		return s.Storage.DataDir
	case keyCacheBackend:
		return string(s.Storage.CacheBackend)
	case keyMaxUploadMB:
		return strconv.FormatInt(s.Storage.MaxUploadBytes>>20, 10)
	case keyServerAddr:
		return s.Server.Addr
	case keyCORSOrigins:
		return strings.Join(s.Server.CORSOrigins, ",")
	case keyOCRCommand:
		return s.OCR.Command
	case keyOCRLanguage:
		return s.OCR.Language
	case keySummaryMaxChars:
		return strconv.Itoa(s.Summary.DefaultChars)
	case keySummaryLengthMax:
		return strconv.Itoa(s.Summary.CharsFor(summaryLengthName))
	default:
		return ""
	}
}

// reader reads typed values with defaults. A key that is present wins even
// when its value is zero.
type reader struct {
	store driven.ConfigStore
}

func (r reader) getString(key, def string) string {
	if v := r.store.GetString(key); v != "" {
		return v
	}
	return def
}

func (r reader) getInt(key string, def int) int {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetInt(key)
}

func (r reader) getList(key string, def []string) []string {
	if v := r.store.GetStringSlice(key); len(v) > 0 {
		return v
	}
	return def
}

// overlay shows one pending value on top of a config store without writing it.
type overlay struct {
	driven.ConfigStore
	key   string
	value any
}

func (o overlay) Get(key string) (any, bool) {
	if key == o.key {
		return o.value, true
	}
	return o.ConfigStore.Get(key)
}

func (o overlay) GetString(key string) string {
	if key == o.key {
		s, _ := o.value.(string)
		return s
	}
	return o.ConfigStore.GetString(key)
}

func (o overlay) GetInt(key string) int {
	if key == o.key {
		n, _ := o.value.(int)
		return n
	}
	return o.ConfigStore.GetInt(key)
}

func (o overlay) GetStringSlice(key string) []string {
	if key == o.key {
		l, _ := o.value.([]string)
		return l
	}
	return o.ConfigStore.GetStringSlice(key)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
