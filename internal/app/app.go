// Package app assembles the services from settings. Driving adapters
// (CLI, HTTP, MCP, TUI) receive the assembled services and never build
// adapters themselves.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	storagefile "github.com/custodia-labs/docqa/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// Directory names below the config and data directories.
const (
	PromptDirName = "prompts"
	UploadDirName = "uploads"
)

// DefaultEnvFile is loaded from the working directory when present.
const DefaultEnvFile = ".env"

// Options controls where settings are read from.
type Options struct {
	// ConfigDir holds config.toml and the prompt templates.
	// Empty means ~/.docqa.
	ConfigDir string

	// EnvFiles are dotenv files loaded before DOCQA_ overrides are read.
	// Nil loads DefaultEnvFile.
	EnvFiles []string
}

// App holds the assembled services.
type App struct {
	Settings        *domain.AppSettings
	SettingsService *services.SettingsService
	Documents       *services.DocumentService
	Retrieval       *services.RetrievalService
	Query           *services.QueryService
	Prompts         *file.PromptStore

	// Warnings lists non-fatal startup problems, such as an unreachable
	// generation service.
	Warnings []string

	ai *ai.InitResult
}

// LoadSettings opens the config store and applies environment overrides.
func LoadSettings(opts Options) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{DefaultEnvFile}
	}
	if err := store.LoadEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	return services.NewSettingsService(store), nil
}

// New loads settings and builds every service.
func New(ctx context.Context, opts Options) (*App, error) {
	settingsService, err := LoadSettings(opts)
	if err != nil {
		return nil, err
	}
	return FromSettings(ctx, settingsService)
}

// FromSettings builds every service from already loaded settings.
func FromSettings(ctx context.Context, settingsService *services.SettingsService) (*App, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	logger.Section("Starting docqa")
	logger.Debug("Config: %s", settingsService.ConfigPath())
	logger.Debug("Data: %s", settings.Storage.DataDir)

	promptDir := filepath.Join(filepath.Dir(settingsService.ConfigPath()), PromptDirName)
	initResult, err := ai.Initialise(ctx, settings, promptDir)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			initResult.Close()
		}
	}()

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Chunking)
	if err != nil {
		return nil, fmt.Errorf("chunking: %w", err)
	}
	uploads, err := storagefile.NewUploadStore(filepath.Join(settings.Storage.DataDir, UploadDirName))
	if err != nil {
		return nil, fmt.Errorf("open upload store: %w", err)
	}

	retrieval := services.NewRetrievalService(
		pipeline,
		initResult.EmbeddingService,
		initResult.VectorIndex,
		settings.Retrieval.TopK,
	)
	documents := services.NewDocumentService(
		memory.NewDocumentRegistry(),
		uploads,
		normalisers.NewDefaultRegistry(settings.OCR),
		retrieval,
		initResult.VectorIndex,
		initResult.Cache,
		settings.Storage.MaxUploadBytes,
	)
	query := services.NewQueryService(documents, retrieval, initResult.LLMService, initResult.PromptStore,
		services.QueryConfig{
			HistoryLimit: settings.LLM.HistoryLimit,
			Summary:      settings.Summary,
		})

	ok = true
	return &App{
		Settings:        settings,
		SettingsService: settingsService,
		Documents:       documents,
		Retrieval:       retrieval,
		Query:           query,
		Prompts:         initResult.PromptStore,
		Warnings:        initResult.Warnings,
		ai:              initResult,
	}, nil
}

// Close releases the embedding, generation, index and cache resources.
func (a *App) Close() {
	if a == nil || a.ai == nil {
		return
	}
	a.ai.Close()
}
