package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf/pdftest"
)

// fakeLLM serves an OpenAI-compatible API answering every question with answer.
func fakeLLM(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models":
			_, _ = w.Write([]byte(`{"data":[]}`))
		case "/chat/completions":
			var req struct {
				Stream bool `json:"stream"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Stream {
				w.Header().Set("Content-Type", "text/event-stream")
				for _, word := range strings.SplitAfter(answer, " ") {
					data, _ := json.Marshal(map[string]any{
						"choices": []map[string]any{{"delta": map[string]string{"content": word}}},
					})
					fmt.Fprintf(w, "data: %s\n\n", data)
				}
				fmt.Fprint(w, "data: [DONE]\n\n")
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model":   "test-model",
				"choices": []map[string]any{{"message": map[string]string{"content": answer}}},
				"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, llmURL string) *App {
	t.Helper()
	configDir := t.TempDir()

	settingsService, err := LoadSettings(Options{ConfigDir: configDir, EnvFiles: []string{}})
	require.NoError(t, err)
	require.NoError(t, settingsService.Set("llm.base_url", llmURL))
	require.NoError(t, settingsService.Set("embedding.dimensions", "128"))

	a, err := FromSettings(context.Background(), settingsService)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestLoadSettings_Defaults(t *testing.T) {
	configDir := t.TempDir()

	settingsService, err := LoadSettings(Options{ConfigDir: configDir, EnvFiles: []string{}})
	require.NoError(t, err)

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configDir, "config.toml"), settingsService.ConfigPath())
	assert.Equal(t, filepath.Join(configDir, "data"), settings.Storage.DataDir)
	assert.Equal(t, domain.AIProviderLocal, settings.Embedding.Provider)
}

func TestLoadSettings_EnvFile(t *testing.T) {
	configDir := t.TempDir()
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DOCQA_RETRIEVAL_TOP_K=7\n"), 0o600))
	t.Setenv("DOCQA_RETRIEVAL_TOP_K", "")
	require.NoError(t, os.Unsetenv("DOCQA_RETRIEVAL_TOP_K"))

	settingsService, err := LoadSettings(Options{ConfigDir: configDir, EnvFiles: []string{envFile}})
	require.NoError(t, err)

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, settings.Retrieval.TopK)
}

func TestFromSettings_InvalidSettings(t *testing.T) {
	t.Setenv("DOCQA_CHUNKING_OVERLAP", "900")

	settingsService, err := LoadSettings(Options{ConfigDir: t.TempDir(), EnvFiles: []string{}})
	require.NoError(t, err)

	_, err = FromSettings(context.Background(), settingsService)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFromSettings_UnreachableLLMIsAWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	a := newTestApp(t, srv.URL)

	require.Len(t, a.Warnings, 1)
	assert.Contains(t, a.Warnings[0], "unreachable")
	assert.NotNil(t, a.Query)
}

func TestFromSettings_Layout(t *testing.T) {
	a := newTestApp(t, fakeLLM(t, "ok").URL)

	for _, dir := range []string{"indexes", "cache", UploadDirName} {
		info, err := os.Stat(filepath.Join(a.Settings.Storage.DataDir, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
	assert.Equal(t, filepath.Join(filepath.Dir(a.SettingsService.ConfigPath()), PromptDirName), a.Prompts.Dir())
	assert.Empty(t, a.Warnings)
}

func TestApp_Close_Nil(t *testing.T) {
	var a *App
	assert.NotPanics(t, a.Close)
}

func TestEndToEnd_HTTP(t *testing.T) {
	a := newTestApp(t, fakeLLM(t, "The capital is Paris 🇫🇷").URL)

	server, err := httpapi.NewServer(&httpapi.Ports{Documents: a.Documents, Query: a.Query}, httpapi.Config{Version: "test"})
	require.NoError(t, err)
	h := server.Handler()

	// Upload.
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "france.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdftest.Build("The capital of France is Paris."))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploaded struct {
		Success bool                 `json:"success"`
		DocID   string               `json:"doc_id"`
		Stats   domain.DocumentStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.True(t, uploaded.Success)
	require.Len(t, uploaded.DocID, 12)
	assert.Equal(t, 1, uploaded.Stats.TotalPages)

	// Retrieval finds the passage.
	chunks, err := a.Retrieval.Retrieve(context.Background(), uploaded.DocID, "What is the capital of France?", 0)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Content, "Paris")
	assert.Equal(t, 1, chunks[0].Page)

	// Query.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(t, "/query", map[string]string{
		"doc_id":   uploaded.DocID,
		"question": "What is the capital of France?",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var answer domain.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, "The capital is Paris 🇫🇷", answer.Answer)
	require.NotEmpty(t, answer.Sources)
	assert.Contains(t, answer.Sources[0].Content, "Paris")
	assert.Equal(t, 12, answer.TokensUsed.TotalTokens)

	// Streamed query.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(t, "/query/stream", map[string]string{
		"doc_id":   uploaded.DocID,
		"question": "What is the capital of France?",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The capital is Paris 🇫🇷", rec.Body.String())

	// Listed.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), uploaded.DocID)

	// Delete.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/document/"+uploaded.DocID, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	chunks, err = a.Retrieval.Retrieve(context.Background(), uploaded.DocID, "capital", 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/document/"+uploaded.DocID+"/stats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/document/"+uploaded.DocID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEndToEnd_IndexSurvivesRestart(t *testing.T) {
	llm := fakeLLM(t, "Paris")
	configDir := t.TempDir()

	open := func() *App {
		settingsService, err := LoadSettings(Options{ConfigDir: configDir, EnvFiles: []string{}})
		require.NoError(t, err)
		require.NoError(t, settingsService.Set("llm.base_url", llm.URL))
		a, err := FromSettings(context.Background(), settingsService)
		require.NoError(t, err)
		return a
	}

	path := pdftest.Write(t, t.TempDir(), "france.pdf", "The capital of France is Paris.")

	first := open()
	stats, err := first.Documents.IndexFile(context.Background(), path)
	require.NoError(t, err)
	first.Close()

	second := open()
	defer second.Close()

	answer, err := second.Query.Ask(context.Background(), driving.AskRequest{
		DocID:    stats.DocID,
		Question: "capital of France?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer.Answer)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, 1, answer.Sources[0].Page)
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}
