package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docqa", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptQASystem)
	require.NoError(t, err)

	files := []string{
		"qa_system.txt",
		"qa_examples.txt",
		"qa_user.txt",
		"summary_system.txt",
		"summary_examples.txt",
		"summary_user.txt",
		"README.md",
	}
	for _, f := range files {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name     string
		contains string
	}{
		{driven.PromptQASystem, "Maximum 5 sentences"},
		{driven.PromptQAExamples, "Junior UI/UX Designer"},
		{driven.PromptQAUser, "Answer concisely with emojis:"},
		{driven.PromptSummarySystem, "under 100 words"},
		{driven.PromptSummaryExamples, "career growth"},
		{driven.PromptSummaryUser, "Summarize this document concisely:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := store.Load(tt.name)
			require.NoError(t, err)
			assert.Contains(t, prompt, tt.contains)

			def, ok := DefaultPrompt(tt.name)
			require.True(t, ok)
			assert.Equal(t, def, prompt)
		})
	}
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()

	customContent := "You are a pirate. Answer in one line."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa_system.txt"), []byte(customContent), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQASystem)

	require.NoError(t, err)
	assert.Equal(t, customContent, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptQASystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "qa_system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptQASystem)

	require.NoError(t, err)
	assert.Contains(t, prompt, "concise AI assistant")
}

func TestPromptStore_Load_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary_system.txt"), []byte("  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptSummarySystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "summarizer")
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_CachesResults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt1, err := store.Load(driven.PromptQASystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa_system.txt"), []byte("modified content"), 0600))

	prompt2, err := store.Load(driven.PromptQASystem)
	require.NoError(t, err)
	assert.Equal(t, prompt1, prompt2)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptQAUser)
	require.NoError(t, err)

	modified := "Notes:\n%s\n\nQ: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa_user.txt"), []byte(modified), 0600))

	store.Reload()

	prompt, err := store.Load(driven.PromptQAUser)
	require.NoError(t, err)
	assert.Equal(t, modified, prompt)
}

func TestPromptStore_Watch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Watch(ctx))

	_, err = store.Load(driven.PromptQASystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa_system.txt"), []byte("Reply in haiku."), 0600))

	assert.Eventually(t, func() bool {
		prompt, err := store.Load(driven.PromptQASystem)
		return err == nil && prompt == "Reply in haiku."
	}, 5*time.Second, 20*time.Millisecond)
}

func TestPromptStore_Watch_MissingDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	assert.Error(t, store.Watch(context.Background()))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]string, goroutines)
	errs := make([]error, goroutines)

	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = store.Load(driven.PromptQAExamples)
		}()
	}
	wg.Wait()

	for i := range goroutines {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()

	customContent := "pre-existing custom prompt"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa_examples.txt"), []byte(customContent), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptSummaryUser)

	data, err := os.ReadFile(filepath.Join(dir, "qa_examples.txt"))
	require.NoError(t, err)
	assert.Equal(t, customContent, string(data))
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qa_system.txt"), []byte("\n\n  prompt content  \n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptQASystem)
	require.NoError(t, err)
	assert.Equal(t, "prompt content", prompt)
}
