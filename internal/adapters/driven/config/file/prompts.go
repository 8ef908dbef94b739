package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptExt is the extension of prompt files in the prompt directory.
const promptExt = ".txt"

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptQASystem: `You are a concise AI assistant. Maximum 5 sentences or 5 bullet points.`,

	driven.PromptQAExamples: `What is this document about? [job posting text]
===
Junior UI/UX Designer job posting! 🎨

**Key info**:
• 💰 $1,100/month
• 📍 Remote (Europe)
• 🛠️ Figma, Adobe XD, Miro
• ⏰ 0-2 years experience
---
What are the requirements?
===
**Requirements**:
✅ 0-2 years UI/UX experience
✅ Strong portfolio
✅ Usability/accessibility knowledge
✅ Basic prototyping skills`,

	driven.PromptQAUser: `Context:
%s

Question: %s

Answer concisely with emojis:`,

	driven.PromptSummarySystem: `You are a concise document summarizer. Keep summaries under 100 words.`,

	driven.PromptSummaryExamples: `Summarize this job posting: [long job description text]
===
Job posting for Junior UI/UX Designer! 🎨

**Overview**: Remote position across Europe, $1,100/month

**Requirements**:
• 0-2 years experience
• Figma, Adobe XD, Miro, Canva
• Portfolio + prototyping skills

**Benefits**: Flexible hours, $150 tool budget, career growth 🚀`,

	driven.PromptSummaryUser: `Summarize this document concisely:
%s`,
}

// DefaultPrompt returns the built-in prompt for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.docqa/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".docqa", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Falls back to the embedded default if the file is missing or empty.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = errors.New("prompt file is empty")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check so a concurrent load wins consistently.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch reloads the store whenever a prompt file in the directory changes.
// It returns once the watcher is running; watching stops when ctx is done.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := watcher.Add(s.promptDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch prompt directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != promptExt {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					logger.Debug("prompt %s changed, reloading", filepath.Base(event.Name))
					s.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("prompt watcher: %v", err)
			}
		}
	}()
	return nil
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+promptExt)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+promptExt)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# docqa Prompts

These files shape how docqa answers questions and writes summaries.

## Files

- ` + "`qa_system.txt`" + ` - System instruction for answering questions
- ` + "`qa_examples.txt`" + ` - Example question/answer exchanges
- ` + "`qa_user.txt`" + ` - Final user turn (context, then question)
- ` + "`summary_system.txt`" + ` - System instruction for summaries
- ` + "`summary_examples.txt`" + ` - Example summary exchanges
- ` + "`summary_user.txt`" + ` - Final summary request (document text)

## Example Format

Separate exchanges with a line containing only ` + "`---`" + `. Within an
exchange, put the user message first, then a line containing only ` + "`===`" + `,
then the assistant reply.

## Placeholders

` + "`qa_user.txt`" + ` takes two ` + "`%s`" + ` placeholders (context, question).
` + "`summary_user.txt`" + ` takes one (document text). Keep them in place.

Changes are picked up by a running server without a restart.
`
	return os.WriteFile(path, []byte(content), 0600)
}
