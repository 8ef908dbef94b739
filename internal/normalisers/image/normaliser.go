// Package image extracts text from PNG and JPEG images using the tesseract OCR CLI.
package image

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Default OCR settings.
const (
	DefaultCommand  = "tesseract"
	DefaultLanguage = "eng"
)

// ErrOCRToolNotFound indicates the tesseract binary is not installed.
var ErrOCRToolNotFound = errors.New("tesseract not found in PATH")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. Stderr is attached to the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithCommand sets the tesseract executable.
func WithCommand(command string) Option {
	return func(n *Normaliser) {
		if command != "" {
			n.command = command
		}
	}
}

// WithLanguage sets the tesseract language code.
func WithLanguage(lang string) Option {
	return func(n *Normaliser) {
		if lang != "" {
			n.language = lang
		}
	}
}

// Normaliser runs OCR on a single image, producing one image PageChunk.
type Normaliser struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
	command  string
	language string
}

// New creates an image normaliser that shells out to tesseract.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{
		runner:   ExecRunner{},
		lookPath: exec.LookPath,
		command:  DefaultCommand,
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewWithRunner creates a normaliser that sends commands to runner.
// The PATH check is skipped since runner decides what to execute.
func NewWithRunner(runner CommandRunner, opts ...Option) *Normaliser {
	n := New(opts...)
	n.runner = runner
	n.lookPath = func(name string) (string, error) { return name, nil }
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"image/png", "image/jpeg", "image/jpg"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// CheckAvailable reports whether the configured tesseract binary is on PATH.
func (n *Normaliser) CheckAvailable() error {
	if _, err := n.lookPath(n.command); err != nil {
		return ErrOCRToolNotFound
	}
	return nil
}

// Normalise runs `tesseract <path> stdout -l <lang>` and returns the text as page 1.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil || raw.Path == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := n.CheckAvailable(); err != nil {
		return nil, fmt.Errorf("%w: %w\n%s", domain.ErrExtractionFailed, err, InstallInstructions())
	}

	out, err := n.runner.Run(ctx, n.command, raw.Path, "stdout", "-l", n.language)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: tesseract failed: %w", domain.ErrExtractionFailed, err)
	}

	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil, fmt.Errorf("%w: no text recognised in %s", domain.ErrExtractionFailed, raw.Filename)
	}

	return &driven.NormaliseResult{
		Pages: []domain.PageChunk{{
			Page:    1,
			Content: text,
			Type:    domain.PageTypeImage,
		}},
		PageCount: 1,
	}, nil
}

// InstallInstructions returns platform hints for installing tesseract.
func InstallInstructions() string {
	return `Image text extraction requires tesseract.

Install it with:
  macOS:          brew install tesseract
  Debian/Ubuntu:  sudo apt install tesseract-ocr
  Fedora:         sudo dnf install tesseract
  Windows:        https://github.com/UB-Mannheim/tesseract/wiki

Then make sure "tesseract" is on your PATH, or set ocr.command.`
}
