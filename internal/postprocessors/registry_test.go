package postprocessors

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// registryMockProcessor is a simple mock for testing registry functionality.
type registryMockProcessor struct {
	name string
}

func (m *registryMockProcessor) Name() string { return m.name }
func (m *registryMockProcessor) Process(_ context.Context, _ []domain.PageChunk, chunks []domain.SubChunk) ([]domain.SubChunk, error) {
	return chunks, nil
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("test", func(_ map[string]any) (driven.PostProcessor, error) {
		return &registryMockProcessor{name: "test"}, nil
	})

	if !r.Has("test") {
		t.Fatal("expected processor to be registered")
	}

	p, err := r.Build("test", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "test" {
		t.Errorf("expected name 'test', got %q", p.Name())
	}
}

func TestRegistry_Build_Unknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build("missing", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegistry_Build_BuilderError(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Build("chunker", map[string]any{"chunk_size": int64(4), "overlap": 9.0})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	noop := func(_ map[string]any) (driven.PostProcessor, error) { return nil, nil }
	r.Register("zeta", noop)
	r.Register("alpha", noop)

	if got := r.Names(); !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Errorf("expected sorted names, got %v", got)
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	if !r.Has("chunker") {
		t.Error("expected chunker to be registered")
	}
}

func TestGetIntFromConfig(t *testing.T) {
	cfg := map[string]any{"a": 1, "b": int64(2), "c": 3.0, "d": "4"}

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := getIntFromConfig(cfg, key)
		if !ok || got != want {
			t.Errorf("%s: expected %d, got %d (ok=%v)", key, want, got, ok)
		}
	}
	if _, ok := getIntFromConfig(cfg, "d"); ok {
		t.Error("string values should not convert")
	}
	if _, ok := getIntFromConfig(nil, "a"); ok {
		t.Error("nil config should report missing")
	}
}
