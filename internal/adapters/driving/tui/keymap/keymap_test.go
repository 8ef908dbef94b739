package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"ctrl+c", "ctrl+d"}},
		{"help", km.Help, []string{"f1"}},
		{"submit", km.Submit, []string{"enter"}},
		{"cancel", km.Cancel, []string{"esc"}},
		{"scroll up", km.ScrollUp, []string{"pgup", "shift+up"}},
		{"scroll down", km.ScrollDown, []string{"pgdown", "shift+down"}},
		{"clear", km.Clear, []string{"ctrl+l"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding.Keys())
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestDefaultKeyMap_NoPlainLetters(t *testing.T) {
	// Letters are typed into the question, so no binding may use one.
	km := DefaultKeyMap()

	for _, group := range km.FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				assert.Greater(t, len(k), 1, "binding %q captures a typed character", k)
			}
		}
	}
}

func TestKeyMap_ShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()

	assert.Len(t, help, 3)
	assert.Equal(t, km.Submit.Keys(), help[0].Keys())
}

func TestKeyMap_StreamingHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.StreamingHelp()

	require.Len(t, help, 2)
	assert.Equal(t, km.Cancel.Keys(), help[0].Keys())
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.FullHelp()

	assert.Len(t, help, 3)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name     string
		keyStr   string
		binding  key.Binding
		expected bool
	}{
		{"enter matches submit", "enter", km.Submit, true},
		{"esc matches cancel", "esc", km.Cancel, true},
		{"ctrl+c matches quit", "ctrl+c", km.Quit, true},
		{"q does not match quit", "q", km.Quit, false},
		{"x does not match submit", "x", km.Submit, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(tt.keyStr, tt.binding))
		})
	}
}
