package status

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateLoading, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.Turns())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilArgs(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_Init(t *testing.T) {
	assert.NotNil(t, NewBar(nil, nil).Init())
}

func TestBar_Update_IgnoresKeys(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestBar_Update_TicksSpinner(t *testing.T) {
	bar := NewBar(nil, nil)
	tick, ok := bar.Init()().(spinner.TickMsg)
	require.True(t, ok)

	_, cmd := bar.Update(tick)

	assert.NotNil(t, cmd)
}

func TestBar_View_States(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		message  string
		turns    int
		expected string
	}{
		{"loading", StateLoading, "", 0, "Loading document"},
		{"ready", StateReady, "", 0, "Ready"},
		{"ready with turns", StateReady, "", 3, "3 questions asked"},
		{"ready with notice", StateReady, "answer stopped", 1, "answer stopped"},
		{"thinking", StateThinking, "", 0, "Thinking"},
		{"streaming", StateStreaming, "", 0, "Answering"},
		{"error", StateError, "", 0, "Error"},
		{"error with message", StateError, "llm down", 0, "Error: llm down"},
		{"help", StateHelp, "", 0, "Help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetTurns(tt.turns)

			assert.Contains(t, bar.View(), tt.expected)
		})
	}
}

func TestBar_View_HintsFollowState(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)
	bar.SetState(StateReady)

	assert.Contains(t, bar.View(), "ask")
	assert.NotContains(t, bar.View(), "stop answer")

	bar.SetState(StateStreaming)
	assert.Contains(t, bar.View(), "stop answer")
}

func TestBar_Busy(t *testing.T) {
	bar := NewBar(nil, nil)

	for state, busy := range map[State]bool{
		StateLoading:   false,
		StateReady:     false,
		StateThinking:  true,
		StateStreaming: true,
		StateError:     false,
		StateHelp:      false,
	} {
		bar.SetState(state)
		assert.Equal(t, busy, bar.Busy(), state)
	}
}

func TestBar_View_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(5)

	assert.NotEmpty(t, bar.View())
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetTurns(4)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.Turns())
}
