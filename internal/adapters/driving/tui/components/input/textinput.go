// Package input provides the question box of the chat.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

// CharLimit caps the length of a question.
const CharLimit = 1000

const minInputWidth = 20

// ChatInput wraps a bubbles textinput for entering questions.
type ChatInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewChatInput creates a focused, empty question box.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question about the document..."
	ti.Focus()
	ti.CharLimit = CharLimit
	ti.Width = 50

	return &ChatInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blinking.
func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages. Keys are ignored while blurred.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok && !c.textinput.Focused() {
		return c, nil
	}
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

// View renders the question box.
func (c *ChatInput) View() string {
	label := c.styles.UserLabel.Render("Ask: ")
	field := c.styles.InputField.Render(c.textinput.View())
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Submit returns the trimmed question and clears the box.
// ok is false when the box holds only whitespace.
func (c *ChatInput) Submit() (question string, ok bool) {
	question = strings.TrimSpace(c.textinput.Value())
	if question == "" {
		return "", false
	}
	c.textinput.Reset()
	return question, true
}

// Value returns the current input value.
func (c *ChatInput) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value.
func (c *ChatInput) SetValue(value string) {
	c.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (c *ChatInput) Focus() tea.Cmd {
	return c.textinput.Focus()
}

// Blur removes focus from the input.
func (c *ChatInput) Blur() {
	c.textinput.Blur()
}

// Focused returns whether the input is focused.
func (c *ChatInput) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the width of the input.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	// label, border and padding
	inputWidth := width - 12
	if inputWidth < minInputWidth {
		inputWidth = minInputWidth
	}
	c.textinput.Width = inputWidth
}

// Width returns the current width.
func (c *ChatInput) Width() int {
	return c.width
}
