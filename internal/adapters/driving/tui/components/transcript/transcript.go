// Package transcript renders the conversation in a scrollable viewport.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// entry is one rendered turn. note is shown muted below the content.
type entry struct {
	turn domain.ChatTurn
	note string
}

// Transcript holds the conversation shown above the input.
type Transcript struct {
	viewport viewport.Model
	styles   *styles.Styles
	entries  []entry
	open     bool
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{
		viewport: viewport.New(80, 20),
		styles:   s,
	}
	t.refresh()
	return t
}

// AddQuestion appends a user turn.
func (t *Transcript) AddQuestion(question string) {
	t.entries = append(t.entries, entry{turn: domain.ChatTurn{Role: domain.ChatRoleUser, Content: question}})
	t.refresh()
}

// StartAnswer opens an empty assistant turn for streamed fragments.
func (t *Transcript) StartAnswer() {
	t.entries = append(t.entries, entry{turn: domain.ChatTurn{Role: domain.ChatRoleAssistant}})
	t.open = true
	t.refresh()
}

// AppendAnswer adds a fragment to the open answer.
func (t *Transcript) AppendAnswer(text string) {
	if !t.open {
		return
	}
	t.entries[len(t.entries)-1].turn.Content += text
	t.refresh()
}

// FinishAnswer closes the open answer and returns its text.
// A non-empty note, such as "stopped", is shown beneath it.
func (t *Transcript) FinishAnswer(note string) string {
	if !t.open {
		return ""
	}
	t.open = false
	last := &t.entries[len(t.entries)-1]
	last.note = note
	t.refresh()
	return last.turn.Content
}

// Answering reports whether an answer is open.
func (t *Transcript) Answering() bool {
	return t.open
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Clear removes every turn.
func (t *Transcript) Clear() {
	t.entries = nil
	t.open = false
	t.refresh()
}

// ScrollUp moves half a page towards older turns.
func (t *Transcript) ScrollUp() {
	t.viewport.SetYOffset(t.viewport.YOffset - max(1, t.viewport.Height/2))
}

// ScrollDown moves half a page towards newer turns.
func (t *Transcript) ScrollDown() {
	t.viewport.SetYOffset(t.viewport.YOffset + max(1, t.viewport.Height/2))
}

// AtBottom reports whether the newest line is visible.
func (t *Transcript) AtBottom() bool {
	return t.viewport.AtBottom()
}

// SetSize resizes the viewport and rewraps the turns.
func (t *Transcript) SetSize(width, height int) {
	t.viewport.Width = max(1, width)
	t.viewport.Height = max(1, height)
	t.refresh()
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Content renders every turn regardless of scroll position.
func (t *Transcript) Content() string {
	if len(t.entries) == 0 {
		return t.styles.Muted.Render("Ask anything about the document. Answers cite the pages they use.")
	}

	wrap := lipgloss.NewStyle().Width(max(1, t.viewport.Width-2))
	blocks := make([]string, 0, len(t.entries))
	for i, e := range t.entries {
		var b strings.Builder
		if e.turn.Role == domain.ChatRoleUser {
			b.WriteString(t.styles.UserLabel.Render("You"))
		} else {
			b.WriteString(t.styles.AssistantLabel.Render("Assistant"))
		}
		b.WriteString("\n")

		content := e.turn.Content
		if content == "" && t.open && i == len(t.entries)-1 {
			content = "..."
		}
		b.WriteString(wrap.Render(content))
		if e.note != "" {
			b.WriteString("\n")
			b.WriteString(t.styles.Muted.Render("(" + e.note + ")"))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// refresh re-renders the content and follows the newest line unless
// the user scrolled away from it.
func (t *Transcript) refresh() {
	follow := t.viewport.AtBottom() || t.viewport.TotalLineCount() == 0
	t.viewport.SetContent(t.Content())
	if follow {
		t.viewport.GotoBottom()
	}
}
