package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	pageStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// styler renders with lipgloss on a terminal and plain text otherwise,
// so piped output carries no escape codes.
type styler struct {
	tty bool
}

func newStyler(cmd *cobra.Command) styler {
	return styler{tty: isTerminal(cmd.OutOrStdout())}
}

func (s styler) heading(text string) string {
	if !s.tty {
		return text
	}
	return headingStyle.Render(text)
}

func (s styler) label(text string) string {
	if !s.tty {
		return text
	}
	return labelStyle.Render(text)
}

func (s styler) page(text string) string {
	if !s.tty {
		return text
	}
	return pageStyle.Render(text)
}

// indent prefixes every line of text with pad.
func indent(text, pad string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

// maskAPIKey hides all but the ends of a key.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
