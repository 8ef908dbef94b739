package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat [doc-id]",
	Short: "Chat about a document in the terminal",
	Long: `Opens an interactive chat over one indexed document. Answers stream as
they are generated and follow-up questions keep the conversation history.

Controls:
  Enter       - Ask
  Esc         - Stop the current answer
  PgUp/PgDn   - Scroll the conversation
  Ctrl+L      - Start a new conversation
  F1          - Toggle help
  Ctrl+C      - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	needs(chatCmd, needsServices)
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) (err error) {
	if queryService == nil || documentService == nil {
		return errors.New("query and document services not configured")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("chat panicked: %v", r)
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(queryService, documentService), args[0])
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	if err := app.Err(); err != nil && app.Stats() == nil {
		return notFound(err, args[0])
	}
	return nil
}
