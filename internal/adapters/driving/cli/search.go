package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [doc-id] [question]",
	Short: "Find the passages of a document relevant to a question",
	Long: `Embeds the question and returns the nearest chunks of the document's
index, best first, with their page and relevance. No answer is generated.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of passages (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output passages as JSON")
	needs(searchCmd, needsServices)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	if searchTopK < 0 {
		return fmt.Errorf("%w: --top-k must not be negative", domain.ErrInvalidInput)
	}

	docID, question := args[0], args[1]
	chunks, err := retrievalService.Retrieve(cmd.Context(), docID, question, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", notFound(err, docID))
	}

	if searchJSON {
		return printJSON(cmd, chunks)
	}

	if len(chunks) == 0 {
		cmd.Println("No relevant passages found.")
		return nil
	}

	st := newStyler(cmd)
	for i := range chunks {
		cmd.Printf("  [%d] %s %s\n", i+1,
			st.page(fmt.Sprintf("Page %d", chunks[i].Page)),
			st.label(fmt.Sprintf("(%.2f)", chunks[i].Relevance)))
		cmd.Println(indent(strings.TrimSpace(chunks[i].Content), "      "))
		cmd.Println()
	}
	return nil
}
