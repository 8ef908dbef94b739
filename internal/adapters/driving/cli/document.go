package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index [file]",
	Short: "Extract and index a document",
	Long: `Extracts the text of a PDF or image file and builds its retrieval index.

The file is indexed in place and is not copied. The printed document ID
is used by the ask, search, summarize, chat and delete commands.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes the retrieval index, cache marker and stored upload of a document.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output stats as JSON")
	needs(indexCmd, needsServices)
	needs(deleteCmd, needsServices)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.IndexFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("index %s: %w", args[0], err)
	}

	if indexJSON {
		return printJSON(cmd, stats)
	}

	printStats(cmd, stats)
	return nil
}

func printStats(cmd *cobra.Command, stats *domain.DocumentStats) {
	st := newStyler(cmd)
	cmd.Printf("%s %s\n\n", st.heading("Indexed"), stats.Filename)
	cmd.Printf("  %s %s\n", st.label("Document ID: "), stats.DocID)
	cmd.Printf("  %s %s\n", st.label("Type:        "), stats.FileType)
	cmd.Printf("  %s %d\n", st.label("Pages:       "), stats.TotalPages)
	cmd.Printf("  %s %d\n", st.label("Words:       "), stats.TotalWords)
	cmd.Printf("  %s %d min\n", st.label("Reading time:"), stats.ReadingTime)
	cmd.Printf("  %s %d\n", st.label("Chunks:      "), stats.ChunkCount)
	cmd.Printf("  %s %s\n", st.label("Processing:  "),
		(time.Duration(stats.ProcessingTime * float64(time.Second))).Round(time.Millisecond))
}

func runDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	if err := documentService.Delete(cmd.Context(), docID); err != nil {
		return notFound(err, docID)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}
