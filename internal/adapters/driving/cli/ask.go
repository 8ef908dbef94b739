package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var (
	askNoStream bool
	askTopK     int
	askJSON     bool

	summarizeLength string
	summarizeJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [doc-id] [question]",
	Short: "Answer a question about a document",
	Long: `Retrieves the passages of the document most relevant to the question and
asks the language model to answer from them, citing pages as [Page N].

The answer is streamed as it is generated. Use --no-stream to wait for the
complete answer, which also lists the passages used.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [doc-id]",
	Short: "Summarise a document",
	Long: `Generates a summary of a document.

--length selects how much text is summarised: "length" summarises only the
opening of the document, any other value the first few thousand characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	askCmd.Flags().BoolVar(&askNoStream, "no-stream", false, "wait for the complete answer")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages given to the model (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON (implies --no-stream)")
	summarizeCmd.Flags().StringVarP(&summarizeLength, "length", "l", "", "summary length (default medium)")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "output the summary as JSON")

	needs(askCmd, needsServices)
	needs(summarizeCmd, needsServices)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}
	if askTopK < 0 {
		return fmt.Errorf("%w: --top-k must not be negative", domain.ErrInvalidInput)
	}

	req := driving.AskRequest{
		DocID:    args[0],
		Question: args[1],
		TopK:     askTopK,
	}

	if askNoStream || askJSON {
		answer, err := queryService.Ask(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("ask failed: %w", notFound(err, req.DocID))
		}
		if askJSON {
			return printJSON(cmd, answer)
		}
		printAnswer(cmd, answer)
		return nil
	}

	seq, err := queryService.AskStream(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", notFound(err, req.DocID))
	}
	out := cmd.OutOrStdout()
	for text, err := range seq {
		if err != nil {
			_, _ = io.WriteString(out, "\n")
			return fmt.Errorf("ask failed: %w", err)
		}
		if _, err := io.WriteString(out, text); err != nil {
			return err
		}
	}
	_, _ = io.WriteString(out, "\n")
	return nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	st := newStyler(cmd)
	cmd.Println(answer.Answer)
	if len(answer.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println(st.heading("Sources"))
	for i := range answer.Sources {
		cmd.Printf("  %s %s\n",
			st.page(fmt.Sprintf("Page %d", answer.Sources[i].Page)),
			st.label(fmt.Sprintf("(%.2f)", answer.Sources[i].Relevance)))
		cmd.Println(indent(strings.TrimSpace(answer.Sources[i].Content), "    "))
	}
	cmd.Println()
	cmd.Println(st.label(fmt.Sprintf("%.2fs, %d tokens", answer.ResponseTime, answer.TokensUsed.TotalTokens)))
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	docID := args[0]
	summary, err := queryService.Summarise(cmd.Context(), docID, summarizeLength)
	if err != nil {
		return fmt.Errorf("summarize failed: %w", notFound(err, docID))
	}

	if summarizeJSON {
		return printJSON(cmd, summary)
	}
	cmd.Println(summary.Summary)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
