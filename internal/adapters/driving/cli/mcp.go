package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default the server communicates over stdio using JSON-RPC. Use --http to
serve the streamable HTTP transport instead, e.g. for the MCP Inspector.

Tools: retrieve, ask, summarize, documents.
Resources: docqa://documents, docqa://documents/{docId},
docqa://documents/{docId}/stats.

Examples:
  # Stdio mode
  docqa mcp

  # HTTP mode
  docqa mcp --http localhost:8080

Client configuration:
  {
    "mcpServers": {
      "docqa": {
        "command": "/path/to/docqa",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve over HTTP on this address instead of stdio")
	needs(mcpCmd, needsServices)
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: retrievalService,
		Query:     queryService,
		Document:  documentService,
	})
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
