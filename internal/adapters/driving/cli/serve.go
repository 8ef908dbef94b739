package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docqa/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the document Q&A API until interrupted.

Endpoints:
  GET    /                     health
  POST   /upload               upload and index a PDF or image
  POST   /query                answer a question
  POST   /query/stream         answer a question as a text stream
  POST   /summarize            summarise a document
  GET    /documents            list documents uploaded since start
  GET    /document/{id}/stats  document statistics
  DELETE /document/{id}        delete a document

Prompt templates in the config directory are reloaded when edited.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	needs(serveCmd, needsServices)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if documentService == nil || queryService == nil {
		return errors.New("document and query services not configured")
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	addr := serveAddr
	if addr == "" {
		addr = settings.Server.Addr
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Documents: documentService,
		Query:     queryService,
	}, httpapi.Config{
		Addr:        addr,
		CORSOrigins: settings.Server.CORSOrigins,
		Version:     version,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	if promptStore != nil {
		if err := promptStore.Watch(ctx); err != nil {
			logger.Warn("Prompt templates will not reload: %v", err)
		}
	}

	cmd.Printf("docqa API listening on %s\n", addr)
	return server.Run(ctx)
}
