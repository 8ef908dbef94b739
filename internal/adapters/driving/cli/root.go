// Package cli implements the docqa command line.
// Commands call core services through driving ports; the services are
// assembled on first use from the settings in --config.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/app"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInvalidArgs = 2
	ExitNotFound    = 3
	ExitUnavailable = 4
)

// needsAnnotation marks what a command needs bootstrapped.
const needsAnnotation = "docqa.needs"

const (
	needsSettings = "settings"
	needsServices = "services"
)

var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services used by commands. bootstrap fills whichever are nil; tests
// replace them with mocks.
var (
	settingsService  driving.SettingsService
	documentService  driving.DocumentService
	retrievalService driving.RetrievalService
	queryService     driving.QueryService
	promptStore      promptWatcher
)

// promptWatcher hot reloads prompt templates while a server runs.
type promptWatcher interface {
	Watch(ctx context.Context) error
}

// application is the assembled app, closed by Execute.
var application *app.App

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about PDF and image documents",
	Long: `docqa extracts the text of PDF and image documents, indexes it for
semantic retrieval and answers questions with page citations using an
OpenAI-compatible language model.

Serve the HTTP API with 'docqa serve', or work from the terminal with
'docqa index', 'docqa ask' and 'docqa chat'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: bootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.docqa)")
}

// SetVersion sets the version reported by the version command and the API.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases any services it assembled.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedFileType),
		errors.Is(err, domain.ErrFileTooLarge):
		return ExitInvalidArgs
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrIndexNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrGenerationUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable):
		return ExitUnavailable
	default:
		return ExitFailure
	}
}

// needs marks cmd as requiring settings or the full service set.
func needs(cmd *cobra.Command, what string) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[needsAnnotation] = what
}

// bootstrap assembles what the command being run needs.
func bootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	need := cmd.Annotations[needsAnnotation]
	if need == "" {
		return nil
	}

	var loaded *services.SettingsService
	if settingsService == nil {
		svc, err := app.LoadSettings(app.Options{ConfigDir: configDir})
		if err != nil {
			return err
		}
		settingsService = svc
		loaded = svc
	}

	if need != needsServices || queryService != nil {
		return nil
	}
	if loaded == nil {
		var ok bool
		if loaded, ok = settingsService.(*services.SettingsService); !ok {
			return errors.New("query service not configured")
		}
	}

	a, err := app.FromSettings(cmd.Context(), loaded)
	if err != nil {
		return err
	}
	for _, w := range a.Warnings {
		logger.Warn("%s", w)
	}

	application = a
	documentService = a.Documents
	retrievalService = a.Retrieval
	queryService = a.Query
	if a.Prompts != nil {
		promptStore = a.Prompts
	}
	return nil
}

func closeServices() {
	if application == nil {
		return
	}
	application.Close()
	application = nil
}

// notFound rewords a missing document for the terminal.
func notFound(err error, docID string) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrIndexNotFound) {
		return fmt.Errorf("document %s not found (index it first with 'docqa index'): %w", docID, domain.ErrNotFound)
	}
	return err
}
