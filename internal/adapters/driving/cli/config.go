package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
)

// llmCheckTimeout bounds the reachability check after an llm.* change.
const llmCheckTimeout = 5 * time.Second

// validateLLM checks a generation service is reachable. Replaced in tests.
var validateLLM = ai.ValidateLLMConfig

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change settings stored in config.toml.

Environment variables prefixed DOCQA_ override the file, for example
DOCQA_LLM_BASE_URL overrides llm.base_url. A .env file in the working
directory is loaded first.`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting and save it to config.toml.

Lists such as server.cors_origins are comma separated. After an llm.*
change the generation service is checked for reachability.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	for _, c := range []*cobra.Command{configCmd, configListCmd, configGetCmd, configSetCmd, configPathCmd} {
		needs(c, needsSettings)
	}
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	st := newStyler(cmd)
	cmd.Println(st.label("# " + settingsService.ConfigPath()))

	section := ""
	for _, key := range settingsService.Keys() {
		value, err := settingsService.Value(key)
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", key, err)
		}

		group, name, _ := strings.Cut(key, ".")
		if group != section {
			section = group
			cmd.Println()
			cmd.Println(st.heading("[" + group + "]"))
		}
		cmd.Printf("  %s = %s\n", name, displayValue(key, value))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	value, err := settingsService.Value(args[0])
	if err != nil {
		return err
	}
	cmd.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", key, displayValue(key, value))

	if !strings.HasPrefix(key, "llm.") {
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), llmCheckTimeout)
	defer cancel()
	if err := validateLLM(ctx, &settings.LLM); err != nil {
		cmd.PrintErrf("Warning: generation service at %s is not reachable: %v\n", settings.LLM.BaseURL, err)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	cmd.Println(settingsService.ConfigPath())
	return nil
}

// displayValue masks secrets.
func displayValue(key, value string) string {
	if strings.HasSuffix(key, "api_key") {
		return maskAPIKey(value)
	}
	return value
}
