package driving

import "github.com/custodia-labs/docqa/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves current settings from defaults, the config file and the environment.
	Get() (*domain.AppSettings, error)

	// Set updates one setting by its dotted key (e.g. "llm.base_url")
	// and persists it. The resulting settings must validate.
	Set(key, value string) error

	// Value returns the effective value of one setting as text.
	Value(key string) (string, error)

	// Keys returns all recognised setting keys.
	Keys() []string

	// ConfigPath returns the location of the settings file.
	ConfigPath() string
}
