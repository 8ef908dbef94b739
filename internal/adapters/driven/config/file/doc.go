// Package file provides file-based configuration adapters.
//
// Adapters:
//   - ConfigStore: TOML settings file with .env and DOCQA_ environment overrides
//   - PromptStore: user-editable LLM prompt templates with hot reload
package file
