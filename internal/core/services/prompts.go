package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Separators in few-shot example templates.
const (
	exchangeSeparator = "---"
	answerSeparator   = "==="
)

// messageBuilder assembles chat messages from the prompt templates.
type messageBuilder struct {
	prompts driven.PromptStore
}

// qa builds the messages for a question: system prompt, few-shot
// exchanges, recent history, then the question with its context.
func (b messageBuilder) qa(chunks []domain.RetrievedChunk, question string, history []domain.ChatTurn) ([]driven.ChatMessage, error) {
	system, err := b.load(driven.PromptQASystem)
	if err != nil {
		return nil, err
	}
	examples, err := b.load(driven.PromptQAExamples)
	if err != nil {
		return nil, err
	}
	user, err := b.load(driven.PromptQAUser)
	if err != nil {
		return nil, err
	}

	messages := []driven.ChatMessage{{Role: driven.RoleSystem, Content: system}}
	messages = append(messages, parseExamples(examples)...)
	for _, turn := range history {
		role := driven.RoleUser
		if turn.Role == driven.RoleAssistant {
			role = driven.RoleAssistant
		}
		messages = append(messages, driven.ChatMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: fmt.Sprintf(user, formatContext(chunks), question),
	})
	return messages, nil
}

// summary builds the messages for summarising text.
func (b messageBuilder) summary(text string) ([]driven.ChatMessage, error) {
	system, err := b.load(driven.PromptSummarySystem)
	if err != nil {
		return nil, err
	}
	examples, err := b.load(driven.PromptSummaryExamples)
	if err != nil {
		return nil, err
	}
	user, err := b.load(driven.PromptSummaryUser)
	if err != nil {
		return nil, err
	}

	messages := []driven.ChatMessage{{Role: driven.RoleSystem, Content: system}}
	messages = append(messages, parseExamples(examples)...)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: fmt.Sprintf(user, text),
	})
	return messages, nil
}

func (b messageBuilder) load(name string) (string, error) {
	p, err := b.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	return p, nil
}

// formatContext renders retrieved chunks as "[Page N]: content" blocks.
func formatContext(chunks []domain.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Page %d]: %s", c.Page, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// parseExamples splits a few-shot template into user/assistant pairs.
// Exchanges without an answer are dropped.
func parseExamples(text string) []driven.ChatMessage {
	var messages []driven.ChatMessage
	for _, exchange := range splitOnLine(text, exchangeSeparator) {
		parts := splitOnLine(exchange, answerSeparator)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		messages = append(messages,
			driven.ChatMessage{Role: driven.RoleUser, Content: parts[0]},
			driven.ChatMessage{Role: driven.RoleAssistant, Content: parts[1]},
		)
	}
	return messages
}

// splitOnLine splits text on lines consisting only of sep, trimming each part.
func splitOnLine(text, sep string) []string {
	var parts []string
	var current []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == sep {
			parts = append(parts, strings.TrimSpace(strings.Join(current, "\n")))
			current = nil
			continue
		}
		current = append(current, line)
	}
	return append(parts, strings.TrimSpace(strings.Join(current, "\n")))
}
