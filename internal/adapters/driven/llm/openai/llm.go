// Package openai provides an LLM service adapter for OpenAI-compatible
// chat completion APIs, including local servers such as LM Studio.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/docqa/internal/adapters/driven/llm"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:1234/v1"
	DefaultLLMModel   = "local-model"
	DefaultLLMTimeout = 120 * time.Second
	DefaultPingTries  = 3
)

// maxLineSize bounds a single SSE line.
const maxLineSize = 1 << 20

// LLMConfig holds configuration for the OpenAI-compatible LLM service.
type LLMConfig struct {
	// APIKey is sent as a bearer token when set. Local servers usually need none.
	APIKey string

	// BaseURL is the API base URL including the version prefix.
	BaseURL string

	// Model is the LLM model to use (default: local-model).
	Model string

	// Timeout bounds a whole non-streaming request (default: 120s).
	Timeout time.Duration

	// HeaderTimeout bounds the wait for a streamed response to start.
	HeaderTimeout time.Duration

	// IdleTimeout bounds the wait for each piece of a streamed response.
	IdleTimeout time.Duration

	// PingTries is how many times Ping attempts to connect (default: 3).
	PingTries uint64

	// PingBackoff is the delay between ping attempts (default: 250ms).
	PingBackoff time.Duration
}

// LLMService talks to a /chat/completions endpoint.
type LLMService struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	apiKey       string
	model        string
	idleTimeout  time.Duration
	pingTries    uint64
	pingBackoff  time.Duration
}

// chatCompletionRequest is the /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
	Stop        []string            `json:"stop,omitempty"`
	Stream      bool                `json:"stream"`
}

// chatCompletionMsg is the chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiError is the error object some servers return instead of choices.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// chatCompletionResponse is the /chat/completions response format.
type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

// streamChunk is one SSE data payload of a streamed completion.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = llm.DefaultIdleTimeout
	}
	if cfg.PingTries == 0 {
		cfg.PingTries = DefaultPingTries
	}
	if cfg.PingBackoff == 0 {
		cfg.PingBackoff = 250 * time.Millisecond
	}

	return &LLMService{
		client:       &http.Client{Timeout: cfg.Timeout},
		streamClient: llm.NewStreamClient(cfg.HeaderTimeout),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		idleTimeout:  cfg.IdleTimeout,
		pingTries:    cfg.PingTries,
		pingBackoff:  cfg.PingBackoff,
	}
}

// Complete runs a chat completion and returns the whole answer.
func (s *LLMService) Complete(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.GenerateOptions,
) (*driven.Completion, error) {
	req, err := s.newChatRequest(ctx, messages, opts, false)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, llm.TransportError(ctx, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.TransportError(ctx, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, llm.StatusError("openai", resp.StatusCode, body)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrGenerationFailed, err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: openai error: %s", domain.ErrGenerationFailed, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai: no response choices returned", domain.ErrGenerationFailed)
	}

	model := chatResp.Model
	if model == "" {
		model = s.model
	}
	return &driven.Completion{
		Answer: strings.TrimSpace(chatResp.Choices[0].Message.Content),
		Model:  model,
		Usage: domain.Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

// Stream runs a streamed chat completion, yielding each non-empty content
// delta. The body is read only as the consumer pulls fragments.
func (s *LLMService) Stream(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.GenerateOptions,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		reqCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		req, err := s.newChatRequest(reqCtx, messages, opts, true)
		if err != nil {
			yield("", err)
			return
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := s.streamClient.Do(req)
		if err != nil {
			yield("", llm.TransportError(ctx, fmt.Errorf("send request: %w", err)))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLineSize))
			yield("", llm.StatusError("openai", resp.StatusCode, body))
			return
		}

		idle := llm.NewIdleReader(resp.Body, s.idleTimeout, cancel)
		defer idle.Stop()

		scanner := bufio.NewScanner(idle)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(strings.TrimSpace(scanner.Text()), "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if chunk.Error != nil {
				yield("", fmt.Errorf("%w: openai error: %s", domain.ErrGenerationFailed, chunk.Error.Message))
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", llm.StreamReadError(ctx, idle, err))
		}
	}
}

func (s *LLMService) newChatRequest(
	ctx context.Context,
	messages []driven.ChatMessage,
	opts driven.GenerateOptions,
	stream bool,
) (*http.Request, error) {
	chatMessages := make([]chatCompletionMsg, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatCompletionMsg{Role: msg.Role, Content: msg.Content}
	}

	jsonBody, err := json.Marshal(chatCompletionRequest{
		Model:       s.model,
		Messages:    chatMessages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stop:        opts.StopWords,
		Stream:      stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	return req, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks the /models endpoint. Connection failures are retried a few
// times since local servers are often still starting.
func (s *LLMService) Ping(ctx context.Context) error {
	backoff := retry.WithMaxRetries(s.pingTries-1, retry.NewConstant(s.pingBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
		if err != nil {
			return fmt.Errorf("openai: failed to create ping request: %w", err)
		}
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(llm.TransportError(ctx, fmt.Errorf("openai ping: %w", err)))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return llm.StatusError("openai", resp.StatusCode, body)
		}
		return nil
	})
}

// Close releases idle connections.
func (s *LLMService) Close() error {
	s.client.CloseIdleConnections()
	s.streamClient.CloseIdleConnections()
	return nil
}
