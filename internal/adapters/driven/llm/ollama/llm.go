// Package ollama provides an LLM service adapter using Ollama.
package ollama

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

	"github.com/custodia-labs/docqa/internal/adapters/driven/llm"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// maxLineSize bounds a single NDJSON line.
const maxLineSize = 1 << 20

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.2).
	Model string

	// Timeout bounds a whole non-streaming request (default: 120s).
	Timeout time.Duration

	// HeaderTimeout bounds the wait for a streamed response to start.
	HeaderTimeout time.Duration

	// IdleTimeout bounds the wait for each line of a streamed response.
	IdleTimeout time.Duration
}

// LLMService provides chat completions using Ollama's /api/chat.
type LLMService struct {
	client       *http.Client
	streamClient *http.Client
	baseURL      string
	model        string
	idleTimeout  time.Duration
}

// options holds generation parameters.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is one /api/chat response object. Streaming sends one per line.
type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
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

	return &LLMService{
		client:       &http.Client{Timeout: cfg.Timeout},
		streamClient: llm.NewStreamClient(cfg.HeaderTimeout),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
		idleTimeout:  cfg.IdleTimeout,
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
		return nil, llm.StatusError("ollama", resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrGenerationFailed, err)
	}
	if chatResp.Error != "" {
		return nil, fmt.Errorf("%w: ollama error: %s", domain.ErrGenerationFailed, chatResp.Error)
	}

	model := chatResp.Model
	if model == "" {
		model = s.model
	}
	return &driven.Completion{
		Answer: strings.TrimSpace(chatResp.Message.Content),
		Model:  model,
		Usage: domain.Usage{
			PromptTokens:     chatResp.PromptEvalCount,
			CompletionTokens: chatResp.EvalCount,
			TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
		},
	}, nil
}

// Stream runs a streamed chat completion. Ollama sends one JSON object per
// line and marks the last one with done.
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

		resp, err := s.streamClient.Do(req)
		if err != nil {
			yield("", llm.TransportError(ctx, fmt.Errorf("send request: %w", err)))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLineSize))
			yield("", llm.StatusError("ollama", resp.StatusCode, body))
			return
		}

		idle := llm.NewIdleReader(resp.Body, s.idleTimeout, cancel)
		defer idle.Stop()

		scanner := bufio.NewScanner(idle)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk chatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Error != "" {
				yield("", fmt.Errorf("%w: ollama error: %s", domain.ErrGenerationFailed, chunk.Error))
				return
			}
			if chunk.Message.Content != "" && !yield(chunk.Message.Content, nil) {
				return
			}
			if chunk.Done {
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
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	jsonBody, err := json.Marshal(chatRequest{
		Model:    s.model,
		Messages: chatMessages,
		Stream:   stream,
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return llm.TransportError(ctx, fmt.Errorf("ollama ping: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return llm.StatusError("ollama", resp.StatusCode, body)
	}
	return nil
}

// Close releases idle connections.
func (s *LLMService) Close() error {
	s.client.CloseIdleConnections()
	s.streamClient.CloseIdleConnections()
	return nil
}
