package domain

// ChatTurn is one prior message in a conversation about a document.
type ChatTurn struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Chat roles.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// Usage reports token consumption for a generation call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Source is a retrieved passage cited alongside an answer.
type Source struct {
	Page      int     `json:"page"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
}

// Answer is the complete response to a question.
type Answer struct {
	Answer       string   `json:"answer"`
	Sources      []Source `json:"sources"`
	ResponseTime float64  `json:"response_time"`
	TokensUsed   Usage    `json:"tokens_used"`
}

// Summary is a generated document summary.
type Summary struct {
	Summary      string  `json:"summary"`
	Length       string  `json:"length"`
	ResponseTime float64 `json:"response_time"`
}

// NoRelevantInformation is returned in place of an answer when retrieval finds nothing.
const NoRelevantInformation = "I couldn't find relevant information in the document to answer your question."
