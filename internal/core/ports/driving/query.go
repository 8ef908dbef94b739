package driving

import (
	"context"
	"iter"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QueryService answers questions about and summarises documents.
type QueryService interface {
	// Ask retrieves context for the question and returns a complete answer.
	Ask(ctx context.Context, req AskRequest) (*domain.Answer, error)

	// AskStream is Ask with the answer yielded fragment by fragment.
	// Unknown documents fail before the sequence is returned.
	AskStream(ctx context.Context, req AskRequest) (iter.Seq2[string, error], error)

	// Summarise generates a summary of a document.
	// length selects the amount of text summarised.
	Summarise(ctx context.Context, docID, length string) (*domain.Summary, error)
}

// AskRequest is a question about one document.
type AskRequest struct {
	// DocID is the document to answer from.
	DocID string

	// Question is the user's question.
	Question string

	// History holds previous turns of the conversation, oldest first.
	History []domain.ChatTurn

	// TopK overrides the configured retrieval depth when positive.
	TopK int
}
