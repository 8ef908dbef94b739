// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"iter"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentLoaded carries the stats of the document being discussed.
type DocumentLoaded struct {
	Stats *domain.DocumentStats
	Err   error
}

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerStarted signals the answer stream is open.
// Fragments follow as AnswerFragment messages.
type AnswerStarted struct {
	Stream *Stream
	Err    error
}

// AnswerFragment carries the next piece of the streamed answer.
type AnswerFragment struct {
	Text string
}

// AnswerCompleted signals the stream ended. Err is set when it failed
// or was cancelled.
type AnswerCompleted struct {
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// Stream is a pull handle on a streamed answer. Next and Stop must be
// called from one goroutine at a time.
type Stream struct {
	// Next returns the next fragment. ok is false once the stream ended.
	Next func() (text string, err error, ok bool)

	// Stop releases the stream. It is safe to call more than once.
	Stop func()
}

// NewStream wraps seq in a pull handle. Fragments are produced only as
// Next is called.
func NewStream(seq iter.Seq2[string, error]) *Stream {
	next, stop := iter.Pull2(seq)
	return &Stream{Next: next, Stop: stop}
}
