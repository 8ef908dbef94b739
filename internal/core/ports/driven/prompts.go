package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the built-in
	// default, or an error if there is none.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptQASystem is the system instruction for answering questions.
	PromptQASystem = "qa_system"

	// PromptQAExamples holds few-shot exchanges for question answering.
	// Exchanges are separated by a line containing only "---"; within an
	// exchange the question and answer are separated by a line containing only "===".
	PromptQAExamples = "qa_examples"

	// PromptQAUser is the final user turn. It expects two %s placeholders:
	// the retrieved context, then the question.
	PromptQAUser = "qa_user"

	// PromptSummarySystem is the system instruction for summaries.
	PromptSummarySystem = "summary_system"

	// PromptSummaryExamples holds few-shot exchanges for summaries, in the
	// same format as PromptQAExamples.
	PromptSummaryExamples = "summary_examples"

	// PromptSummaryUser is the final summary request. It expects one %s
	// placeholder for the document text.
	PromptSummaryUser = "summary_user"
)
