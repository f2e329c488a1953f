package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswer grounds an answer in retrieved context.
	// The template expects %s (context) and %s (question) placeholders.
	PromptAnswer = "answer"

	// PromptQuiz generates a multiple-choice quiz from retrieved context.
	// The template expects %s (context), %s (topic) and %d (question count)
	// placeholders. The JSON-only instruction is appended by the caller.
	PromptQuiz = "quiz"

	// PromptRecommend turns accumulated quiz progress into study advice.
	// The template expects one %s placeholder (progress as JSON).
	PromptRecommend = "recommend"

	// PromptChatSystem is the system prompt for the interactive chat view.
	// This prompt has no format placeholders.
	PromptChatSystem = "chat_system"
)
