package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAnswer drafts a grounded answer from numbered passages.
	// The template expects %s (passages) and %s (question) placeholders.
	PromptAnswer = "answer"

	// PromptCorrect revises a draft using verifier feedback.
	// The template expects %s (passages), %s (question), %s (previous draft)
	// and %s (feedback) placeholders.
	PromptCorrect = "correct"

	// PromptVerify asks the model to critique a draft against its sources.
	// The template expects %s (question), %s (sources) and %s (draft) placeholders.
	PromptVerify = "verify"

	// PromptVerifyRepair re-asks after malformed verifier output.
	// The template expects %s (the malformed output) placeholder.
	PromptVerifyRepair = "verify_repair"
)
