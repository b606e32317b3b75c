// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Normaliser: Extracts text from an uploaded file kind
//   - NormaliserRegistry: Selects the normaliser for a file kind
//   - PostProcessor: Splits document text into chunks
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Vector storage and similarity search
//   - DocumentStore: Document and chunk persistence
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates for generation and verification
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model completion. Without it, answers are
//     extractive and verification is lexical only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
