package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexEmpty indicates no documents have been ingested.
	// Fatal for ask, recoverable by ingesting.
	ErrIndexEmpty = errors.New("index is empty")

	// ErrUnsupportedFormat indicates an upload of an unknown file kind.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrFileTooLarge indicates an upload over the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrDuplicateDocument indicates identical bytes were already ingested.
	ErrDuplicateDocument = errors.New("document already ingested")

	// ErrGeneration indicates the language model failed to produce a draft.
	ErrGeneration = errors.New("generation failed")

	// ErrEmbedding indicates the embedding backend failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRetrievalBackend indicates the vector index failed.
	ErrRetrievalBackend = errors.New("retrieval backend failed")

	// ErrVerification indicates the verifier malfunctioned,
	// for example on malformed model output.
	ErrVerification = errors.New("verification failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// Stage names the pipeline step an error originated from.
type Stage string

// Pipeline stages.
const (
	StageRetrieve Stage = "retrieve"
	StageGenerate Stage = "generate"
	StageVerify   Stage = "verify"
	StageIngest   Stage = "ingest"
	StageCancel   Stage = "cancel"
)

// AskError is the classified failure returned by ask.
// Iteration is zero-based; Err carries the underlying cause.
type AskError struct {
	Stage     Stage
	Iteration int
	Err       error
}

// Error implements error.
func (e *AskError) Error() string {
	return fmt.Sprintf("ask failed at %s (iteration %d): %v", e.Stage, e.Iteration, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AskError) Unwrap() error {
	return e.Err
}

// Kind returns the name of the first taxonomy error in the chain,
// or "internal" when the cause is unclassified.
func (e *AskError) Kind() string {
	return ErrorKind(e.Err)
}

// IngestError is the classified failure returned by ingest.
type IngestError struct {
	Name string
	Err  error
}

// Error implements error.
func (e *IngestError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("ingest failed: %v", e.Err)
	}
	return fmt.Sprintf("ingest %q failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IngestError) Unwrap() error {
	return e.Err
}

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrIndexEmpty, "IndexEmptyError"},
	{ErrUnsupportedFormat, "UnsupportedFormatError"},
	{ErrFileTooLarge, "FileTooLargeError"},
	{ErrGeneration, "GenerationError"},
	{ErrEmbedding, "EmbeddingError"},
	{ErrRetrievalBackend, "RetrievalBackendError"},
	{ErrVerification, "VerificationError"},
	{ErrInvalidInput, "InvalidInputError"},
	{ErrNotFound, "NotFoundError"},
}

// ErrorKind classifies err against the error taxonomy.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Canceled"
	}
	return "internal"
}
