// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"strconv"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c9a52-3f0e-4d8c-9a4b-2d7e5c1b8f30")

// Processor splits document content into fixed-size, overlapping chunks.
// Sizes and offsets are measured in runes. A chunk boundary is moved back
// to the nearest whitespace when one exists in the second half of the window.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Consecutive chunks overlap or touch; the union of all spans covers the
// whole content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}

	runes := []rune(doc.Content)
	n := len(runes)

	estimatedChunks := (n / (p.chunkSize - p.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	start := 0

	for start < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			end = p.softBoundary(runes, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			ID:          ChunkID(doc.ID, position),
			DocumentID:  doc.ID,
			Content:     string(runes[start:end]),
			Position:    position,
			StartOffset: start,
			EndOffset:   end,
		})
		position++

		if end == n {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks, nil
}

// softBoundary moves end back to just after the last whitespace in the
// second half of the window, keeping words intact where possible.
func (p *Processor) softBoundary(runes []rune, start, end int) int {
	floor := start + p.chunkSize/2
	for i := end - 1; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

// ChunkID returns the deterministic ID of the chunk at position in a document.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"#"+strconv.Itoa(position))).String()
}
