package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/verity/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != 800 {
			t.Errorf("expected chunkSize 800, got %d", p.chunkSize)
		}
		if p.overlap != 150 {
			t.Errorf("expected overlap 150, got %d", p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.chunkSize)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap >= p.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", New().Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	chunks, err := New().Process(context.Background(), &domain.Document{ID: "d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestProcessor_Process_SmallContent(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	content := "Termination clause: either party may terminate with 30 days written notice."
	doc := &domain.Document{ID: "doc", Content: content}

	chunks, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Content != content {
		t.Errorf("unexpected content %q", c.Content)
	}
	if c.StartOffset != 0 || c.EndOffset != len([]rune(content)) {
		t.Errorf("unexpected offsets [%d,%d)", c.StartOffset, c.EndOffset)
	}
	if c.DocumentID != "doc" {
		t.Errorf("expected document ID doc, got %s", c.DocumentID)
	}
}

func TestProcessor_Process_CoversContentWithoutGaps(t *testing.T) {
	content := strings.Repeat("lorem ipsum dolor sit amet ", 200)
	p := New(WithChunkSize(120), WithOverlap(30))

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc", Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	runes := []rune(content)
	if chunks[0].StartOffset != 0 {
		t.Errorf("first chunk must start at 0, got %d", chunks[0].StartOffset)
	}
	for i, c := range chunks {
		if c.StartOffset >= c.EndOffset {
			t.Errorf("chunk %d has empty span [%d,%d)", i, c.StartOffset, c.EndOffset)
		}
		if c.EndOffset-c.StartOffset > 120 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, c.EndOffset-c.StartOffset)
		}
		if c.Content != string(runes[c.StartOffset:c.EndOffset]) {
			t.Errorf("chunk %d content does not match its offsets", i)
		}
		if c.Position != i {
			t.Errorf("chunk %d has position %d", i, c.Position)
		}
		if i > 0 && c.StartOffset > chunks[i-1].EndOffset {
			t.Errorf("gap between chunk %d and %d", i-1, i)
		}
	}
	if last := chunks[len(chunks)-1]; last.EndOffset != len(runes) {
		t.Errorf("last chunk must end at %d, got %d", len(runes), last.EndOffset)
	}
}

func TestProcessor_Process_PrefersWhitespaceBoundary(t *testing.T) {
	content := strings.Repeat("word ", 50)
	p := New(WithChunkSize(23), WithOverlap(5))

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc", Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(chunks[0].Content, " ") {
		t.Errorf("expected first chunk to end at a word boundary, got %q", chunks[0].Content)
	}
}

func TestProcessor_Process_MultibyteOffsets(t *testing.T) {
	content := strings.Repeat("é", 30)
	p := New(WithChunkSize(10), WithOverlap(2))

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc", Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if len([]rune(c.Content)) != c.EndOffset-c.StartOffset {
			t.Errorf("offsets must count runes, got %q for [%d,%d)", c.Content, c.StartOffset, c.EndOffset)
		}
	}
}

func TestProcessor_Process_DeterministicIDs(t *testing.T) {
	doc := &domain.Document{ID: "doc", Content: strings.Repeat("abc ", 100)}
	p := New(WithChunkSize(50), WithOverlap(10))

	first, _ := p.Process(context.Background(), doc)
	second, _ := p.Process(context.Background(), doc)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	seen := make(map[string]bool)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d ID not deterministic", i)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate chunk ID %s", first[i].ID)
		}
		seen[first[i].ID] = true
	}
	if ChunkID("doc", 0) == ChunkID("other", 0) {
		t.Error("chunk IDs must differ across documents")
	}
}

func TestProcessor_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, &domain.Document{ID: "doc", Content: "text"})
	if err == nil {
		t.Error("expected context error")
	}
}
