package domain

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// RetrievalHit is one retrieved chunk with its similarity score.
type RetrievalHit struct {
	// ChunkID identifies the retrieved chunk.
	ChunkID string

	// Score is the similarity to the query. Higher is more relevant.
	Score float64

	// Chunk is the hydrated chunk.
	Chunk Chunk
}

// RetrievalResult is an ordered sequence of hits with unique chunk IDs,
// descending by score. It is recomputed every iteration.
type RetrievalResult []RetrievalHit

// ChunkIDs returns the chunk IDs in rank order.
func (r RetrievalResult) ChunkIDs() []string {
	ids := make([]string, len(r))
	for i := range r {
		ids[i] = r[i].ChunkID
	}
	return ids
}

// Chunks returns the hydrated chunks in rank order.
func (r RetrievalResult) Chunks() []Chunk {
	chunks := make([]Chunk, len(r))
	for i := range r {
		chunks[i] = r[i].Chunk
	}
	return chunks
}

// DraftAnswer is a single generation attempt. Never mutated.
type DraftAnswer struct {
	// Text is the answer prose.
	Text string

	// CitedChunkIDs is the ordered set of passages the text relies on.
	CitedChunkIDs []string

	// Iteration is the zero-based iteration that produced the draft.
	Iteration int
}

// Cites reports whether the draft cites the given chunk.
func (d DraftAnswer) Cites(chunkID string) bool {
	for _, id := range d.CitedChunkIDs {
		if id == chunkID {
			return true
		}
	}
	return false
}

// Verdict is the verifier's structured critique of a draft.
type Verdict struct {
	IsFaithful        bool
	IsComplete        bool
	UnsupportedClaims []string
	MissingAspects    []string

	// Confidence is in [0,1] and never increases as unsupported claims
	// or missing aspects grow. See ScoreConfidence.
	Confidence float64

	// TotalClaims is the number of claims checked.
	TotalClaims int

	// Concerns are advisory notes from the verifier that do not affect scoring.
	Concerns []string
}

// Accepted reports whether the verdict passes the acceptance threshold.
func (v Verdict) Accepted(threshold float64) bool {
	return (v.IsFaithful && v.IsComplete) || v.Confidence >= threshold
}

// Confidence weighting between faithfulness and completeness.
const (
	FaithfulnessWeight = 0.7
	CompletenessWeight = 0.3
)

// ScoreConfidence combines faithfulness and completeness into one score.
//
//	faithfulness = (total - unsupported) / total   (0 when total == 0)
//	completeness = 1 / (1 + missing)
//	confidence   = 0.7*faithfulness + 0.3*completeness
//
// A draft with no checkable claims is treated as fully unfaithful.
func ScoreConfidence(totalClaims, unsupported, missing int) float64 {
	if unsupported < 0 {
		unsupported = 0
	}
	if missing < 0 {
		missing = 0
	}
	if unsupported > totalClaims {
		totalClaims = unsupported
	}

	faithfulness := 0.0
	if totalClaims > 0 {
		faithfulness = float64(totalClaims-unsupported) / float64(totalClaims)
	}
	completeness := 1.0 / float64(1+missing)

	return clamp01(FaithfulnessWeight*faithfulness + CompletenessWeight*completeness)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ConfidenceBand buckets a confidence score for presentation.
type ConfidenceBand string

// Confidence bands.
const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// BandFor returns the presentation band for a confidence score.
func BandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence >= 0.9:
		return ConfidenceHigh
	case confidence >= 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Citation references a chunk supporting the final answer.
type Citation struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name,omitempty"`
	StartOffset  int     `json:"start_offset"`
	EndOffset    int     `json:"end_offset"`
	Snippet      string  `json:"snippet"`
	Score        float64 `json:"score"`
}

// IterationSummary is one correction_log entry.
type IterationSummary struct {
	Iteration         int      `json:"iteration"`
	RetrievalK        int      `json:"retrieval_k"`
	Excluded          int      `json:"excluded"`
	CitedChunkIDs     []string `json:"cited_chunk_ids"`
	IsFaithful        bool     `json:"is_faithful"`
	IsComplete        bool     `json:"is_complete"`
	UnsupportedClaims []string `json:"unsupported_claims,omitempty"`
	MissingAspects    []string `json:"missing_aspects,omitempty"`
	Confidence        float64  `json:"confidence"`
	VerifierRetried   bool     `json:"verifier_retried,omitempty"`
	Decision          string   `json:"decision"`
}

// AskResult is the caller-visible outcome of a successful ask.
type AskResult struct {
	SessionID     string             `json:"session_id"`
	Question      string             `json:"question"`
	Answer        string             `json:"answer"`
	Confidence    float64            `json:"confidence"`
	Status        SessionStatus      `json:"status"`
	StopReason    StopReason         `json:"stop_reason"`
	Citations     []Citation         `json:"citations"`
	CorrectionLog []IterationSummary `json:"correction_log"`
}

// Band returns the presentation band of the result confidence.
func (r *AskResult) Band() ConfidenceBand {
	return BandFor(r.Confidence)
}

// Uncertain reports whether the answer should be flagged to the user.
func (r *AskResult) Uncertain() bool {
	return r.Status != SessionAccepted
}

// ReportFormat is an export format for an answer report.
type ReportFormat string

// Supported report formats.
const (
	ReportMarkdown ReportFormat = "md"
	ReportDOCX     ReportFormat = "docx"
	ReportPDF      ReportFormat = "pdf"
)

// ReportFormatFromPath derives the report format from a file extension.
// Unknown extensions wrap ErrUnsupportedFormat.
func ReportFormatFromPath(path string) (ReportFormat, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch f := ReportFormat(ext); f {
	case ReportMarkdown, ReportDOCX, ReportPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: report extension %q (want .md, .docx or .pdf)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
