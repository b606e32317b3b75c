package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreConfidence_Bounds(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		unsupported int
		missing     int
		want        float64
	}{
		{"fully supported and complete", 4, 0, 0, 1.0},
		{"no claims", 0, 0, 0, 0.3},
		{"all unsupported", 3, 3, 0, 0.3},
		{"half unsupported", 2, 1, 0, 0.65},
		{"one missing aspect", 2, 0, 1, 0.85},
		{"unsupported exceeds total", 1, 3, 0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreConfidence(tt.total, tt.unsupported, tt.missing)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestScoreConfidence_MonotoneInUnsupportedClaims(t *testing.T) {
	for total := 1; total <= 10; total++ {
		for missing := 0; missing <= 3; missing++ {
			prev := ScoreConfidence(total, 0, missing)
			for unsupported := 1; unsupported <= total; unsupported++ {
				cur := ScoreConfidence(total, unsupported, missing)
				assert.LessOrEqual(t, cur, prev, "total=%d unsupported=%d missing=%d", total, unsupported, missing)
				prev = cur
			}
		}
	}
}

func TestScoreConfidence_MonotoneInMissingAspects(t *testing.T) {
	for total := 1; total <= 5; total++ {
		for unsupported := 0; unsupported <= total; unsupported++ {
			prev := ScoreConfidence(total, unsupported, 0)
			for missing := 1; missing <= 5; missing++ {
				cur := ScoreConfidence(total, unsupported, missing)
				assert.LessOrEqual(t, cur, prev)
				prev = cur
			}
		}
	}
}

func TestVerdict_Accepted(t *testing.T) {
	assert.True(t, Verdict{IsFaithful: true, IsComplete: true, Confidence: 0.1}.Accepted(0.7))
	assert.True(t, Verdict{Confidence: 0.7}.Accepted(0.7))
	assert.False(t, Verdict{IsFaithful: true, Confidence: 0.69}.Accepted(0.7))
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, BandFor(0.95))
	assert.Equal(t, ConfidenceHigh, BandFor(0.9))
	assert.Equal(t, ConfidenceMedium, BandFor(0.7))
	assert.Equal(t, ConfidenceLow, BandFor(0.69))
	assert.Equal(t, ConfidenceLow, BandFor(0))
}

func TestDraftAnswer_Cites(t *testing.T) {
	d := DraftAnswer{CitedChunkIDs: []string{"a", "b"}}
	assert.True(t, d.Cites("a"))
	assert.False(t, d.Cites("c"))
}

func TestRetrievalResult_Accessors(t *testing.T) {
	r := RetrievalResult{
		{ChunkID: "c1", Score: 0.9, Chunk: Chunk{ID: "c1", Content: "one"}},
		{ChunkID: "c2", Score: 0.4, Chunk: Chunk{ID: "c2", Content: "two"}},
	}

	assert.Equal(t, []string{"c1", "c2"}, r.ChunkIDs())
	chunks := r.Chunks()
	assert.Len(t, chunks, 2)
	assert.Equal(t, "two", chunks[1].Content)
}

func TestAskResult_Uncertain(t *testing.T) {
	assert.False(t, (&AskResult{Status: SessionAccepted}).Uncertain())
	assert.True(t, (&AskResult{Status: SessionExhausted}).Uncertain())
}

func TestReportFormatFromPath(t *testing.T) {
	f, err := ReportFormatFromPath("out/answer.PDF")
	require.NoError(t, err)
	assert.Equal(t, ReportPDF, f)

	f, err = ReportFormatFromPath("answer.docx")
	require.NoError(t, err)
	assert.Equal(t, ReportDOCX, f)

	_, err = ReportFormatFromPath("answer.html")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
