package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

func clauseChunk() domain.Chunk {
	return hit("c1", "doc-1", terminationClause, 1).Chunk
}

func TestGroundingVerifier_LexicalOnly(t *testing.T) {
	v := NewGroundingVerifier(nil, newMockPromptStore())

	t.Run("grounded draft", func(t *testing.T) {
		verdict, err := v.Verify(context.Background(), VerifyRequest{
			Question: "How much notice is required to terminate?",
			Draft:    domain.DraftAnswer{Text: "Either party may terminate with 30 days written notice.", CitedChunkIDs: []string{"c1"}},
			Cited:    []domain.Chunk{clauseChunk()},
		})
		require.NoError(t, err)
		assert.True(t, verdict.IsFaithful)
		assert.True(t, verdict.IsComplete)
		assert.Equal(t, 1, verdict.TotalClaims)
		assert.InDelta(t, 1.0, verdict.Confidence, 1e-9)
	})

	t.Run("ungrounded claim", func(t *testing.T) {
		verdict, err := v.Verify(context.Background(), VerifyRequest{
			Question: "How much notice is required to terminate?",
			Draft: domain.DraftAnswer{
				Text:          "Either party may terminate with 30 days written notice. A penalty fee of 500 euros applies.",
				CitedChunkIDs: []string{"c1"},
			},
			Cited: []domain.Chunk{clauseChunk()},
		})
		require.NoError(t, err)
		assert.False(t, verdict.IsFaithful)
		assert.Equal(t, []string{"A penalty fee of 500 euros applies."}, verdict.UnsupportedClaims)
		assert.InDelta(t, domain.ScoreConfidence(2, 1, 0), verdict.Confidence, 1e-9)
	})

	t.Run("no citations is fully unfaithful", func(t *testing.T) {
		verdict, err := v.Verify(context.Background(), VerifyRequest{
			Question: "q",
			Draft:    domain.DraftAnswer{Text: "Sixty days. Registered post only."},
		})
		require.NoError(t, err)
		assert.False(t, verdict.IsFaithful)
		assert.Len(t, verdict.UnsupportedClaims, 2)
		assert.InDelta(t, domain.CompletenessWeight, verdict.Confidence, 1e-9)
	})

	t.Run("unanswered question terms", func(t *testing.T) {
		verdict, err := v.Verify(context.Background(), VerifyRequest{
			Question: "What notice is required to terminate?",
			Draft:    domain.DraftAnswer{Text: "Either party may act.", CitedChunkIDs: []string{"c1"}},
			Cited:    []domain.Chunk{clauseChunk()},
		})
		require.NoError(t, err)
		assert.False(t, verdict.IsComplete)
		require.Len(t, verdict.MissingAspects, 1)
		assert.Equal(t, "the answer does not address: notice, terminate", verdict.MissingAspects[0])
	})
}

func TestGroundingVerifier_JudgeVerified(t *testing.T) {
	llm := &mockLLM{responses: []string{
		`{"verification_status": "VERIFIED", "issues": [], "missing_information": [], "concerns": ["wording"]}`,
	}}
	v := NewGroundingVerifier(llm, newMockPromptStore())

	verdict, err := v.Verify(context.Background(), VerifyRequest{
		Question: "How much notice?",
		Draft:    domain.DraftAnswer{Text: "Either party may terminate with 30 days written notice.", CitedChunkIDs: []string{"c1"}},
		Cited:    []domain.Chunk{clauseChunk()},
	})
	require.NoError(t, err)
	assert.True(t, verdict.IsFaithful)
	assert.True(t, verdict.IsComplete)
	assert.Equal(t, []string{"wording"}, verdict.Concerns)
	assert.InDelta(t, 1.0, verdict.Confidence, 1e-9)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "SOURCES:\n[1] "+terminationClause)
	assert.NotContains(t, llm.prompts[0], "REPAIR")
}

func TestGroundingVerifier_JudgeIssuesAndLexicalFlagsMerge(t *testing.T) {
	llm := &mockLLM{responses: []string{
		`{"verification_status": "needs_correction", "issues": ["Either party may terminate with 30 days written notice."], "missing_information": ["form of notice"]}`,
	}}
	v := NewGroundingVerifier(llm, newMockPromptStore())

	verdict, err := v.Verify(context.Background(), VerifyRequest{
		Question: "How much notice?",
		Draft: domain.DraftAnswer{
			Text:          "Either party may terminate with 30 days written notice. Refunds are issued quarterly.",
			CitedChunkIDs: []string{"c1"},
		},
		Cited: []domain.Chunk{clauseChunk()},
	})
	require.NoError(t, err)
	assert.False(t, verdict.IsFaithful)
	assert.False(t, verdict.IsComplete)
	assert.Equal(t, []string{
		"Refunds are issued quarterly.",
		"Either party may terminate with 30 days written notice.",
	}, verdict.UnsupportedClaims)
	assert.Equal(t, []string{"form of notice"}, verdict.MissingAspects)
	assert.InDelta(t, domain.ScoreConfidence(2, 2, 1), verdict.Confidence, 1e-9)
}

func TestGroundingVerifier_WrongFigureIsUnsupported(t *testing.T) {
	const claim = "Either party may terminate with 60 days written notice."
	tests := []struct {
		name string
		llm  *mockLLM
	}{
		{name: "lexical only"},
		{name: "judge approves", llm: &mockLLM{responses: []string{`{"verification_status": "VERIFIED"}`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var llm driven.LLMService
			if tt.llm != nil {
				llm = tt.llm
			}
			v := NewGroundingVerifier(llm, newMockPromptStore())

			verdict, err := v.Verify(context.Background(), VerifyRequest{
				Question: "How much notice is required to terminate?",
				Draft:    domain.DraftAnswer{Text: claim, CitedChunkIDs: []string{"c1"}},
				Cited:    []domain.Chunk{clauseChunk()},
			})
			require.NoError(t, err)
			assert.False(t, verdict.IsFaithful)
			assert.Equal(t, []string{claim}, verdict.UnsupportedClaims)
			assert.Less(t, verdict.Confidence, domain.DefaultAcceptanceThreshold)
		})
	}
}

func TestGroundingVerifier_MalformedJudgeOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
	}{
		{name: "not json", out: "Looks fine to me."},
		{name: "broken json", out: `{"verification_status": "VERIFIED", "issues": [}`},
		{name: "unknown status", out: `{"verification_status": "MAYBE"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewGroundingVerifier(&mockLLM{responses: []string{tt.out}}, newMockPromptStore())
			_, err := v.Verify(context.Background(), VerifyRequest{
				Question: "q",
				Draft:    domain.DraftAnswer{Text: "30 days.", CitedChunkIDs: []string{"c1"}},
				Cited:    []domain.Chunk{clauseChunk()},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrVerification)

			var malformed *VerifierOutputError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.out, malformed.Output)
		})
	}
}

func TestGroundingVerifier_RepairPromptOnReask(t *testing.T) {
	llm := &mockLLM{responses: []string{`{"verification_status": "VERIFIED"}`}}
	v := NewGroundingVerifier(llm, newMockPromptStore())

	_, err := v.Verify(context.Background(), VerifyRequest{
		Question:       "q",
		Draft:          domain.DraftAnswer{Text: "30 days written notice.", CitedChunkIDs: []string{"c1"}},
		Cited:          []domain.Chunk{clauseChunk()},
		PreviousOutput: "garbage",
	})
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], "REPAIR: garbage")
}

func TestGroundingVerifier_JudgeTransportFailure(t *testing.T) {
	v := NewGroundingVerifier(&mockLLM{err: errors.New("503")}, newMockPromptStore())
	_, err := v.Verify(context.Background(), VerifyRequest{
		Question: "q",
		Draft:    domain.DraftAnswer{Text: "30 days.", CitedChunkIDs: []string{"c1"}},
		Cited:    []domain.Chunk{clauseChunk()},
	})
	assert.ErrorIs(t, err, domain.ErrVerification)
}

func TestConfidenceMonotoneInVerifierFindings(t *testing.T) {
	prev := 1.1
	for unsupported := 0; unsupported <= 4; unsupported++ {
		claims := make([]string, unsupported)
		for i := range claims {
			claims[i] = string(rune('a' + i))
		}
		v := buildVerdict(4, claims, nil, nil)
		assert.LessOrEqual(t, v.Confidence, prev)
		prev = v.Confidence
	}

	prev = 1.1
	for missing := 0; missing <= 4; missing++ {
		aspects := make([]string, missing)
		v := buildVerdict(4, nil, aspects, nil)
		assert.LessOrEqual(t, v.Confidence, prev)
		prev = v.Confidence
	}
}
