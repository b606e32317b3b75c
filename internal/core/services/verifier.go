package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/lexical"
	"github.com/custodia-labs/verity/internal/logger"
)

// Verifier critiques a draft against the chunks it cites.
type Verifier interface {
	// Verify checks every claim of the draft against req.Cited.
	// A malfunction wraps domain.ErrVerification.
	Verify(ctx context.Context, req VerifyRequest) (domain.Verdict, error)
}

// VerifyRequest is the input to one verification.
type VerifyRequest struct {
	Question string
	Draft    domain.DraftAnswer
	Cited    []domain.Chunk

	// PreviousOutput holds malformed judge output when re-asking.
	PreviousOutput string
}

// VerifierOutputError reports judge output that does not follow the
// verdict protocol. It unwraps to domain.ErrVerification.
type VerifierOutputError struct {
	Output string
	Reason string
}

// Error implements error.
func (e *VerifierOutputError) Error() string {
	return fmt.Sprintf("%v: malformed judge output: %s", domain.ErrVerification, e.Reason)
}

// Unwrap returns domain.ErrVerification.
func (e *VerifierOutputError) Unwrap() error {
	return domain.ErrVerification
}

// Ensure GroundingVerifier implements the interface.
var _ Verifier = (*GroundingVerifier)(nil)

const (
	// groundingThreshold is the share of a claim's content tokens that must
	// appear in the cited chunks for the claim to count as supported.
	groundingThreshold = 0.6

	// coverageThreshold is the share of answerable question terms the
	// draft must mention before the lexical check reports a gap.
	coverageThreshold = 0.5

	verifyMaxTokens = 768
)

// Judge verdict statuses.
const (
	statusVerified        = "VERIFIED"
	statusNeedsCorrection = "NEEDS_CORRECTION"
)

// GroundingVerifier combines a lexical grounding check with an optional
// language model judge. The lexical check runs for every draft.
type GroundingVerifier struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewGroundingVerifier creates a verifier. llm may be nil, in which case
// only the lexical check runs.
func NewGroundingVerifier(llm driven.LLMService, prompts driven.PromptStore) *GroundingVerifier {
	return &GroundingVerifier{llm: llm, prompts: prompts}
}

// Verify implements Verifier.
func (v *GroundingVerifier) Verify(ctx context.Context, req VerifyRequest) (domain.Verdict, error) {
	claims := extractClaims(req.Draft.Text)

	// Nothing cited means nothing is grounded.
	if len(req.Cited) == 0 {
		return buildVerdict(len(claims), claims, nil, nil), nil
	}

	sources := make([]string, len(req.Cited))
	for i := range req.Cited {
		sources[i] = req.Cited[i].Content
	}
	sourceTokens := lexical.TokenSet(sources...)

	var unsupported []string
	for _, claim := range claims {
		if !grounded(claim, sourceTokens) {
			unsupported = append(unsupported, claim)
		}
	}

	if v.llm == nil {
		missing := lexicalGaps(req.Question, req.Draft.Text, sourceTokens)
		return buildVerdict(len(claims), unsupported, missing, nil), nil
	}

	judged, err := v.judge(ctx, req)
	if err != nil {
		return domain.Verdict{}, err
	}
	unsupported = mergeUnique(unsupported, judged.Issues)

	if strings.EqualFold(judged.Status, statusNeedsCorrection) && len(unsupported) == 0 && len(judged.MissingInformation) == 0 {
		logger.Debug("Judge requested correction without naming issues")
	}

	return buildVerdict(len(claims), unsupported, judged.MissingInformation, judged.Concerns), nil
}

type judgeOutput struct {
	Status             string   `json:"verification_status"`
	Issues             []string `json:"issues"`
	MissingInformation []string `json:"missing_information"`
	Concerns           []string `json:"concerns"`
}

func (v *GroundingVerifier) judge(ctx context.Context, req VerifyRequest) (judgeOutput, error) {
	tmpl, err := v.prompts.Load(driven.PromptVerify)
	if err != nil {
		return judgeOutput{}, fmt.Errorf("%w: %w", domain.ErrVerification, err)
	}
	prompt := fmt.Sprintf(tmpl, req.Question, formatSources(req.Cited), req.Draft.Text)
	if req.PreviousOutput != "" {
		repair, err := v.prompts.Load(driven.PromptVerifyRepair)
		if err != nil {
			return judgeOutput{}, fmt.Errorf("%w: %w", domain.ErrVerification, err)
		}
		prompt += "\n\n" + fmt.Sprintf(repair, req.PreviousOutput)
	}

	out, err := v.llm.Complete(ctx, prompt, driven.CompleteOptions{
		MaxTokens:   verifyMaxTokens,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return judgeOutput{}, fmt.Errorf("%w: %w", domain.ErrVerification, err)
	}

	return parseJudgeOutput(out)
}

// parseJudgeOutput decodes the verdict protocol. Unknown statuses and
// non-JSON output are malformed.
func parseJudgeOutput(out string) (judgeOutput, error) {
	obj := extractJSONObject(out)
	if obj == "" {
		return judgeOutput{}, &VerifierOutputError{Output: out, Reason: "no JSON object"}
	}
	var parsed judgeOutput
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return judgeOutput{}, &VerifierOutputError{Output: out, Reason: err.Error()}
	}
	status := strings.ToUpper(strings.TrimSpace(parsed.Status))
	if status != statusVerified && status != statusNeedsCorrection {
		return judgeOutput{}, &VerifierOutputError{Output: out, Reason: fmt.Sprintf("unknown verification_status %q", parsed.Status)}
	}
	parsed.Status = status
	parsed.Issues = nonEmpty(parsed.Issues)
	parsed.MissingInformation = nonEmpty(parsed.MissingInformation)
	parsed.Concerns = nonEmpty(parsed.Concerns)
	return parsed, nil
}

func formatSources(chunks []domain.Chunk) string {
	var sb strings.Builder
	for i := range chunks {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, strings.TrimSpace(chunks[i].Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// extractClaims splits a draft into checkable claim sentences. A non-empty
// draft always yields at least one claim.
func extractClaims(text string) []string {
	var claims []string
	for _, s := range lexical.SplitSentences(text) {
		if len(lexical.ContentTokens(s)) > 0 {
			claims = append(claims, s)
		}
	}
	if len(claims) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			claims = []string{t}
		}
	}
	return claims
}

// grounded reports whether the cited text backs claim: enough of its
// words overlap, and every figure it states appears in the sources.
func grounded(claim string, sourceTokens map[string]struct{}) bool {
	if lexical.Overlap(claim, sourceTokens) < groundingThreshold {
		return false
	}
	return len(lexical.UnmatchedNumbers(claim, sourceTokens)) == 0
}

// lexicalGaps reports question terms that the cited chunks cover but the
// draft never mentions. It stays silent unless most such terms are absent.
func lexicalGaps(question, draft string, sourceTokens map[string]struct{}) []string {
	draftTokens := lexical.TokenSet(draft)
	var answerable int
	var absent []string
	for _, term := range lexical.SurfaceTerms(question) {
		if _, ok := sourceTokens[term.Stem]; !ok {
			continue
		}
		answerable++
		if _, ok := draftTokens[term.Stem]; !ok {
			absent = append(absent, term.Surface)
		}
	}
	if answerable == 0 {
		return nil
	}
	covered := float64(answerable-len(absent)) / float64(answerable)
	if covered >= coverageThreshold {
		return nil
	}
	return []string{"the answer does not address: " + strings.Join(absent, ", ")}
}

func buildVerdict(totalClaims int, unsupported, missing, concerns []string) domain.Verdict {
	if len(unsupported) > totalClaims {
		totalClaims = len(unsupported)
	}
	return domain.Verdict{
		IsFaithful:        len(unsupported) == 0,
		IsComplete:        len(missing) == 0,
		UnsupportedClaims: unsupported,
		MissingAspects:    missing,
		Concerns:          concerns,
		TotalClaims:       totalClaims,
		Confidence:        domain.ScoreConfidence(totalClaims, len(unsupported), len(missing)),
	}
}

// mergeUnique appends items from b not already in a, comparing
// case-insensitively.
func mergeUnique(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func nonEmpty(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
