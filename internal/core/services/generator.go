package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/lexical"
	"github.com/custodia-labs/verity/internal/logger"
)

// Generator drafts an answer from retrieved passages.
type Generator interface {
	// Generate produces a draft citing a subset of req.Passages.
	// Failures wrap domain.ErrGeneration and never yield an empty draft.
	Generate(ctx context.Context, req GenerateRequest) (domain.DraftAnswer, error)
}

// GenerateRequest is the input to one generation attempt.
type GenerateRequest struct {
	Question  string
	Passages  domain.RetrievalResult
	Iteration int

	// Previous is the prior attempt whose verdict is fed back.
	// Nil on the first iteration.
	Previous *domain.Attempt
}

// Ensure AnswerGenerator implements the interface.
var _ Generator = (*AnswerGenerator)(nil)

const (
	generateMaxTokens = 1024
	extractiveMaxSent = 3
)

// AnswerGenerator drafts answers with a language model when one is
// configured, and extracts the best-matching sentences otherwise.
type AnswerGenerator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewAnswerGenerator creates a generator. llm may be nil.
func NewAnswerGenerator(llm driven.LLMService, prompts driven.PromptStore) *AnswerGenerator {
	return &AnswerGenerator{llm: llm, prompts: prompts}
}

// Generate implements Generator.
func (g *AnswerGenerator) Generate(ctx context.Context, req GenerateRequest) (domain.DraftAnswer, error) {
	if len(req.Passages) == 0 {
		return domain.DraftAnswer{}, fmt.Errorf("%w: no passages supplied", domain.ErrGeneration)
	}
	if g.llm == nil {
		draft := extractiveAnswer(req)
		if draft.Text == "" {
			return domain.DraftAnswer{}, fmt.Errorf("%w: passages contain no text", domain.ErrGeneration)
		}
		return draft, nil
	}

	prompt, err := g.buildPrompt(req)
	if err != nil {
		return domain.DraftAnswer{}, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	out, err := g.llm.Complete(ctx, prompt, driven.CompleteOptions{
		MaxTokens:   generateMaxTokens,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return domain.DraftAnswer{}, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	text, refs := parseGeneratorOutput(out)
	if text == "" {
		return domain.DraftAnswer{}, fmt.Errorf("%w: model returned an empty answer", domain.ErrGeneration)
	}

	cited := resolveCitations(refs, req.Passages)
	if len(cited) < len(refs) {
		logger.Debug("Dropped %d invalid citations", len(refs)-len(cited))
	}

	return domain.DraftAnswer{Text: text, CitedChunkIDs: cited, Iteration: req.Iteration}, nil
}

func (g *AnswerGenerator) buildPrompt(req GenerateRequest) (string, error) {
	passages := formatPassages(req.Passages)
	if req.Previous == nil {
		tmpl, err := g.prompts.Load(driven.PromptAnswer)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(tmpl, passages, req.Question), nil
	}
	tmpl, err := g.prompts.Load(driven.PromptCorrect)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(tmpl, passages, req.Question, req.Previous.Draft.Text, formatFeedback(req.Previous.Verdict)), nil
}

// formatPassages numbers passages from 1 in rank order.
func formatPassages(passages domain.RetrievalResult) string {
	var sb strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, strings.TrimSpace(p.Chunk.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatFeedback(v domain.Verdict) string {
	var sb strings.Builder
	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, item := range items {
			sb.WriteString("- ")
			sb.WriteString(item)
			sb.WriteString("\n")
		}
	}
	writeList("Unsupported statements", v.UnsupportedClaims)
	writeList("Missing information", v.MissingAspects)
	writeList("Concerns", v.Concerns)
	if sb.Len() == 0 {
		return "No specific issues were reported. Tighten the answer to the passages."
	}
	return strings.TrimRight(sb.String(), "\n")
}

type generatorOutput struct {
	Answer    string `json:"answer"`
	Citations []any  `json:"citations"`
}

var inlineCitation = regexp.MustCompile(`\[(\d+)\]`)

// parseGeneratorOutput reads the JSON answer protocol. Output that is not
// JSON is taken as the answer text with inline [n] markers as citations.
func parseGeneratorOutput(out string) (string, []int) {
	var parsed generatorOutput
	if obj := extractJSONObject(out); obj != "" && json.Unmarshal([]byte(obj), &parsed) == nil && parsed.Answer != "" {
		refs := make([]int, 0, len(parsed.Citations))
		for _, c := range parsed.Citations {
			if n, ok := citationNumber(c); ok {
				refs = append(refs, n)
			}
		}
		return strings.TrimSpace(parsed.Answer), refs
	}

	text := strings.TrimSpace(out)
	var refs []int
	for _, m := range inlineCitation.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			refs = append(refs, n)
		}
	}
	return text, refs
}

func citationNumber(v any) (int, bool) {
	switch c := v.(type) {
	case float64:
		if c != float64(int(c)) {
			return 0, false
		}
		return int(c), true
	case string:
		n, err := strconv.Atoi(strings.Trim(strings.TrimSpace(c), "[]"))
		return n, err == nil
	default:
		return 0, false
	}
}

// extractJSONObject returns the outermost {...} span, tolerating code fences
// and surrounding prose.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// resolveCitations maps 1-based passage numbers to chunk IDs, dropping
// out-of-range and repeated references.
func resolveCitations(refs []int, passages domain.RetrievalResult) []string {
	seen := make(map[string]struct{}, len(refs))
	ids := make([]string, 0, len(refs))
	for _, n := range refs {
		if n < 1 || n > len(passages) {
			continue
		}
		id := passages[n-1].ChunkID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

type scoredSentence struct {
	text    string
	passage int
	order   int
	score   float64
}

// extractiveAnswer selects the passage sentences that best cover the
// question, plus any missing aspects the previous verdict named. Sentences
// are quoted verbatim so every claim is grounded in a cited passage.
func extractiveAnswer(req GenerateRequest) domain.DraftAnswer {
	focus := req.Question
	if req.Previous != nil {
		focus += " " + strings.Join(req.Previous.Verdict.MissingAspects, " ")
	}
	want := lexical.TokenSet(focus)

	var candidates []scoredSentence
	order := 0
	for i, p := range req.Passages {
		for _, sent := range lexical.SplitSentences(p.Chunk.Content) {
			tokens := lexical.ContentTokens(sent)
			if len(tokens) == 0 {
				continue
			}
			hit := 0
			for _, t := range tokens {
				if _, ok := want[t]; ok {
					hit++
				}
			}
			candidates = append(candidates, scoredSentence{
				text:    sent,
				passage: i,
				order:   order,
				score:   float64(hit) + 0.1*p.Score,
			})
			order++
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	var picked []scoredSentence
	seenText := make(map[string]struct{})
	for _, c := range candidates {
		if len(picked) == extractiveMaxSent {
			break
		}
		if len(picked) > 0 && c.score < 1 {
			break
		}
		if _, dup := seenText[c.text]; dup {
			continue
		}
		seenText[c.text] = struct{}{}
		picked = append(picked, c)
	}
	if len(picked) == 0 {
		top := strings.TrimSpace(req.Passages[0].Chunk.Content)
		picked = append(picked, scoredSentence{text: top, passage: 0})
	}

	// Restore reading order.
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].order < picked[j].order })

	parts := make([]string, len(picked))
	refs := make([]int, len(picked))
	for i, s := range picked {
		parts[i] = s.text
		refs[i] = s.passage + 1
	}

	return domain.DraftAnswer{
		Text:          strings.Join(parts, " "),
		CitedChunkIDs: resolveCitations(refs, req.Passages),
		Iteration:     req.Iteration,
	}
}
