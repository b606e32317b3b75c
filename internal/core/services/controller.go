package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
	"github.com/custodia-labs/verity/internal/lexical"
	"github.com/custodia-labs/verity/internal/logger"
)

// Ensure CorrectionController implements the interface.
var _ driving.AskService = (*CorrectionController)(nil)

// snippetRunes bounds the citation snippet length.
const snippetRunes = 240

// Decisions recorded per iteration.
const (
	decisionAccept    = "accept"
	decisionRetry     = "retry"
	decisionExhausted = "exhausted"
)

// CorrectionController runs the retrieve, generate and verify loop for a
// question until a draft is accepted or the iteration budget is spent.
// Each call to Ask owns its own session; the controller itself is
// stateless and safe for concurrent use.
type CorrectionController struct {
	retriever Retriever
	generator Generator
	verifier  Verifier
	docStore  driven.DocumentStore
	cfg       domain.Config
	newID     func() string
}

// NewCorrectionController creates a controller. docStore is used to
// resolve document names for citations and may be nil.
func NewCorrectionController(
	retriever Retriever,
	generator Generator,
	verifier Verifier,
	docStore driven.DocumentStore,
	cfg domain.Config,
) *CorrectionController {
	return &CorrectionController{
		retriever: retriever,
		generator: generator,
		verifier:  verifier,
		docStore:  docStore,
		cfg:       cfg,
		newID:     uuid.NewString,
	}
}

// Ask implements driving.AskService.
func (c *CorrectionController) Ask(ctx context.Context, question string) (*domain.AskResult, error) {
	question = strings.TrimSpace(question)
	session := domain.NewCorrectionSession(c.newID(), question)
	ctx = logger.WithSession(ctx, session.ID)
	log := logger.FromContext(ctx)

	if question == "" {
		return nil, c.fail(ctx, session, domain.StageRetrieve, 0, domain.ErrInvalidInput)
	}

	logger.Section("Ask")
	log.Debug("session started", zap.String("question", question))

	k := c.cfg.RetrievalK
	exclude := make(map[string]struct{})

	for i := 0; i < c.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(ctx, session, domain.StageCancel, i, err)
		}
		session.IterationCount = i

		prev, hasPrev := session.Latest()
		if hasPrev {
			if len(prev.Verdict.MissingAspects) > 0 {
				k += c.cfg.RetrievalK
			}
			for _, id := range misreadChunks(prev) {
				exclude[id] = struct{}{}
			}
		}

		passages, err := c.retriever.Retrieve(ctx, question, k, exclude)
		if err == nil && len(passages) == 0 && len(exclude) > 0 {
			// Exclusions emptied the pool; fall back to the full index.
			log.Debug("exclusions removed every passage, retrying without them", zap.Int("iteration", i))
			passages, err = c.retriever.Retrieve(ctx, question, k, nil)
		}
		if err != nil {
			return nil, c.fail(ctx, session, domain.StageRetrieve, i, err)
		}

		req := GenerateRequest{Question: question, Passages: passages, Iteration: i}
		if hasPrev {
			req.Previous = &prev
		}
		draft, err := c.generator.Generate(ctx, req)
		if err != nil {
			return nil, c.fail(ctx, session, domain.StageGenerate, i, err)
		}
		draft = keepSupplied(draft, passages)

		verdict, retried, err := c.verify(ctx, question, draft, passages)
		if err != nil {
			return nil, c.fail(ctx, session, domain.StageVerify, i, err)
		}

		session.Record(domain.Attempt{Draft: draft, Verdict: verdict, Passages: passages})

		status, reason := c.decide(session, verdict, i)
		decision := decisionRetry
		switch status {
		case domain.SessionAccepted:
			decision = decisionAccept
		case domain.SessionExhausted:
			decision = decisionExhausted
		}

		session.Log = append(session.Log, domain.IterationSummary{
			Iteration:         i,
			RetrievalK:        k,
			Excluded:          len(exclude),
			CitedChunkIDs:     draft.CitedChunkIDs,
			IsFaithful:        verdict.IsFaithful,
			IsComplete:        verdict.IsComplete,
			UnsupportedClaims: verdict.UnsupportedClaims,
			MissingAspects:    verdict.MissingAspects,
			Confidence:        verdict.Confidence,
			VerifierRetried:   retried,
			Decision:          decision,
		})
		log.Info("iteration complete",
			zap.Int("iteration", i),
			zap.Float64("confidence", verdict.Confidence),
			zap.String("decision", decision),
			zap.Int("retrieval_k", k),
			zap.Int("cited", len(draft.CitedChunkIDs)),
		)

		if status == domain.SessionRunning {
			continue
		}
		if err := session.Finish(status, reason); err != nil {
			return nil, c.fail(ctx, session, domain.StageVerify, i, err)
		}
		if status == domain.SessionExhausted {
			log.Info("session exhausted", zap.String("reason", string(reason)))
		}
		return c.result(ctx, session), nil
	}

	// Unreachable when MaxIterations >= 1; decide always stops on the last iteration.
	return nil, c.fail(ctx, session, domain.StageVerify, session.IterationCount, domain.ErrInvalidInput)
}

// improvementEpsilon absorbs float rounding so a gain equal to the
// margin counts as an improvement.
const improvementEpsilon = 1e-9

// decide applies the acceptance and stopping rules in order.
func (c *CorrectionController) decide(
	session *domain.CorrectionSession, verdict domain.Verdict, iteration int,
) (domain.SessionStatus, domain.StopReason) {
	if verdict.Accepted(c.cfg.AcceptanceThreshold) {
		return domain.SessionAccepted, domain.StopAccepted
	}
	if iteration+1 >= c.cfg.MaxIterations {
		return domain.SessionExhausted, domain.StopMaxIterations
	}
	if prev, ok := session.Previous(); ok {
		if verdict.Confidence-prev.Verdict.Confidence < c.cfg.MinImprovementMargin-improvementEpsilon {
			return domain.SessionExhausted, domain.StopNoImprovement
		}
	}
	return domain.SessionRunning, ""
}

// verify runs the verifier, re-asking once after a verification fault.
func (c *CorrectionController) verify(
	ctx context.Context, question string, draft domain.DraftAnswer, passages domain.RetrievalResult,
) (domain.Verdict, bool, error) {
	req := VerifyRequest{Question: question, Draft: draft, Cited: citedChunks(draft, passages)}

	verdict, err := c.verifier.Verify(ctx, req)
	if err == nil || !errors.Is(err, domain.ErrVerification) || ctx.Err() != nil {
		return verdict, false, err
	}

	logger.FromContext(ctx).Debug("verifier fault, re-asking once", zap.Error(err))
	var malformed *VerifierOutputError
	if errors.As(err, &malformed) {
		req.PreviousOutput = malformed.Output
	}
	verdict, err = c.verifier.Verify(ctx, req)
	return verdict, true, err
}

func (c *CorrectionController) fail(
	ctx context.Context, session *domain.CorrectionSession, stage domain.Stage, iteration int, err error,
) error {
	if ctxErr := ctx.Err(); ctxErr != nil && stage != domain.StageCancel {
		stage = domain.StageCancel
		err = ctxErr
	}
	if domain.ErrorKind(err) == "internal" {
		err = classify(err, stageKind(stage))
	}
	_ = session.Finish(domain.SessionFailed, domain.StopFailed)

	askErr := &domain.AskError{Stage: stage, Iteration: iteration, Err: err}
	logger.FromContext(ctx).Warn("session failed",
		zap.String("stage", string(stage)),
		zap.Int("iteration", iteration),
		zap.String("kind", askErr.Kind()),
		zap.Error(err),
	)
	return askErr
}

func stageKind(stage domain.Stage) error {
	switch stage {
	case domain.StageGenerate:
		return domain.ErrGeneration
	case domain.StageVerify:
		return domain.ErrVerification
	default:
		return domain.ErrRetrievalBackend
	}
}

// result builds the caller-visible answer. Accepted sessions return the
// final draft; exhausted sessions return the best draft with confidence
// capped below the acceptance threshold.
func (c *CorrectionController) result(ctx context.Context, session *domain.CorrectionSession) *domain.AskResult {
	chosen, _ := session.Latest()
	confidence := chosen.Verdict.Confidence
	if session.Status == domain.SessionExhausted {
		chosen, _ = session.Best()
		confidence = chosen.Verdict.Confidence
		if limit := c.cfg.ExhaustedConfidenceCap(); confidence > limit {
			confidence = limit
		}
	}

	return &domain.AskResult{
		SessionID:     session.ID,
		Question:      session.Question,
		Answer:        chosen.Draft.Text,
		Confidence:    confidence,
		Status:        session.Status,
		StopReason:    session.StopReason,
		Citations:     c.citations(ctx, chosen),
		CorrectionLog: session.Log,
	}
}

// citations resolves the cited chunks of an attempt. Every citation refers
// to a passage supplied to the generator in that attempt.
func (c *CorrectionController) citations(ctx context.Context, attempt domain.Attempt) []domain.Citation {
	names := make(map[string]string)
	out := make([]domain.Citation, 0, len(attempt.Draft.CitedChunkIDs))
	seen := make(map[string]struct{}, len(attempt.Draft.CitedChunkIDs))

	for _, id := range attempt.Draft.CitedChunkIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		hit, ok := findHit(attempt.Passages, id)
		if !ok {
			continue
		}
		seen[id] = struct{}{}

		docID := hit.Chunk.DocumentID
		name, known := names[docID]
		if !known && c.docStore != nil {
			if doc, err := c.docStore.GetDocument(ctx, docID); err == nil {
				name = doc.Name
			}
			names[docID] = name
		}

		out = append(out, domain.Citation{
			ChunkID:      id,
			DocumentID:   docID,
			DocumentName: name,
			StartOffset:  hit.Chunk.StartOffset,
			EndOffset:    hit.Chunk.EndOffset,
			Snippet:      snippet(hit.Chunk.Content),
			Score:        hit.Score,
		})
	}
	return out
}

func findHit(passages domain.RetrievalResult, chunkID string) (domain.RetrievalHit, bool) {
	for _, p := range passages {
		if p.ChunkID == chunkID {
			return p, true
		}
	}
	return domain.RetrievalHit{}, false
}

// keepSupplied drops cited IDs that were not among the supplied passages.
func keepSupplied(draft domain.DraftAnswer, passages domain.RetrievalResult) domain.DraftAnswer {
	kept := make([]string, 0, len(draft.CitedChunkIDs))
	for _, id := range draft.CitedChunkIDs {
		if _, ok := findHit(passages, id); ok {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(draft.CitedChunkIDs) {
		return draft
	}
	return domain.DraftAnswer{Text: draft.Text, CitedChunkIDs: kept, Iteration: draft.Iteration}
}

func citedChunks(draft domain.DraftAnswer, passages domain.RetrievalResult) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(draft.CitedChunkIDs))
	for _, id := range draft.CitedChunkIDs {
		if hit, ok := findHit(passages, id); ok {
			chunks = append(chunks, hit.Chunk)
		}
	}
	return chunks
}

// misreadThreshold is the minimum overlap for an unsupported claim to be
// attributed to a cited chunk.
const misreadThreshold = 0.3

// misreadChunks returns cited chunks that best match an unsupported claim
// while backing none of the supported ones. Such a chunk is taken to have
// been misread and is excluded from the next retrieval.
func misreadChunks(a domain.Attempt) []string {
	if len(a.Verdict.UnsupportedClaims) == 0 {
		return nil
	}
	cited := citedChunks(a.Draft, a.Passages)
	if len(cited) == 0 {
		return nil
	}

	tokens := make([]map[string]struct{}, len(cited))
	for i := range cited {
		tokens[i] = lexical.TokenSet(cited[i].Content)
	}
	bestMatch := func(claim string) (int, float64) {
		best, score := -1, 0.0
		for i := range cited {
			if s := lexical.Overlap(claim, tokens[i]); s > score {
				best, score = i, s
			}
		}
		return best, score
	}

	unsupported := make(map[string]struct{}, len(a.Verdict.UnsupportedClaims))
	flagged := make(map[int]struct{})
	for _, claim := range a.Verdict.UnsupportedClaims {
		unsupported[strings.ToLower(strings.TrimSpace(claim))] = struct{}{}
		if i, s := bestMatch(claim); i >= 0 && s >= misreadThreshold {
			flagged[i] = struct{}{}
		}
	}
	for _, claim := range extractClaims(a.Draft.Text) {
		if _, bad := unsupported[strings.ToLower(strings.TrimSpace(claim))]; bad {
			continue
		}
		if i, s := bestMatch(claim); i >= 0 && s >= groundingThreshold {
			delete(flagged, i)
		}
	}

	ids := make([]string, 0, len(flagged))
	for i := range cited {
		if _, ok := flagged[i]; ok {
			ids = append(ids, cited[i].ID)
		}
	}
	return ids
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:snippetRunes])) + "..."
}
