package domain

import "fmt"

// SessionStatus is the state of a correction session.
type SessionStatus string

// Session states. Accepted and Exhausted are terminal-success,
// Failed is terminal-error.
const (
	SessionRunning   SessionStatus = "RUNNING"
	SessionAccepted  SessionStatus = "ACCEPTED"
	SessionExhausted SessionStatus = "EXHAUSTED"
	SessionFailed    SessionStatus = "FAILED"
)

// IsTerminal returns true once the session can no longer transition.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionAccepted || s == SessionExhausted || s == SessionFailed
}

// String returns the string representation.
func (s SessionStatus) String() string {
	return string(s)
}

// StopReason explains why a session left RUNNING.
type StopReason string

// Stop reasons recorded in the correction log.
const (
	StopAccepted      StopReason = "accepted"
	StopNoImprovement StopReason = "no improvement"
	StopMaxIterations StopReason = "max iterations reached"
	StopFailed        StopReason = "failed"
)

// Attempt is one history entry: a draft, its verdict, and the passages
// the generator was given when producing it.
type Attempt struct {
	Draft    DraftAnswer
	Verdict  Verdict
	Passages RetrievalResult
}

// CorrectionSession is the controller's working state for one question.
// It is owned by a single controller run and never shared.
type CorrectionSession struct {
	ID             string
	Question       string
	IterationCount int
	History        []Attempt
	Status         SessionStatus
	StopReason     StopReason
	Log            []IterationSummary
}

// NewCorrectionSession creates a running session.
func NewCorrectionSession(id, question string) *CorrectionSession {
	return &CorrectionSession{
		ID:       id,
		Question: question,
		Status:   SessionRunning,
	}
}

// Record appends an attempt to the history.
func (s *CorrectionSession) Record(a Attempt) {
	s.History = append(s.History, a)
}

// Latest returns the most recent attempt.
func (s *CorrectionSession) Latest() (Attempt, bool) {
	if len(s.History) == 0 {
		return Attempt{}, false
	}
	return s.History[len(s.History)-1], true
}

// Previous returns the attempt before the latest one.
func (s *CorrectionSession) Previous() (Attempt, bool) {
	if len(s.History) < 2 {
		return Attempt{}, false
	}
	return s.History[len(s.History)-2], true
}

// Best returns the highest-confidence attempt. Ties keep the earliest.
func (s *CorrectionSession) Best() (Attempt, bool) {
	if len(s.History) == 0 {
		return Attempt{}, false
	}
	best := 0
	for i := 1; i < len(s.History); i++ {
		if s.History[i].Verdict.Confidence > s.History[best].Verdict.Confidence {
			best = i
		}
	}
	return s.History[best], true
}

// Finish moves the session into a terminal state.
func (s *CorrectionSession) Finish(status SessionStatus, reason StopReason) error {
	if s.Status != SessionRunning {
		return fmt.Errorf("%w: session %s already %s", ErrInvalidInput, s.ID, s.Status)
	}
	if !status.IsTerminal() {
		return fmt.Errorf("%w: %s is not a terminal status", ErrInvalidInput, status)
	}
	s.Status = status
	s.StopReason = reason
	return nil
}
