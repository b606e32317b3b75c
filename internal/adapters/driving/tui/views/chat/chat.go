// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/verity/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/verity/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/verity/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/verity/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/verity/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driving"
)

// snippetWidth bounds citation snippets in the transcript.
const snippetWidth = 100

// ErrServiceUnavailable is reported when no ask service is wired.
var ErrServiceUnavailable = errors.New("ask service not available")

// turn is one question with its outcome.
type turn struct {
	question string
	result   *domain.AskResult
	err      error
}

// View is the chat view: a scrolling transcript above a question input.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	ask    driving.AskService
	ctx    context.Context

	input    *input.QuestionInput
	status   *status.Bar
	spinner  spinner.Model
	viewport viewport.Model

	turns    []turn
	pending  string
	thinking bool
	showLog  bool

	width  int
	height int
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, ask driving.AskService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	keys := keymap.DefaultKeyMap()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(s.Theme().Primary)

	bar := status.NewBar(s)
	bar.SetHints(keys.ChatHelp())

	return &View{
		styles:   s,
		keys:     keys,
		ask:      ask,
		ctx:      context.Background(),
		input:    input.NewQuestionInput(s),
		status:   bar,
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}
}

// WithContext sets the context used for questions.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.AskCompleted:
		v.thinking = false
		v.pending = ""
		v.turns = append(v.turns, turn{question: msg.Question, result: msg.Result, err: msg.Err})
		switch {
		case msg.Err != nil:
			v.status.SetState(status.StateError)
			v.status.SetMessage(errorLine(msg.Err))
		case msg.Result != nil:
			v.status.SetAnswer(msg.Result.Confidence, summaryLine(msg.Result))
		}
		v.refresh()
		return v, v.input.Focus()

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keys.Submit):
		return v, v.submit()
	case keymap.Matches(key, v.keys.Log):
		v.showLog = !v.showLog
		v.refresh()
		return v, nil
	case keymap.Matches(key, v.keys.ScrollUp):
		v.viewport.HalfPageUp()
		return v, nil
	case keymap.Matches(key, v.keys.ScrollDown):
		v.viewport.HalfPageDown()
		return v, nil
	}

	if v.thinking {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the current question unless one is already in flight.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.thinking {
		return nil
	}

	v.thinking = true
	v.pending = question
	v.input.Reset()
	v.input.Blur()
	v.status.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.spinner.Tick, v.askCmd(question))
}

func (v *View) askCmd(question string) tea.Cmd {
	ask := v.ask
	ctx := v.ctx
	return func() tea.Msg {
		if ask == nil {
			return messages.AskCompleted{Question: question, Err: ErrServiceUnavailable}
		}
		res, err := ask.Ask(ctx, question)
		return messages.AskCompleted{Question: question, Result: res, Err: err}
	}
}

// View renders the chat view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("verity"))
	b.WriteString(v.styles.Subtitle.Render("  answers checked against your documents"))
	b.WriteString("\n\n")
	b.WriteString(v.viewport.View())
	b.WriteString("\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.status.View())
	return b.String()
}

// SetDimensions resizes the transcript to fill the space above the input.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-6, 3)
	v.input.SetWidth(width)
	v.status.SetWidth(width)
	v.refresh()
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Turns returns the number of completed questions.
func (v *View) Turns() int {
	return len(v.turns)
}

// ShowLog reports whether correction logs are expanded.
func (v *View) ShowLog() bool {
	return v.showLog
}

// Input exposes the question input for focus handling.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// SetDocuments updates the idle document count in the status bar.
func (v *View) SetDocuments(n int) {
	v.status.SetDocuments(n)
}

func (v *View) refresh() {
	v.viewport.SetContent(v.transcript())
	v.viewport.GotoBottom()
}

func (v *View) transcript() string {
	if len(v.turns) == 0 && v.pending == "" {
		return v.styles.Muted.Render("Ask a question to get a cited, verified answer.")
	}

	var b strings.Builder
	for i := range v.turns {
		v.renderTurn(&b, &v.turns[i], i == len(v.turns)-1)
	}
	if v.pending != "" {
		b.WriteString(v.styles.Question.Render("> " + v.pending))
		b.WriteString("\n")
		b.WriteString(v.spinner.View() + " " + v.styles.Muted.Render("thinking..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderTurn(b *strings.Builder, t *turn, latest bool) {
	b.WriteString(v.styles.Question.Render("> " + t.question))
	b.WriteString("\n")

	if t.err != nil {
		b.WriteString(v.styles.Error.Render(errorLine(t.err)))
		b.WriteString("\n\n")
		return
	}
	res := t.result
	if res == nil {
		b.WriteString("\n")
		return
	}

	b.WriteString(v.styles.Badge(res.Confidence))
	if res.Uncertain() {
		b.WriteString(" " + v.styles.Warning.Render(fmt.Sprintf("unverified (%s)", res.StopReason)))
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Normal.Render(wrap(res.Answer, v.width)))
	b.WriteString("\n")

	for i, c := range res.Citations {
		name := c.DocumentName
		if name == "" {
			name = c.DocumentID
		}
		line := fmt.Sprintf("[%d] %s (%d-%d) %s", i+1, name, c.StartOffset, c.EndOffset, truncate(c.Snippet, snippetWidth))
		b.WriteString(v.styles.Citation.Render(line))
		b.WriteString("\n")
	}

	if latest && v.showLog {
		for _, it := range res.CorrectionLog {
			b.WriteString(v.styles.Muted.Render(logLine(it)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

func summaryLine(res *domain.AskResult) string {
	n := len(res.CorrectionLog)
	noun := "iterations"
	if n == 1 {
		noun = "iteration"
	}
	return fmt.Sprintf("%s after %d %s", strings.ToLower(string(res.Status)), n, noun)
}

func errorLine(err error) string {
	var askErr *domain.AskError
	if errors.As(err, &askErr) {
		return fmt.Sprintf("%s failed (%s): %v", askErr.Stage, askErr.Kind(), askErr.Err)
	}
	return err.Error()
}

func logLine(it domain.IterationSummary) string {
	line := fmt.Sprintf("  #%d k=%d confidence %.2f %s", it.Iteration+1, it.RetrievalK, it.Confidence, it.Decision)
	if len(it.UnsupportedClaims) > 0 {
		line += fmt.Sprintf(", %d unsupported", len(it.UnsupportedClaims))
	}
	if len(it.MissingAspects) > 0 {
		line += fmt.Sprintf(", missing: %s", strings.Join(it.MissingAspects, "; "))
	}
	return line
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
