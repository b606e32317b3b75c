// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/verity/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

// Status bar states.
const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateAnswered State = "answered"
	StateError    State = "error"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	hints      []key.Binding
	state      State
	message    string
	confidence float64
	documents  int
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Bar{
		styles: s,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderHints()

	padding := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateThinking:
		return b.styles.Muted.Render("Retrieving, drafting and verifying...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Error: " + b.message)
		}
		return b.styles.Error.Render("Error")
	case StateAnswered:
		return b.styles.Badge(b.confidence) + " " + b.styles.Muted.Render(b.message)
	default:
		return b.styles.Muted.Render(fmt.Sprintf("Ready. %d documents indexed", b.documents))
	}
}

func (b *Bar) renderHints() string {
	hints := make([]string, 0, len(b.hints))
	for _, h := range b.hints {
		help := h.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", help.Key, help.Desc))
	}
	return b.styles.Help.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets a custom message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetAnswer shows the confidence badge of the latest answer.
func (b *Bar) SetAnswer(confidence float64, message string) {
	b.state = StateAnswered
	b.confidence = confidence
	b.message = message
}

// SetDocuments sets the indexed document count shown when idle.
func (b *Bar) SetDocuments(n int) {
	b.documents = n
}

// SetHints sets the keybinding hints shown on the right.
func (b *Bar) SetHints(hints []key.Binding) {
	b.hints = hints
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}
