package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(nil)

	require.NotNil(t, q)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.NotNil(t, q.Init())
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)

	for _, r := range "notice?" {
		q, _ = q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "notice?", q.Value())

	q.Reset()
	assert.Empty(t, q.Value())
}

func TestQuestionInput_FocusAndBlur(t *testing.T) {
	q := NewQuestionInput(nil)

	q.Blur()
	assert.False(t, q.Focused())
	q.Focus()
	assert.True(t, q.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 88, q.textinput.Width)

	q.SetWidth(10)
	assert.Equal(t, 20, q.textinput.Width)
}

func TestQuestionInput_View(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("How much notice?")

	view := q.View()
	assert.Contains(t, view, "Ask:")
	assert.Contains(t, view, "How much notice?")
}
