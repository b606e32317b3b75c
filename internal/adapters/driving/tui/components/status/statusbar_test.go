package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/verity/internal/adapters/driving/tui/keymap"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
}

func TestBar_Views(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Bar)
		want  string
	}{
		{
			name:  "ready shows document count",
			setup: func(b *Bar) { b.SetDocuments(3) },
			want:  "3 documents indexed",
		},
		{
			name:  "thinking",
			setup: func(b *Bar) { b.SetState(StateThinking) },
			want:  "verifying",
		},
		{
			name: "error with message",
			setup: func(b *Bar) {
				b.SetState(StateError)
				b.SetMessage("index is empty")
			},
			want: "Error: index is empty",
		},
		{
			name:  "answered shows badge",
			setup: func(b *Bar) { b.SetAnswer(0.92, "accepted after 2 iterations") },
			want:  "92% HIGH",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil)
			bar.SetWidth(160)
			tt.setup(bar)
			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_Hints(t *testing.T) {
	bar := NewBar(nil)
	bar.SetWidth(160)
	bar.SetHints(keymap.DefaultKeyMap().ChatHelp())

	view := bar.View()
	assert.Contains(t, view, "enter: ask")
	assert.Contains(t, view, "tab: documents")
}
