package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func TestSupportedKinds(t *testing.T) {
	assert.Equal(t, []domain.FileKind{domain.FileKindPDF}, New().SupportedKinds())
}

func TestNormalise_WithMockRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("Lease Agreement   \n\nRent is due on the first day.\fPage two text.\n")}
	n := NewWithRunner(runner)

	res, err := n.Normalise(context.Background(), []byte("%PDF-1.4 fake pdf content"))
	require.NoError(t, err)

	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
	assert.Equal(t, "Lease Agreement", res.Title)
	assert.Contains(t, res.Text, "Rent is due on the first day.")
	assert.Contains(t, res.Text, "Page two text.")
	assert.NotContains(t, res.Text, "\f")
	assert.Equal(t, "pdf", res.Metadata["format"])
	assert.Equal(t, 2, res.Metadata["pages"])
}

func TestNormalise_RunnerError(t *testing.T) {
	n := NewWithRunner(&mockRunner{err: errors.New("pdftotext crashed")})

	res, err := n.Normalise(context.Background(), []byte("%PDF-1.4 fake"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, res)
}

func TestNormalise_NotAPDF(t *testing.T) {
	n := NewWithRunner(&mockRunner{})

	_, err := n.Normalise(context.Background(), []byte("hello"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestNormalise_ToolMissing(t *testing.T) {
	n := &Normaliser{runner: &mockRunner{}, checkTool: func() error { return ErrPDFToolNotFound }}

	_, err := n.Normalise(context.Background(), []byte("%PDF-1.7"))
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{"first line as title", "Document Title\n\nSome content here.", "Document Title"},
		{"skip empty lines", "\n\n\nActual Title\nContent", "Actual Title"},
		{"empty content", "", ""},
		{"skip very long first line", strings.Repeat("x", 250) + "\nShort Title\nContent", "Short Title"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractTitle(tc.content))
		})
	}
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}
