// Package pdf extracts text from PDF uploads using poppler's pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

const pdfTool = "pdftotext"

// maxTitleLength bounds a first line considered as a title.
const maxTitleLength = 200

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner    CommandRunner
	checkTool func() error
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}, checkTool: CheckAvailable}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
// The PATH check is skipped; the runner decides what executes.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner, checkTool: func() error { return nil }}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdfTool); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to install pdftotext.
func InstallInstructions() string {
	return `PDF support requires pdftotext from poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// SupportedKinds returns the file kinds this normaliser handles.
func (n *Normaliser) SupportedKinds() []domain.FileKind {
	return []domain.FileKind{domain.FileKindPDF}
}

// Normalise extracts the text layer of a PDF.
func (n *Normaliser) Normalise(ctx context.Context, content []byte) (*driven.NormaliseResult, error) {
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: missing PDF header", domain.ErrUnsupportedFormat)
	}
	if err := n.checkTool(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "verity-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	out, err := n.runner.Run(ctx, pdfTool, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	text := cleanText(string(out))

	return &driven.NormaliseResult{
		Text:  text,
		Title: extractTitle(text),
		Metadata: map[string]any{
			"mime_type": domain.FileKindPDF.MIMEType(),
			"format":    "pdf",
			"pages":     strings.Count(string(out), "\f") + 1,
		},
	}, nil
}

// cleanText drops form feeds and trailing spaces left by layout mode.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\f", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractTitle returns the first non-empty, reasonably short line.
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxTitleLength {
			continue
		}
		return line
	}
	return ""
}
