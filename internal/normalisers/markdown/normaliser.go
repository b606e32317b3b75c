// Package markdown extracts readable text from Markdown uploads.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	codeFence    = regexp.MustCompile("(?m)^```[^\n]*\n?")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquote   = regexp.MustCompile(`(?m)^>\s*`)
	hr           = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*)([^*_\n]+)(\*\*|__|\*)`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedKinds returns the file kinds this normaliser handles.
func (n *Normaliser) SupportedKinds() []domain.FileKind {
	return []domain.FileKind{domain.FileKindMarkdown}
}

// Normalise strips Markdown syntax and returns the readable text.
func (n *Normaliser) Normalise(_ context.Context, content []byte) (*driven.NormaliseResult, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: markdown is not valid UTF-8", domain.ErrUnsupportedFormat)
	}
	raw := strings.ReplaceAll(string(content), "\r\n", "\n")

	return &driven.NormaliseResult{
		Text:  stripMarkdown(raw),
		Title: extractMarkdownTitle(raw),
		Metadata: map[string]any{
			"mime_type": domain.FileKindMarkdown.MIMEType(),
			"format":    "markdown",
		},
	}, nil
}

// extractMarkdownTitle returns the first H1 heading, if any.
func extractMarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// stripMarkdown removes common markdown formatting for plain text content.
// Code block bodies are kept since they may hold answerable facts.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = multiNewline.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
