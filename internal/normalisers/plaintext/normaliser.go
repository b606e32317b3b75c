// Package plaintext extracts text from plain UTF-8 uploads.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedKinds returns the file kinds this normaliser handles.
func (n *Normaliser) SupportedKinds() []domain.FileKind {
	return []domain.FileKind{domain.FileKindText}
}

// Normalise returns the text with a leading byte order mark removed and
// line endings normalised to \n. Invalid UTF-8 is rejected.
func (n *Normaliser) Normalise(_ context.Context, content []byte) (*driven.NormaliseResult, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", domain.ErrUnsupportedFormat)
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	return &driven.NormaliseResult{
		Text:  text,
		Title: firstLine(text),
		Metadata: map[string]any{
			"mime_type": domain.FileKindText.MIMEType(),
			"format":    "text",
		},
	}, nil
}

// firstLine returns the first non-empty line when it is short enough
// to serve as a title.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 120 {
			return ""
		}
		return line
	}
	return ""
}
