package report

import (
	"bytes"
	"fmt"

	"github.com/custodia-labs/verity/internal/core/domain"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

// MarkdownFormatter renders reports as Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a Markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements driven.ReportFormatter.
func (f *MarkdownFormatter) Format(res *domain.AskResult) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", title)
	for _, s := range sections(res) {
		fmt.Fprintf(&buf, "\n## %s\n\n", s.heading)
		for _, line := range s.lines {
			if len(s.lines) > 1 {
				buf.WriteString("- ")
			}
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// ContentType implements driven.ReportFormatter.
func (f *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

// FileExtension implements driven.ReportFormatter.
func (f *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
