// Package report exports an answer, its sources and its correction log as
// Markdown, DOCX or PDF.
package report

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

const title = "Answer report"

// Ensure Factory implements the interface.
var _ driven.ReportFactory = (*Factory)(nil)

// Factory creates report formatters.
type Factory struct {
	docx bool
}

// Option configures a Factory.
type Option func(*Factory)

// WithDOCX enables DOCX output. unioffice only writes documents once a
// license key has been activated, so callers enable this after activation.
func WithDOCX() Option {
	return func(f *Factory) {
		f.docx = true
	}
}

// NewFactory creates a new report factory. Markdown and PDF are always
// available.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the formatter for format.
func (f *Factory) Create(format domain.ReportFormat) (driven.ReportFormatter, error) {
	switch format {
	case domain.ReportMarkdown:
		return NewMarkdownFormatter(), nil
	case domain.ReportDOCX:
		if !f.docx {
			return nil, fmt.Errorf("%w: report format %q needs a UniDoc license key (unidoc.license_key)",
				domain.ErrUnsupportedFormat, format)
		}
		return NewDOCXFormatter(), nil
	case domain.ReportPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: report format %q", domain.ErrUnsupportedFormat, format)
	}
}

// section is a titled block of report text shared by every formatter.
type section struct {
	heading string
	lines   []string
}

func sections(res *domain.AskResult) []section {
	out := []section{
		{heading: "Question", lines: []string{res.Question}},
		{heading: "Answer", lines: []string{res.Answer}},
		{heading: "Confidence", lines: []string{
			fmt.Sprintf("%.0f%% (%s)", res.Confidence*100, res.Band()),
			fmt.Sprintf("Status: %s, %s", res.Status, res.StopReason),
		}},
	}

	if len(res.Citations) > 0 {
		lines := make([]string, len(res.Citations))
		for i, c := range res.Citations {
			name := c.DocumentName
			if name == "" {
				name = c.DocumentID
			}
			lines[i] = fmt.Sprintf("[%d] %s, chars %d-%d: %s", i+1, name, c.StartOffset, c.EndOffset, c.Snippet)
		}
		out = append(out, section{heading: "Sources", lines: lines})
	}

	if len(res.CorrectionLog) > 0 {
		lines := make([]string, 0, len(res.CorrectionLog))
		for _, e := range res.CorrectionLog {
			line := fmt.Sprintf("Iteration %d: confidence %.2f, k=%d, %s", e.Iteration+1, e.Confidence, e.RetrievalK, e.Decision)
			if len(e.UnsupportedClaims) > 0 {
				line += "; unsupported: " + strings.Join(e.UnsupportedClaims, " | ")
			}
			if len(e.MissingAspects) > 0 {
				line += "; missing: " + strings.Join(e.MissingAspects, " | ")
			}
			lines = append(lines, line)
		}
		out = append(out, section{heading: "Correction log", lines: lines})
	}

	return out
}
