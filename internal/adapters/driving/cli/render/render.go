// Package render formats answers for terminal output.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/verity/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/verity/internal/core/domain"
)

// snippetWidth bounds citation snippets.
const snippetWidth = 120

// Options controls answer rendering.
type Options struct {
	// Colour enables ANSI styling.
	Colour bool

	// ShowLog prints the correction log after the sources.
	ShowLog bool
}

// ColourEnabled reports whether w is a terminal that should receive colour.
// NO_COLOR disables colour regardless of the terminal.
func ColourEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Answer writes a result with its badge, sources and optionally the
// correction log.
func Answer(w io.Writer, res *domain.AskResult, opts Options) {
	s := styles.DefaultStyles()
	paint := func(style lipgloss.Style, text string) string {
		if !opts.Colour {
			return text
		}
		return style.Render(text)
	}

	badge := "[" + styles.BadgeText(res.Confidence) + "]"
	if opts.Colour {
		badge = s.Badge(res.Confidence)
	}
	fmt.Fprintln(w, badge)
	if res.Uncertain() {
		fmt.Fprintln(w, paint(s.Warning, fmt.Sprintf("Unverified: %s after %d iterations.", res.StopReason, len(res.CorrectionLog))))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, res.Answer)

	if len(res.Citations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, paint(s.Subtitle, "Sources:"))
		for i, c := range res.Citations {
			fmt.Fprintln(w, paint(s.Citation, CitationLine(i+1, c)))
		}
	}

	if opts.ShowLog && len(res.CorrectionLog) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, paint(s.Subtitle, "Correction log:"))
		for _, it := range res.CorrectionLog {
			fmt.Fprintln(w, paint(s.Muted, LogLine(it)))
		}
	}
}

// CitationLine formats one numbered source.
func CitationLine(n int, c domain.Citation) string {
	name := c.DocumentName
	if name == "" {
		name = c.DocumentID
	}
	return fmt.Sprintf("[%d] %s (chars %d-%d): %s", n, name, c.StartOffset, c.EndOffset, Snippet(c.Snippet, snippetWidth))
}

// LogLine formats one correction log entry.
func LogLine(it domain.IterationSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  #%d k=%d confidence=%.2f faithful=%t complete=%t -> %s",
		it.Iteration+1, it.RetrievalK, it.Confidence, it.IsFaithful, it.IsComplete, it.Decision)
	for _, claim := range it.UnsupportedClaims {
		fmt.Fprintf(&b, "\n      unsupported: %s", claim)
	}
	for _, aspect := range it.MissingAspects {
		fmt.Fprintf(&b, "\n      missing: %s", aspect)
	}
	return b.String()
}

// Snippet collapses whitespace and truncates to n runes.
func Snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
