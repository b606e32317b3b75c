// Package docx extracts text from Office Open XML word processing uploads.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/unidoc/unioffice/document"

	"github.com/custodia-labs/verity/internal/core/domain"
	"github.com/custodia-labs/verity/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
// By default text is read directly from word/document.xml. With
// WithUnioffice, unioffice resolves the package relationships and includes
// table cells, falling back to the XML reader when it cannot open a package.
// unioffice refuses to read without an activated UniDoc license.
type Normaliser struct {
	unioffice bool
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithUnioffice reads packages through unioffice. Only set it after the
// UniDoc license has been activated.
func WithUnioffice() Option {
	return func(n *Normaliser) {
		n.unioffice = true
	}
}

// New creates a new DOCX normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedKinds returns the file kinds this normaliser handles.
func (n *Normaliser) SupportedKinds() []domain.FileKind {
	return []domain.FileKind{domain.FileKindDOCX}
}

// Normalise extracts paragraph and table text from a DOCX package.
func (n *Normaliser) Normalise(_ context.Context, content []byte) (*driven.NormaliseResult, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a DOCX package: %v", domain.ErrUnsupportedFormat, err)
	}

	var text, title string
	if n.unioffice {
		text, title, err = readWithUnioffice(content)
	}
	if !n.unioffice || err != nil || strings.TrimSpace(text) == "" {
		text, err = extractDocumentText(reader)
		if err != nil {
			return nil, err
		}
		title = extractTitle(reader)
	}

	return &driven.NormaliseResult{
		Text:  text,
		Title: title,
		Metadata: map[string]any{
			"mime_type": domain.FileKindDOCX.MIMEType(),
			"format":    "docx",
		},
	}, nil
}

// readWithUnioffice extracts body paragraphs followed by table cells.
func readWithUnioffice(content []byte) (text, title string, err error) {
	doc, err := document.Read(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", "", err
	}
	defer doc.Close()

	var lines []string
	for _, para := range doc.Paragraphs() {
		lines = append(lines, paragraphText(para))
	}
	for _, table := range doc.Tables() {
		for _, row := range table.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				var parts []string
				for _, para := range cell.Paragraphs() {
					parts = append(parts, paragraphText(para))
				}
				cells = append(cells, strings.Join(parts, " "))
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), strings.TrimSpace(doc.CoreProperties.Title()), nil
}

func paragraphText(para document.Paragraph) string {
	var b strings.Builder
	for _, run := range para.Runs() {
		b.WriteString(run.Text())
	}
	return b.String()
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: opening document.xml: %v", domain.ErrUnsupportedFormat, err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: reading document.xml: %v", domain.ErrUnsupportedFormat, err)
		}

		return parseDocumentXML(content), nil
	}
	return "", fmt.Errorf("%w: word/document.xml missing", domain.ErrUnsupportedFormat)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts text content from the document XML.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				result.WriteString(t.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads the title from docProps/core.xml.
func extractTitle(reader *zip.Reader) string {
	for _, file := range reader.File {
		if file.Name != "docProps/core.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return ""
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return ""
		}

		var core coreXML
		if err := xml.Unmarshal(content, &core); err == nil {
			return strings.TrimSpace(core.Title)
		}
		return ""
	}
	return ""
}
