package report

import (
	"bytes"
	"fmt"

	"github.com/unidoc/unioffice/document"

	"github.com/custodia-labs/verity/internal/core/domain"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

// DOCXFormatter renders reports as Word documents.
type DOCXFormatter struct{}

// NewDOCXFormatter creates a DOCX formatter.
func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

// Format implements driven.ReportFormatter.
func (f *DOCXFormatter) Format(res *domain.AskResult) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Title")
	titlePar.AddRun().AddText(title)

	for _, s := range sections(res) {
		heading := doc.AddParagraph()
		heading.SetStyle("Heading1")
		heading.AddRun().AddText(s.heading)

		for _, line := range s.lines {
			doc.AddParagraph().AddRun().AddText(line)
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, fmt.Errorf("writing docx: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType implements driven.ReportFormatter.
func (f *DOCXFormatter) ContentType() string {
	return docxContentType
}

// FileExtension implements driven.ReportFormatter.
func (f *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
