package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/custodia-labs/verity/internal/core/domain"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the family registered for the UTF-8 font.
	pdfFontName = "DejaVuSans"

	// FontEnv names a TTF file used for non-Latin text.
	FontEnv = "VERITY_REPORT_FONT"
)

// PDFFormatter renders reports as PDF.
type PDFFormatter struct {
	fontPath string
}

// NewPDFFormatter creates a PDF formatter. A UTF-8 TTF font is used when
// VERITY_REPORT_FONT points at one; otherwise the core Helvetica font.
func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{fontPath: os.Getenv(FontEnv)}
}

// Format implements driven.ReportFormatter.
func (f *PDFFormatter) Format(res *domain.AskResult) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	fontName := "Helvetica"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if f.fontPath != "" {
		if _, err := os.Stat(f.fontPath); err == nil {
			pdf.AddUTF8Font(pdfFontName, "", f.fontPath)
			pdf.AddUTF8Font(pdfFontName, "B", f.fontPath)
			fontName = pdfFontName
			translate = func(s string) string { return s }
		}
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, translate(title))
	pdf.Ln(14)

	for _, s := range sections(res) {
		pdf.SetFont(fontName, "B", 14)
		pdf.Cell(0, 8, translate(s.heading))
		pdf.Ln(9)

		pdf.SetFont(fontName, "", 11)
		_, lineHeight := pdf.GetFontSize()
		for _, line := range s.lines {
			pdf.MultiCell(0, lineHeight*1.5, translate(line), "", "", false)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType implements driven.ReportFormatter.
func (f *PDFFormatter) ContentType() string {
	return pdfContentType
}

// FileExtension implements driven.ReportFormatter.
func (f *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
