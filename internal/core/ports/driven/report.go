package driven

import "github.com/custodia-labs/verity/internal/core/domain"

// ReportFormatter renders an answer with its sources and correction log.
type ReportFormatter interface {
	Format(res *domain.AskResult) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// ReportFactory creates formatters by export format.
type ReportFactory interface {
	// Create returns the formatter for format.
	// Unknown formats wrap domain.ErrUnsupportedFormat.
	Create(format domain.ReportFormat) (ReportFormatter, error)
}
