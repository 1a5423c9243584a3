package driving

import (
	"io"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// ReportService renders consultation results.
type ReportService interface {
	// Render writes the result in the named format.
	Render(w io.Writer, format string, result *domain.ConsultationResult) error

	// Formats lists the available formats.
	Formats() []string
}
