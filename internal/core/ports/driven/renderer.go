package driven

import (
	"io"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// ReportRenderer writes a consultation result in one output format.
type ReportRenderer interface {
	// Name returns the format name (e.g. "markdown").
	Name() string

	// Render writes the result to w.
	Render(w io.Writer, result *domain.ConsultationResult) error
}

// CatalogueExporter writes the rule catalogue in one output format.
type CatalogueExporter interface {
	// Name returns the format name (e.g. "csv").
	Name() string

	// Export writes the rules to w, in definition order.
	Export(w io.Writer, rules []domain.Rule) error
}

// RendererRegistry resolves renderers and exporters by format name.
type RendererRegistry interface {
	// Renderer returns the consultation renderer for a format.
	Renderer(name string) (ReportRenderer, error)

	// Exporter returns the catalogue exporter for a format.
	Exporter(name string) (CatalogueExporter, error)

	// RendererNames lists consultation formats, sorted.
	RendererNames() []string

	// ExporterNames lists catalogue formats, sorted.
	ExporterNames() []string
}
