package services

import (
	"fmt"
	"io"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
)

// Ensure ReportService implements the interface.
var _ driving.ReportService = (*ReportService)(nil)

// ReportService renders consultation results through the renderer registry.
type ReportService struct {
	registry driven.RendererRegistry
}

// NewReportService creates a report service.
func NewReportService(registry driven.RendererRegistry) *ReportService {
	return &ReportService{registry: registry}
}

// Render writes the result in the named format.
func (s *ReportService) Render(w io.Writer, format string, result *domain.ConsultationResult) error {
	if s.registry == nil {
		return domain.ErrNotImplemented
	}
	if result == nil {
		return domain.ErrInvalidInput
	}
	renderer, err := s.registry.Renderer(format)
	if err != nil {
		return err
	}
	if err := renderer.Render(w, result); err != nil {
		return fmt.Errorf("rendering %s report: %w", format, err)
	}
	return nil
}

// Formats lists the available formats.
func (s *ReportService) Formats() []string {
	if s.registry == nil {
		return nil
	}
	return s.registry.RendererNames()
}
