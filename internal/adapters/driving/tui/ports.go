// Package tui provides an interactive terminal user interface for diagnosa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI talks to.
type Ports struct {
	// Consultation runs inference. Required.
	Consultation driving.ConsultationService

	// Knowledge supplies symptoms and rules. Required.
	Knowledge driving.KnowledgeService

	// Explanation describes rules. Optional.
	Explanation driving.ExplanationService

	// History lists logged consultations. Optional.
	History driving.HistoryService

	// Report renders the markdown report. Optional.
	Report driving.ReportService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Consultation == nil {
		return ErrMissingConsultationService
	}
	if p.Knowledge == nil {
		return ErrMissingKnowledgeService
	}
	return nil
}
