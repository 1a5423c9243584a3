package mcp

import (
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Consultation runs inference and goal checks.
	Consultation driving.ConsultationService

	// Knowledge exposes the rule catalogue.
	Knowledge driving.KnowledgeService

	// Explanation describes rules. Optional: explain_rule is only
	// registered when it is set.
	Explanation driving.ExplanationService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Consultation == nil {
		return ErrMissingConsultationService
	}
	if p.Knowledge == nil {
		return ErrMissingKnowledgeService
	}
	return nil
}
