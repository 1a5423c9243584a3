package driving

import "github.com/custodia-labs/diagnosa-cli/internal/core/domain"

// ExplanationService explains the knowledge base and consultation results.
type ExplanationService interface {
	// Why explains why a condition matters given the facts known so far.
	Why(token string, facts []string) (*domain.WhyExplanation, error)

	// How explains how a diagnosis was reached in a consultation.
	How(diagnosis string, result *domain.ConsultationResult) (*domain.HowExplanation, error)

	// ExplainRule describes a single rule.
	ExplainRule(id string) (*domain.RuleExplanation, error)

	// Compare contrasts the conclusions of a consultation.
	// Needs at least two conclusions.
	Compare(conclusions []domain.Conclusion) (*domain.Comparison, error)
}
