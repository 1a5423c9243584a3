package driving

import (
	"context"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// ConsultationService runs inference over the active rules.
type ConsultationService interface {
	// Consult forward-chains from the given facts to a fixpoint.
	// Returns domain.ErrInvalidInput for evidence CFs outside [-1, 1].
	Consult(ctx context.Context, input domain.ConsultationInput) (*domain.ConsultationResult, error)

	// ConsultBatch runs several independent consultations concurrently.
	// Results are returned in input order.
	ConsultBatch(ctx context.Context, inputs []domain.ConsultationInput) ([]*domain.ConsultationResult, error)

	// VerifyGoal reports whether a diagnosis is provable from the facts.
	// It never modifies any engine state.
	VerifyGoal(ctx context.Context, goal string, facts []string) (*domain.GoalResult, error)
}
