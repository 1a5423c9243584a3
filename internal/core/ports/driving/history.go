package driving

import (
	"context"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// HistoryService exposes the consultation log.
type HistoryService interface {
	// List returns recent consultations, newest first.
	List(ctx context.Context, limit int) ([]domain.ConsultationRecord, error)

	// Get retrieves a logged consultation.
	Get(ctx context.Context, id string) (*domain.ConsultationRecord, error)

	// Stats summarises the log.
	Stats(ctx context.Context) (*domain.ConsultationStats, error)
}
