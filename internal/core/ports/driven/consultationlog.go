package driven

import (
	"context"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// ConsultationLog persists completed consultations.
type ConsultationLog interface {
	// Record stores a consultation. Recording the same ID twice replaces it.
	Record(ctx context.Context, record domain.ConsultationRecord) error

	// Get retrieves a consultation by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.ConsultationRecord, error)

	// List returns the most recent consultations, newest first.
	// A limit <= 0 returns all records.
	List(ctx context.Context, limit int) ([]domain.ConsultationRecord, error)

	// RuleUsage returns how often each rule fired across all consultations.
	RuleUsage(ctx context.Context) (map[string]int, error)

	// Close releases resources.
	Close() error
}
