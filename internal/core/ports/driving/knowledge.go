package driving

import (
	"context"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// KnowledgeService is the rule store: it owns the loaded catalogue and
// serializes every change to it.
type KnowledgeService interface {
	// ActiveRules returns rules with status active, in definition order.
	ActiveRules() []domain.Rule

	// AllRules returns every loaded rule regardless of status.
	AllRules() []domain.Rule

	// Get retrieves a rule by ID. Returns domain.ErrNotFound if absent.
	Get(id string) (*domain.Rule, error)

	// List returns rules matching the filter, in definition order.
	List(filter domain.RuleFilter) []domain.Rule

	// History returns the change history of a rule.
	History(id string) []domain.RuleHistoryEntry

	// Validate checks a rule's structure without storing it.
	// Returns a *domain.RuleValidationError listing every problem.
	Validate(rule domain.Rule) error

	// Upsert creates or updates a rule. Updates bump the version.
	// The prior catalogue is backed up before the new one is written.
	Upsert(ctx context.Context, rule domain.Rule, author string) (*domain.Rule, error)

	// Deprecate marks a rule deprecated so it no longer fires.
	Deprecate(ctx context.Context, id, author string) error

	// Delete removes a rule and its history permanently.
	Delete(ctx context.Context, id string) error

	// Reload re-reads the catalogue. On failure the current rules stay.
	Reload(ctx context.Context) error

	// Warnings returns the rules skipped during the last load.
	Warnings() []domain.LoadWarning

	// Backups lists catalogue backups, newest first.
	Backups(ctx context.Context) ([]domain.Backup, error)

	// Restore replaces the catalogue with a backup and reloads it.
	Restore(ctx context.Context, name string) error

	// Statistics summarises the catalogue.
	Statistics(ctx context.Context) (*domain.KnowledgeStats, error)

	// Symptoms groups observable condition tokens by category.
	Symptoms() domain.SymptomGroups

	// Export writes the catalogue in the named format.
	Export(ctx context.Context, format string) ([]byte, error)
}
