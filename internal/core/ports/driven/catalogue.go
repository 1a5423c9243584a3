package driven

import (
	"context"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// CatalogueStore persists the rule catalogue.
//
// Load decodes structure only. Rules whose fields cannot be decoded are still
// returned so that the caller can validate and skip them with a warning.
type CatalogueStore interface {
	// Load reads the catalogue. A missing or unparseable source, a missing
	// rules section, duplicate rule ids, or a rule entry that is not an
	// object yields a *domain.KnowledgeLoadError.
	Load(ctx context.Context) (*domain.Catalogue, error)

	// Save replaces the catalogue atomically. Readers of the underlying
	// source see either the old or the new document, never a partial one.
	Save(ctx context.Context, catalogue *domain.Catalogue) error

	// Backup copies the current catalogue to a timestamped backup.
	// Returns nil and no error when there is nothing to back up yet.
	Backup(ctx context.Context) (*domain.Backup, error)

	// ListBackups returns backups, newest first.
	ListBackups(ctx context.Context) ([]domain.Backup, error)

	// Restore replaces the catalogue with the named backup.
	// Returns domain.ErrNotFound if the backup does not exist.
	Restore(ctx context.Context, name string) error

	// Path returns the catalogue location.
	Path() string
}

// CatalogueWatcher reports changes to the catalogue source.
type CatalogueWatcher interface {
	// Watch calls onChange after the catalogue source changes, until ctx is
	// cancelled or Close is called. Bursts of changes are debounced.
	Watch(ctx context.Context, onChange func()) error

	// Close stops watching and releases resources.
	Close() error
}
