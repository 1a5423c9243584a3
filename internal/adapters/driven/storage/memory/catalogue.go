package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
)

// Ensure CatalogueStore implements the interface.
var _ driven.CatalogueStore = (*CatalogueStore)(nil)

// CatalogueStore is an in-memory implementation of driven.CatalogueStore.
// Backups are kept in memory as deep copies.
type CatalogueStore struct {
	mu        sync.RWMutex
	catalogue *domain.Catalogue
	backups   map[string]*domain.Catalogue
	created   map[string]time.Time
	now       func() time.Time
}

// NewCatalogueStore creates a store holding the given catalogue.
// A nil catalogue makes Load fail like a missing file would.
func NewCatalogueStore(catalogue *domain.Catalogue) *CatalogueStore {
	s := &CatalogueStore{
		backups: make(map[string]*domain.Catalogue),
		created: make(map[string]time.Time),
		now:     time.Now,
	}
	if catalogue != nil {
		s.catalogue = catalogue.Clone()
	}
	return s
}

// Load returns a copy of the stored catalogue.
func (s *CatalogueStore) Load(_ context.Context) (*domain.Catalogue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalogue == nil {
		return nil, &domain.KnowledgeLoadError{Source: s.Path(), Reason: "no catalogue"}
	}
	seen := make(map[string]struct{}, len(s.catalogue.Rules))
	for _, r := range s.catalogue.Rules {
		if _, dup := seen[r.ID]; dup {
			return nil, &domain.KnowledgeLoadError{Source: s.Path(), Reason: fmt.Sprintf("duplicate rule id %q", r.ID)}
		}
		seen[r.ID] = struct{}{}
	}
	return s.catalogue.Clone(), nil
}

// Save replaces the stored catalogue.
func (s *CatalogueStore) Save(_ context.Context, catalogue *domain.Catalogue) error {
	if catalogue == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogue = catalogue.Clone()
	return nil
}

// Backup keeps a copy of the current catalogue.
func (s *CatalogueStore) Backup(_ context.Context) (*domain.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalogue == nil {
		return nil, nil
	}
	now := s.now()
	name := fmt.Sprintf("rules_backup_%s_%03d.json", now.Format("20060102_150405"), len(s.backups))
	s.backups[name] = s.catalogue.Clone()
	s.created[name] = now
	return &domain.Backup{Name: name, Path: name, CreatedAt: now}, nil
}

// ListBackups returns backups, newest first.
func (s *CatalogueStore) ListBackups(_ context.Context) ([]domain.Backup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Backup, 0, len(s.backups))
	for name := range s.backups {
		out = append(out, domain.Backup{Name: name, Path: name, CreatedAt: s.created[name]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Restore replaces the catalogue with the named backup.
func (s *CatalogueStore) Restore(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.backups[name]
	if !ok {
		return domain.ErrNotFound
	}
	s.catalogue = b.Clone()
	return nil
}

// Path returns the catalogue location.
func (s *CatalogueStore) Path() string {
	return ":memory:"
}
