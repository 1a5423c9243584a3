package catalogue

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

//go:embed seed.json
var seedJSON []byte

// Seed returns the starter catalogue.
func Seed() (*domain.Catalogue, error) {
	return decodeJSON("seed", seedJSON)
}

// Init writes the starter catalogue to the store's path.
// It fails with domain.ErrAlreadyExists if a catalogue is already present.
func (s *Store) Init(ctx context.Context) error {
	if fileExists(s.path) {
		return fmt.Errorf("%s: %w", s.path, domain.ErrAlreadyExists)
	}
	cat, err := Seed()
	if err != nil {
		return err
	}
	if err := s.Save(ctx, cat); err != nil {
		return err
	}
	return os.MkdirAll(s.backupDir, 0755)
}
