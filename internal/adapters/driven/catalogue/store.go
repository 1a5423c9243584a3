package catalogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diagnosa-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.CatalogueStore = (*Store)(nil)

// DefaultFileName is the catalogue file created in the data directory.
const DefaultFileName = "rules.json"

const backupPrefix = "rules_backup_"

// Format is the catalogue file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Store is a file-backed catalogue store.
type Store struct {
	mu        sync.Mutex
	path      string
	backupDir string
	format    Format
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithBackupDir sets where backups are written.
// Defaults to a "backups" directory next to the catalogue.
func WithBackupDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.backupDir = dir
		}
	}
}

// WithClock overrides the clock used to name backups.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store for the catalogue at path.
// The file itself is not touched until Load or Save.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:      path,
		backupDir: filepath.Join(filepath.Dir(path), "backups"),
		format:    FormatFor(path),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the catalogue file path.
func (s *Store) Path() string {
	return s.path
}

// BackupDir returns the backup directory.
func (s *Store) BackupDir() string {
	return s.backupDir
}

// Load reads and decodes the catalogue file.
func (s *Store) Load(_ context.Context) (*domain.Catalogue, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		reason := "cannot read file"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "file not found"
		}
		return nil, &domain.KnowledgeLoadError{Source: s.path, Reason: reason, Err: err}
	}
	return Decode(s.path, s.format, data)
}

// Decode parses catalogue bytes in the given format.
func Decode(source string, format Format, data []byte) (*domain.Catalogue, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, &domain.KnowledgeLoadError{Source: source, Reason: "not valid YAML", Err: err}
		}
		data = converted
	}
	return decodeJSON(source, data)
}

// Encode serialises a catalogue in the given format.
func Encode(cat *domain.Catalogue, format Format) ([]byte, error) {
	data, err := encodeJSON(cat)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		return jsonToYAML(data)
	}
	return data, nil
}

// Save writes the catalogue to a temporary file and renames it into place.
func (s *Store) Save(_ context.Context, cat *domain.Catalogue) error {
	if cat == nil {
		return domain.ErrInvalidInput
	}
	data, err := Encode(cat, s.format)
	if err != nil {
		return fmt.Errorf("encoding catalogue: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return writeAtomic(s.path, data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Backup copies the current file into the backup directory.
// It returns nil when there is no file to back up yet.
func (s *Store) Backup(_ context.Context) (*domain.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer src.Close()

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return nil, err
	}

	now := s.now()
	ext := filepath.Ext(s.path)
	if ext == "" {
		ext = ".json"
	}
	base := backupPrefix + now.Format("20060102_150405")
	name := base + ext
	for i := 1; fileExists(filepath.Join(s.backupDir, name)); i++ {
		name = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	dst := filepath.Join(s.backupDir, name)

	out, err := os.Create(dst)
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return nil, err
	}

	logger.Debug("Catalogue backed up to %s", dst)
	return &domain.Backup{Name: name, Path: dst, CreatedAt: now, Size: size}, nil
}

// ListBackups returns backups, newest first.
func (s *Store) ListBackups(_ context.Context) ([]domain.Backup, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Backup{}, nil
		}
		return nil, err
	}

	backups := make([]domain.Backup, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, domain.Backup{
			Name:      e.Name(),
			Path:      filepath.Join(s.backupDir, e.Name()),
			CreatedAt: info.ModTime(),
			Size:      info.Size(),
		})
	}
	// Names embed the timestamp, so they sort chronologically.
	sort.Slice(backups, func(i, j int) bool { return backups[i].Name > backups[j].Name })
	return backups, nil
}

// Restore replaces the catalogue with the named backup. The backup must
// decode as a valid catalogue.
func (s *Store) Restore(_ context.Context, name string) error {
	if name == "" || name != filepath.Base(name) || !strings.HasPrefix(name, backupPrefix) {
		return fmt.Errorf("backup %q: %w", name, domain.ErrNotFound)
	}
	src := filepath.Join(s.backupDir, name)
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("backup %q: %w", name, domain.ErrNotFound)
		}
		return err
	}
	cat, err := Decode(src, FormatFor(src), data)
	if err != nil {
		return err
	}
	if FormatFor(src) != s.format {
		if data, err = Encode(cat, s.format); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path, data)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
