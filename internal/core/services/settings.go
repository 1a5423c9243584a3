package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/diagnosa-cli/internal/core/certainty"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyMaxIterations     = "engine.max_iterations"
	KeyTopK              = "engine.top_k"
	KeyDefaultEvidenceCF = "engine.default_evidence_cf"
	KeyMatchPolicy       = "engine.match_policy"
	KeyConflictPolicy    = "engine.conflict_policy"
	KeyCataloguePath     = "catalogue.path"
	KeyBackupDir         = "catalogue.backup_dir"
	KeyCatalogueWatch    = "catalogue.watch"
	KeyLogEnabled        = "log.enabled"
)

var settingKeys = []string{
	KeyMaxIterations,
	KeyTopK,
	KeyDefaultEvidenceCF,
	KeyMatchPolicy,
	KeyConflictPolicy,
	KeyCataloguePath,
	KeyBackupDir,
	KeyCatalogueWatch,
	KeyLogEnabled,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
// Missing or invalid stored values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	if s.configStore == nil {
		return &defaults, nil
	}

	settings := &domain.AppSettings{
		Engine: domain.EngineSettings{
			MaxIterations:     s.getPositiveInt(KeyMaxIterations, defaults.Engine.MaxIterations),
			TopK:              s.getPositiveInt(KeyTopK, defaults.Engine.TopK),
			DefaultEvidenceCF: s.getCF(KeyDefaultEvidenceCF, defaults.Engine.DefaultEvidenceCF),
			MatchPolicy:       s.getMatchPolicy(defaults.Engine.MatchPolicy),
			ConflictPolicy:    s.getConflictPolicy(defaults.Engine.ConflictPolicy),
		},
		Catalogue: domain.CatalogueSettings{
			Path:      s.configStore.GetString(KeyCataloguePath),
			BackupDir: s.configStore.GetString(KeyBackupDir),
			Watch:     s.getBool(KeyCatalogueWatch, defaults.Catalogue.Watch),
		},
		Log: domain.LogSettings{
			Enabled: s.getBool(KeyLogEnabled, defaults.Log.Enabled),
		},
	}
	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	if err := settings.Engine.Validate(); err != nil {
		return fmt.Errorf("engine settings: %w", err)
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyMaxIterations, settings.Engine.MaxIterations},
		{KeyTopK, settings.Engine.TopK},
		{KeyDefaultEvidenceCF, settings.Engine.DefaultEvidenceCF},
		{KeyMatchPolicy, settings.Engine.MatchPolicy.String()},
		{KeyConflictPolicy, settings.Engine.ConflictPolicy.String()},
		{KeyCataloguePath, settings.Catalogue.Path},
		{KeyBackupDir, settings.Catalogue.BackupDir},
		{KeyCatalogueWatch, settings.Catalogue.Watch},
		{KeyLogEnabled, settings.Log.Enabled},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses and stores a single setting.
func (s *SettingsService) Set(key, value string) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch key {
	case KeyMaxIterations, KeyTopK:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer: %w", key, domain.ErrInvalidInput)
		}
		parsed = n
	case KeyDefaultEvidenceCF:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, domain.ErrInvalidInput)
		}
		if err := certainty.Validate(f); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		parsed = f
	case KeyMatchPolicy:
		if !domain.MatchPolicy(value).IsValid() {
			return fmt.Errorf("%s must be strict or lenient: %w", key, domain.ErrInvalidInput)
		}
		parsed = value
	case KeyConflictPolicy:
		if !domain.ConflictPolicy(value).IsValid() {
			return fmt.Errorf("%s must be combine or overwrite: %w", key, domain.ErrInvalidInput)
		}
		parsed = value
	case KeyCatalogueWatch, KeyLogEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, domain.ErrInvalidInput)
		}
		parsed = b
	case KeyCataloguePath, KeyBackupDir:
		parsed = value
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
	return s.configStore.Set(key, parsed)
}

// Keys lists the recognised setting keys.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getPositiveInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getCF(key string, defaultVal float64) float64 {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	var val float64
	switch v := raw.(type) {
	case float64:
		val = v
	case int64:
		val = float64(v)
	case int:
		val = float64(v)
	default:
		return defaultVal
	}
	if certainty.Validate(val) != nil {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getMatchPolicy(defaultVal domain.MatchPolicy) domain.MatchPolicy {
	policy := domain.MatchPolicy(s.configStore.GetString(KeyMatchPolicy))
	if !policy.IsValid() {
		return defaultVal
	}
	return policy
}

func (s *SettingsService) getConflictPolicy(defaultVal domain.ConflictPolicy) domain.ConflictPolicy {
	policy := domain.ConflictPolicy(s.configStore.GetString(KeyConflictPolicy))
	if !policy.IsValid() {
		return defaultVal
	}
	return policy
}
