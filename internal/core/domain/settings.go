package domain

const unknownDescription = "Unknown"

// MatchPolicy decides when a rule's antecedents count as satisfied.
type MatchPolicy string

// Available match policies.
const (
	// MatchStrict fires a rule only when every antecedent is present.
	MatchStrict MatchPolicy = "strict"

	// MatchLenient fires a rule when all but one antecedent are present
	// (at least one for single-antecedent rules).
	MatchLenient MatchPolicy = "lenient"
)

// IsValid returns true if the match policy is recognised.
func (m MatchPolicy) IsValid() bool {
	return m == MatchStrict || m == MatchLenient
}

// String returns the string representation.
func (m MatchPolicy) String() string {
	return string(m)
}

// Description returns a human-readable description of the policy.
func (m MatchPolicy) Description() string {
	switch m {
	case MatchStrict:
		return "Strict (all conditions required)"
	case MatchLenient:
		return "Lenient (all but one condition required)"
	default:
		return unknownDescription
	}
}

// ConflictPolicy decides how a re-derived diagnosis updates working memory.
type ConflictPolicy string

// Available conflict policies.
const (
	// ConflictCombine merges the new CF into the existing one with CF-combine.
	ConflictCombine ConflictPolicy = "combine"

	// ConflictOverwrite replaces the existing CF with the newest one.
	ConflictOverwrite ConflictPolicy = "overwrite"
)

// IsValid returns true if the conflict policy is recognised.
func (c ConflictPolicy) IsValid() bool {
	return c == ConflictCombine || c == ConflictOverwrite
}

// String returns the string representation.
func (c ConflictPolicy) String() string {
	return string(c)
}

// Description returns a human-readable description of the policy.
func (c ConflictPolicy) Description() string {
	switch c {
	case ConflictCombine:
		return "Combine (merge certainty factors)"
	case ConflictOverwrite:
		return "Overwrite (latest firing wins)"
	default:
		return unknownDescription
	}
}

// Engine defaults.
const (
	DefaultMaxIterations = 50
	DefaultTopK          = 5
)

// EngineSettings configures forward chaining.
type EngineSettings struct {
	MaxIterations     int            `json:"max_iterations"`
	TopK              int            `json:"top_k"`
	DefaultEvidenceCF float64        `json:"default_evidence_cf"`
	MatchPolicy       MatchPolicy    `json:"match_policy"`
	ConflictPolicy    ConflictPolicy `json:"conflict_policy"`
}

// CatalogueSettings locates the rule catalogue.
type CatalogueSettings struct {
	// Path is the catalogue file. Empty means <data dir>/rules.json.
	Path string `json:"path"`

	// BackupDir holds point-in-time copies. Empty means <data dir>/backups.
	BackupDir string `json:"backup_dir"`

	// Watch reloads the catalogue when the file changes on disk.
	Watch bool `json:"watch"`
}

// LogSettings configures the consultation log.
type LogSettings struct {
	Enabled bool `json:"enabled"`
}

// AppSettings holds all user-configurable settings.
type AppSettings struct {
	Engine    EngineSettings    `json:"engine"`
	Catalogue CatalogueSettings `json:"catalogue"`
	Log       LogSettings       `json:"log"`
}

// DefaultEngineSettings returns the canonical engine configuration:
// strict matching and CF-combine on conflict.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		MaxIterations:     DefaultMaxIterations,
		TopK:              DefaultTopK,
		DefaultEvidenceCF: DefaultEvidenceCF,
		MatchPolicy:       MatchStrict,
		ConflictPolicy:    ConflictCombine,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Engine: DefaultEngineSettings(),
		Catalogue: CatalogueSettings{
			Watch: false,
		},
		Log: LogSettings{
			Enabled: true,
		},
	}
}

// Validate checks the engine settings for consistency.
func (e EngineSettings) Validate() error {
	if e.MaxIterations <= 0 {
		return ErrInvalidInput
	}
	if e.TopK <= 0 {
		return ErrInvalidInput
	}
	if e.DefaultEvidenceCF < -1 || e.DefaultEvidenceCF > 1 {
		return &InvalidCFError{Value: e.DefaultEvidenceCF}
	}
	if !e.MatchPolicy.IsValid() || !e.ConflictPolicy.IsValid() {
		return ErrInvalidInput
	}
	return nil
}
