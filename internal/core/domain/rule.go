package domain

import "time"

// RuleStatus is the lifecycle state of a rule.
type RuleStatus string

// Available rule statuses.
const (
	// RuleStatusActive rules take part in inference.
	RuleStatusActive RuleStatus = "active"

	// RuleStatusInactive rules are kept but never fire.
	RuleStatusInactive RuleStatus = "inactive"

	// RuleStatusDeprecated rules were soft-deleted.
	RuleStatusDeprecated RuleStatus = "deprecated"

	// RuleStatusTesting rules are under evaluation and never fire.
	RuleStatusTesting RuleStatus = "testing"

	// RuleStatusUnknown marks a rule with no metadata entry.
	// It is treated as inactive.
	RuleStatusUnknown RuleStatus = "unknown"
)

// IsValid returns true if the status can be persisted.
func (s RuleStatus) IsValid() bool {
	switch s {
	case RuleStatusActive, RuleStatusInactive, RuleStatusDeprecated, RuleStatusTesting:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s RuleStatus) String() string {
	return string(s)
}

// DefaultRuleVersion is assigned to newly created rules.
const DefaultRuleVersion = "1.0"

// Consequent is the THEN part of a rule.
type Consequent struct {
	// Diagnosis is the token asserted into working memory when the rule fires.
	Diagnosis string `json:"diagnosis" validate:"required,token"`

	// Recommendation holds the remaining THEN fields (fertiliser, dose, method...).
	// It is opaque to the engine.
	Recommendation map[string]any `json:"recommendation,omitempty"`
}

// Rule is a single IF-THEN production.
type Rule struct {
	// ID is unique across the catalogue.
	ID string `json:"id" validate:"required,token"`

	// Antecedents are condition tokens that must all be present for the rule to fire.
	Antecedents []string `json:"antecedents" validate:"required,min=1,dive,token"`

	// Consequent is asserted when the rule fires.
	Consequent Consequent `json:"consequent"`

	// CF is the expert-supplied rule certainty in [0, 1].
	CF float64 `json:"cf" validate:"gte=0,lte=1"`

	// Explanation is the expert's justification for the rule.
	Explanation string `json:"explanation,omitempty"`

	// Status decides whether the rule participates in inference.
	Status RuleStatus `json:"status"`

	// Version is bumped on every update ("1.0", "1.1", ...).
	Version string `json:"version"`

	// Hash identifies the rule content (id, antecedents, consequent).
	Hash string `json:"hash,omitempty"`

	// Metadata carries authoring and usage information.
	Metadata RuleMetadata `json:"metadata"`
}

// IsActive reports whether the rule may fire.
func (r *Rule) IsActive() bool {
	return r.Status == RuleStatusActive
}

// Clone returns a deep copy of the rule.
func (r *Rule) Clone() Rule {
	c := *r
	c.Antecedents = append([]string(nil), r.Antecedents...)
	c.Metadata.Tags = append([]string(nil), r.Metadata.Tags...)
	if r.Consequent.Recommendation != nil {
		c.Consequent.Recommendation = make(map[string]any, len(r.Consequent.Recommendation))
		for k, v := range r.Consequent.Recommendation {
			c.Consequent.Recommendation[k] = v
		}
	}
	return c
}

// RuleMetadata describes authorship and usage of a rule.
type RuleMetadata struct {
	Author      string    `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Tags        []string  `json:"tags,omitempty"`
	UsageCount  int       `json:"usage_count"`
	SuccessRate float64   `json:"success_rate"`
}

// RuleHistoryEntry records one change to a rule.
type RuleHistoryEntry struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author,omitempty"`
	Version   string    `json:"version,omitempty"`
}

// Rule history actions.
const (
	HistoryCreated    = "created"
	HistoryUpdated    = "updated"
	HistoryDeprecated = "deprecated"
	HistoryRestored   = "restored"
)

// ConfidenceLevel returns the qualitative level of a rule CF.
func ConfidenceLevel(cf float64) string {
	switch {
	case cf >= 0.9:
		return "Very High"
	case cf >= 0.7:
		return "High"
	case cf >= 0.5:
		return "Medium"
	case cf >= 0.3:
		return "Low"
	default:
		return "Very Low"
	}
}

// RuleFilter narrows a rule listing. Zero values match everything.
type RuleFilter struct {
	Condition string
	Diagnosis string
	Tags      []string
	MinCF     float64
	Status    RuleStatus
}
