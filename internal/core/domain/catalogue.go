package domain

import (
	"encoding/json"
	"time"
)

// Catalogue is the persisted knowledge base document.
//
// Rules keep their definition order: that order decides which rule fires
// first within an inference pass.
type Catalogue struct {
	Metadata     map[string]any                `json:"metadata,omitempty"`
	Rules        []Rule                        `json:"rules"`
	History      map[string][]RuleHistoryEntry `json:"rule_history,omitempty"`
	Nutrients    map[string]any                `json:"nutrient_database,omitempty"`
	GrowthPhases map[string]any                `json:"growth_phases,omitempty"`
	FuzzySets    map[string]any                `json:"fuzzy_sets,omitempty"`

	// Extra preserves unrecognised top-level sections verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

// Index returns the position of a rule by ID, or -1.
func (c *Catalogue) Index(id string) int {
	for i := range c.Rules {
		if c.Rules[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy whose rule slice and history can be mutated freely.
// Opaque sections are shared.
func (c *Catalogue) Clone() *Catalogue {
	out := *c
	out.Rules = make([]Rule, len(c.Rules))
	for i := range c.Rules {
		out.Rules[i] = c.Rules[i].Clone()
	}
	out.History = make(map[string][]RuleHistoryEntry, len(c.History))
	for id, entries := range c.History {
		out.History[id] = append([]RuleHistoryEntry(nil), entries...)
	}
	out.Metadata = make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		out.Metadata[k] = v
	}
	return &out
}

// LoadWarning records a rule that was skipped while loading.
type LoadWarning struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
}

// Backup is a point-in-time copy of the catalogue.
type Backup struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}
