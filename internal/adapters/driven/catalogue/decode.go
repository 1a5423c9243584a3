package catalogue

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// Top-level sections with a dedicated home in domain.Catalogue.
const (
	sectionMetadata     = "metadata"
	sectionRules        = "rules"
	sectionRuleMetadata = "rule_metadata"
	sectionHistory      = "rule_history"
	sectionNutrients    = "nutrient_database"
	sectionPhases       = "growth_phases"
	sectionFuzzySets    = "fuzzy_sets"
)

// isoLayouts are accepted timestamp formats, most specific first.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// decodeJSON parses a catalogue document. Rule order follows the document.
func decodeJSON(source string, data []byte) (*domain.Catalogue, error) {
	loadErr := func(reason string) error {
		return &domain.KnowledgeLoadError{Source: source, Reason: reason}
	}

	if !gjson.ValidBytes(data) {
		return nil, loadErr("not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, loadErr("document is not an object")
	}
	rules := root.Get(sectionRules)
	if !rules.Exists() || !rules.IsObject() {
		return nil, loadErr(`no "rules" object`)
	}

	cat := &domain.Catalogue{
		Metadata:     asMap(root.Get(sectionMetadata)),
		History:      make(map[string][]domain.RuleHistoryEntry),
		Nutrients:    asMap(root.Get(sectionNutrients)),
		GrowthPhases: asMap(root.Get(sectionPhases)),
		FuzzySets:    asMap(root.Get(sectionFuzzySets)),
		Extra:        make(map[string]json.RawMessage),
	}

	meta := root.Get(sectionRuleMetadata)
	seen := make(map[string]struct{})
	var err error
	rules.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		if _, dup := seen[id]; dup {
			err = loadErr(fmt.Sprintf("duplicate rule id %q", id))
			return false
		}
		seen[id] = struct{}{}
		if !value.IsObject() {
			err = loadErr(fmt.Sprintf("rule %q is not an object", id))
			return false
		}
		cat.Rules = append(cat.Rules, decodeRule(id, value, meta.Get(gjson.Escape(id))))
		return true
	})
	if err != nil {
		return nil, err
	}

	root.Get(sectionHistory).ForEach(func(key, value gjson.Result) bool {
		var entries []domain.RuleHistoryEntry
		value.ForEach(func(_, e gjson.Result) bool {
			entries = append(entries, domain.RuleHistoryEntry{
				Action:    e.Get("action").String(),
				Timestamp: parseTime(e.Get("timestamp").String()),
				Author:    e.Get("author").String(),
				Version:   e.Get("version").String(),
			})
			return true
		})
		cat.History[key.String()] = entries
		return true
	})

	root.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case sectionMetadata, sectionRules, sectionRuleMetadata, sectionHistory,
			sectionNutrients, sectionPhases, sectionFuzzySets:
		default:
			cat.Extra[key.String()] = json.RawMessage(value.Raw)
		}
		return true
	})

	return cat, nil
}

// decodeRule maps one rules entry and its rule_metadata entry.
// Malformed fields are decoded so that validation rejects the rule.
func decodeRule(id string, v, meta gjson.Result) domain.Rule {
	rule := domain.Rule{
		ID:          id,
		CF:          math.NaN(),
		Explanation: v.Get("explanation").String(),
		Hash:        v.Get("hash").String(),
		Status:      domain.RuleStatusUnknown,
	}

	if ifs := v.Get("IF"); ifs.IsArray() {
		rule.Antecedents = []string{}
		for _, a := range ifs.Array() {
			if a.Type != gjson.String {
				rule.Antecedents = append(rule.Antecedents, "")
				continue
			}
			rule.Antecedents = append(rule.Antecedents, a.String())
		}
	}

	if then := v.Get("THEN"); then.IsObject() {
		then.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "diagnosis" {
				rule.Consequent.Diagnosis = value.String()
				return true
			}
			if rule.Consequent.Recommendation == nil {
				rule.Consequent.Recommendation = make(map[string]any)
			}
			rule.Consequent.Recommendation[key.String()] = value.Value()
			return true
		})
	}

	if cf := v.Get("CF"); cf.Type == gjson.Number {
		rule.CF = cf.Float()
	}

	if meta.IsObject() {
		rule.Status = domain.RuleStatus(meta.Get("status").String())
		rule.Version = meta.Get("version").String()
		rule.Metadata = domain.RuleMetadata{
			Author:      meta.Get("author").String(),
			CreatedAt:   parseTime(meta.Get("created_at").String()),
			UpdatedAt:   parseTime(meta.Get("updated_at").String()),
			UsageCount:  int(meta.Get("usage_count").Int()),
			SuccessRate: meta.Get("success_rate").Float(),
		}
		for _, tag := range meta.Get("tags").Array() {
			rule.Metadata.Tags = append(rule.Metadata.Tags, tag.String())
		}
	}
	return rule
}

func asMap(r gjson.Result) map[string]any {
	if !r.IsObject() {
		return nil
	}
	m, _ := r.Value().(map[string]any)
	return m
}

// parseTime accepts RFC 3339 and zone-less ISO timestamps (read as UTC).
// Unparseable values yield the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
