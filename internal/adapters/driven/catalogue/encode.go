package catalogue

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// isoLayout matches the zone-less ISO timestamps used by existing catalogues.
const isoLayout = "2006-01-02T15:04:05.999999"

// member is one key/value pair of an ordered JSON object.
type member struct {
	Key   string
	Value any
}

// object is a JSON object that keeps its key order.
type object []member

// MarshalJSON writes the members in order.
func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalNoEscape(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape is json.Marshal without HTML escaping.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeJSON writes the catalogue as an indented document. Rules keep their
// order; unrecognised sections follow the known ones, sorted by name.
func encodeJSON(cat *domain.Catalogue) ([]byte, error) {
	raw, err := marshalNoEscape(document(cat))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func document(cat *domain.Catalogue) object {
	rules := make(object, 0, len(cat.Rules))
	metadata := make(object, 0, len(cat.Rules))
	for i := range cat.Rules {
		r := &cat.Rules[i]
		rules = append(rules, member{r.ID, encodeRule(r)})
		if r.Status == domain.RuleStatusUnknown {
			continue
		}
		metadata = append(metadata, member{r.ID, encodeRuleMetadata(r)})
	}

	history := make(object, 0, len(cat.History))
	for _, id := range sortedKeys(cat.History) {
		entries := make([]object, 0, len(cat.History[id]))
		for _, e := range cat.History[id] {
			entry := object{{"action", e.Action}, {"timestamp", formatTime(e.Timestamp)}}
			if e.Author != "" {
				entry = append(entry, member{"author", e.Author})
			}
			if e.Version != "" {
				entry = append(entry, member{"version", e.Version})
			}
			entries = append(entries, entry)
		}
		history = append(history, member{id, entries})
	}

	doc := object{
		{sectionMetadata, orEmpty(cat.Metadata)},
		{sectionRules, rules},
		{sectionRuleMetadata, metadata},
		{sectionHistory, history},
		{sectionNutrients, orEmpty(cat.Nutrients)},
		{sectionPhases, orEmpty(cat.GrowthPhases)},
		{sectionFuzzySets, orEmpty(cat.FuzzySets)},
	}
	for _, key := range sortedKeys(cat.Extra) {
		doc = append(doc, member{key, cat.Extra[key]})
	}
	return doc
}

func encodeRule(r *domain.Rule) object {
	then := object{{"diagnosis", r.Consequent.Diagnosis}}
	for _, k := range sortedKeys(r.Consequent.Recommendation) {
		then = append(then, member{k, r.Consequent.Recommendation[k]})
	}
	antecedents := r.Antecedents
	if antecedents == nil {
		antecedents = []string{}
	}
	out := object{
		{"IF", antecedents},
		{"THEN", then},
	}
	if !math.IsNaN(r.CF) {
		out = append(out, member{"CF", r.CF})
	}
	out = append(out,
		member{"explanation", r.Explanation},
		member{"hash", r.Hash},
		member{"confidence_level", domain.ConfidenceLevel(r.CF)},
	)
	return out
}

func encodeRuleMetadata(r *domain.Rule) object {
	tags := r.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}
	return object{
		{"created_at", formatTime(r.Metadata.CreatedAt)},
		{"updated_at", formatTime(r.Metadata.UpdatedAt)},
		{"author", r.Metadata.Author},
		{"version", r.Version},
		{"status", r.Status.String()},
		{"usage_count", r.Metadata.UsageCount},
		{"success_rate", r.Metadata.SuccessRate},
		{"tags", tags},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
