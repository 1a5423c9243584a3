package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/diagnosa-cli/internal/logger"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// Symptom categories, in display order.
const (
	SymptomsLeaf        = "leaf"
	SymptomsGrowth      = "growth"
	SymptomsFlowerFruit = "flower_fruit"
	SymptomsOther       = "other"
)

var symptomKeywords = []struct {
	category string
	keywords []string
}{
	{SymptomsLeaf, []string{"daun", "klorosis", "nekro"}},
	{SymptomsGrowth, []string{"pertumbuhan", "kerdil", "batang", "ruas"}},
	{SymptomsFlowerFruit, []string{"bunga", "buah", "bercak", "pembentukan", "pematangan", "ujung"}},
}

// KnowledgeService is the rule store.
//
// Reads go through an atomically swapped *RuleSet and never block. Writes
// are serialized: each one backs up the current catalogue, writes the new
// one and only then publishes the new RuleSet.
type KnowledgeService struct {
	store    driven.CatalogueStore
	registry driven.RendererRegistry

	mu      sync.Mutex
	current atomic.Pointer[RuleSet]
	now     func() time.Time
}

// NewKnowledgeService creates a rule store over a catalogue store.
// The registry is optional and only needed for Export.
// Call Reload before use; until then the rule set is empty.
func NewKnowledgeService(store driven.CatalogueStore, registry driven.RendererRegistry) *KnowledgeService {
	s := &KnowledgeService{
		store:    store,
		registry: registry,
		now:      time.Now,
	}
	s.current.Store(emptyRuleSet())
	return s
}

// RuleSet returns the current immutable rule set.
func (s *KnowledgeService) RuleSet() *RuleSet {
	return s.current.Load()
}

// ActiveRules returns rules with status active, in definition order.
func (s *KnowledgeService) ActiveRules() []domain.Rule {
	return s.RuleSet().ActiveRules()
}

// AllRules returns every valid rule regardless of status.
func (s *KnowledgeService) AllRules() []domain.Rule {
	return s.RuleSet().AllRules()
}

// Get retrieves a rule by ID.
func (s *KnowledgeService) Get(id string) (*domain.Rule, error) {
	rule, ok := s.RuleSet().Rule(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rule, nil
}

// List returns rules matching the filter, in definition order.
func (s *KnowledgeService) List(filter domain.RuleFilter) []domain.Rule {
	var out []domain.Rule
	for _, rule := range s.RuleSet().AllRules() {
		if matchesFilter(&rule, filter) {
			out = append(out, rule)
		}
	}
	return out
}

func matchesFilter(rule *domain.Rule, f domain.RuleFilter) bool {
	if f.Condition != "" && !containsString(rule.Antecedents, f.Condition) {
		return false
	}
	if f.Diagnosis != "" &&
		!strings.Contains(strings.ToLower(rule.Consequent.Diagnosis), strings.ToLower(f.Diagnosis)) {
		return false
	}
	for _, tag := range f.Tags {
		if !containsString(rule.Metadata.Tags, tag) {
			return false
		}
	}
	if f.MinCF > 0 && rule.CF < f.MinCF {
		return false
	}
	if f.Status != "" && rule.Status != f.Status {
		return false
	}
	return true
}

// History returns the change history of a rule.
func (s *KnowledgeService) History(id string) []domain.RuleHistoryEntry {
	return append([]domain.RuleHistoryEntry(nil), s.RuleSet().catalogue.History[id]...)
}

// Validate checks a rule's structure without storing it.
func (s *KnowledgeService) Validate(rule domain.Rule) error {
	return validateRule(&rule)
}

// Warnings returns the rules skipped during the last load.
func (s *KnowledgeService) Warnings() []domain.LoadWarning {
	return s.RuleSet().Warnings()
}

// Reload re-reads the catalogue. On failure the current rule set stays
// in place and the error is returned.
func (s *KnowledgeService) Reload(ctx context.Context) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *KnowledgeService) reloadLocked(ctx context.Context) error {
	cat, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	rs := NewRuleSet(cat)
	for _, w := range rs.Warnings() {
		logger.Warn("Skipping rule %s: %s", w.RuleID, w.Reason)
	}
	s.current.Store(rs)
	metricActiveRules.Set(float64(len(rs.active)))
	logger.Info("Loaded %d rules (%d active, %d skipped) from %s",
		rs.Len(), len(rs.active), len(rs.warnings), s.store.Path())
	return nil
}

// Upsert creates or updates a rule.
func (s *KnowledgeService) Upsert(ctx context.Context, rule domain.Rule, author string) (*domain.Rule, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	rule = rule.Clone()
	if rule.Status == "" {
		rule.Status = domain.RuleStatusActive
	}
	if !rule.Status.IsValid() {
		return nil, &domain.RuleValidationError{
			RuleID:  rule.ID,
			Reasons: []string{fmt.Sprintf("status %q is not recognised", rule.Status)},
		}
	}
	if err := validateRule(&rule); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat := s.RuleSet().Catalogue()
	now := s.now().UTC()
	rule.Metadata.UpdatedAt = now
	rule.Hash = ruleHash(&rule)

	entry := domain.RuleHistoryEntry{Timestamp: now, Author: author}
	if idx := cat.Index(rule.ID); idx >= 0 {
		prev := cat.Rules[idx]
		rule.Version = bumpVersion(prev.Version)
		rule.Metadata.Author = prev.Metadata.Author
		rule.Metadata.CreatedAt = prev.Metadata.CreatedAt
		rule.Metadata.UsageCount = prev.Metadata.UsageCount
		rule.Metadata.SuccessRate = prev.Metadata.SuccessRate
		if rule.Metadata.Tags == nil {
			rule.Metadata.Tags = prev.Metadata.Tags
		}
		entry.Action = domain.HistoryUpdated
		if prev.Status == domain.RuleStatusDeprecated && rule.Status == domain.RuleStatusActive {
			entry.Action = domain.HistoryRestored
		}
		cat.Rules[idx] = rule
	} else {
		rule.Version = domain.DefaultRuleVersion
		rule.Metadata.Author = author
		rule.Metadata.CreatedAt = now
		entry.Action = domain.HistoryCreated
		cat.Rules = append(cat.Rules, rule)
	}
	entry.Version = rule.Version
	cat.History[rule.ID] = append(cat.History[rule.ID], entry)

	if err := s.persistLocked(ctx, cat); err != nil {
		return nil, err
	}
	logger.Info("Rule %s %s (v%s)", rule.ID, entry.Action, rule.Version)
	out := rule.Clone()
	return &out, nil
}

// Deprecate marks a rule deprecated so it no longer fires.
func (s *KnowledgeService) Deprecate(ctx context.Context, id, author string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cat := s.RuleSet().Catalogue()
	idx := cat.Index(id)
	if idx < 0 {
		return domain.ErrNotFound
	}
	now := s.now().UTC()
	cat.Rules[idx].Status = domain.RuleStatusDeprecated
	cat.Rules[idx].Metadata.UpdatedAt = now
	cat.History[id] = append(cat.History[id], domain.RuleHistoryEntry{
		Action:    domain.HistoryDeprecated,
		Timestamp: now,
		Author:    author,
		Version:   cat.Rules[idx].Version,
	})
	return s.persistLocked(ctx, cat)
}

// Delete removes a rule and its history permanently.
func (s *KnowledgeService) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cat := s.RuleSet().Catalogue()
	idx := cat.Index(id)
	if idx < 0 {
		return domain.ErrNotFound
	}
	cat.Rules = append(cat.Rules[:idx], cat.Rules[idx+1:]...)
	delete(cat.History, id)
	return s.persistLocked(ctx, cat)
}

// persistLocked backs up the current file, writes the new catalogue and
// publishes it. The caller holds s.mu.
func (s *KnowledgeService) persistLocked(ctx context.Context, cat *domain.Catalogue) error {
	if cat.Metadata == nil {
		cat.Metadata = make(map[string]any)
	}
	cat.Metadata["last_updated"] = s.now().UTC().Format(time.RFC3339)
	cat.Metadata["total_rules"] = len(cat.Rules)

	if _, err := s.store.Backup(ctx); err != nil {
		return fmt.Errorf("backing up catalogue: %w", err)
	}
	if err := s.store.Save(ctx, cat); err != nil {
		return fmt.Errorf("saving catalogue: %w", err)
	}
	rs := NewRuleSet(cat)
	s.current.Store(rs)
	metricActiveRules.Set(float64(len(rs.active)))
	return nil
}

// Backups lists catalogue backups, newest first.
func (s *KnowledgeService) Backups(ctx context.Context) ([]domain.Backup, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.ListBackups(ctx)
}

// Restore replaces the catalogue with a backup and reloads it.
// The current catalogue is backed up first.
func (s *KnowledgeService) Restore(ctx context.Context, name string) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Backup(ctx); err != nil {
		return fmt.Errorf("backing up catalogue: %w", err)
	}
	if err := s.store.Restore(ctx, name); err != nil {
		return err
	}
	return s.reloadLocked(ctx)
}

// Statistics summarises the catalogue.
func (s *KnowledgeService) Statistics(ctx context.Context) (*domain.KnowledgeStats, error) {
	rs := s.RuleSet()
	out := &domain.KnowledgeStats{
		Version:        rs.Version(),
		TotalRules:     rs.Len(),
		ActiveRules:    len(rs.active),
		RulesByPhase:   make(map[string]int),
		Diagnoses:      make(map[string]int),
		ByStatus:       make(map[string]int),
		TotalNutrients: len(rs.catalogue.Nutrients),
		TotalPhases:    len(rs.catalogue.GrowthPhases),
		SkippedOnLoad:  len(rs.warnings),
	}

	cfs := make(stats.Float64Data, 0, len(rs.rules))
	for i := range rs.rules {
		rule := &rs.rules[i]
		cfs = append(cfs, rule.CF)
		out.Diagnoses[rule.Consequent.Diagnosis]++
		out.ByStatus[rule.Status.String()]++
		for _, a := range rule.Antecedents {
			if strings.HasPrefix(a, "fase_") {
				out.RulesByPhase[a]++
			}
		}
		switch {
		case rule.CF >= 0.9:
			out.CFDistribution.VeryHigh++
		case rule.CF >= 0.7:
			out.CFDistribution.High++
		case rule.CF >= 0.5:
			out.CFDistribution.Medium++
		default:
			out.CFDistribution.Low++
		}
	}

	if len(cfs) > 0 {
		out.MeanCF, _ = cfs.Mean()
		out.MedianCF, _ = cfs.Median()
		out.StdDevCF, _ = cfs.StandardDeviation()
	}

	if s.store != nil {
		backups, err := s.store.ListBackups(ctx)
		if err != nil {
			logger.Warn("Listing backups: %v", err)
		}
		out.TotalBackups = len(backups)
	}
	return out, nil
}

// Symptoms groups the observable condition tokens of all rules by
// category. Phase tokens are not symptoms. Empty categories are omitted.
func (s *KnowledgeService) Symptoms() domain.SymptomGroups {
	seen := make(map[string]struct{})
	for _, rule := range s.RuleSet().rules {
		for _, a := range rule.Antecedents {
			if strings.HasPrefix(strings.ToLower(a), "fase") {
				continue
			}
			seen[a] = struct{}{}
		}
	}

	tokens := make([]string, 0, len(seen))
	for t := range seen {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	groups := make(domain.SymptomGroups)
	for _, t := range tokens {
		cat := symptomCategory(t)
		groups[cat] = append(groups[cat], t)
	}
	return groups
}

func symptomCategory(token string) string {
	lower := strings.ToLower(token)
	for _, group := range symptomKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return SymptomsOther
}

// Export writes the catalogue in the named format. "json" is always
// available; other formats come from the renderer registry.
func (s *KnowledgeService) Export(_ context.Context, format string) ([]byte, error) {
	rules := s.RuleSet().AllRules()
	if format == "json" {
		return json.MarshalIndent(rules, "", "  ")
	}
	if s.registry == nil {
		return nil, domain.ErrNotImplemented
	}
	exporter, err := s.registry.Exporter(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := exporter.Export(&buf, rules); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// ruleHash identifies a rule by its id, antecedents and consequent.
func ruleHash(rule *domain.Rule) string {
	payload, err := json.Marshal(struct {
		ID          string            `json:"id"`
		Antecedents []string          `json:"antecedents"`
		Consequent  domain.Consequent `json:"consequent"`
	}{rule.ID, rule.Antecedents, rule.Consequent})
	if err != nil {
		payload = []byte(rule.ID)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// bumpVersion increments the last component of a dotted version.
// Unparseable versions restart from the default.
func bumpVersion(v string) string {
	parts := strings.Split(v, ".")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if v == "" || err != nil {
		return bumpVersion(domain.DefaultRuleVersion)
	}
	parts[len(parts)-1] = strconv.Itoa(n + 1)
	return strings.Join(parts, ".")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
