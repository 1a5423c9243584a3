package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// symbol is an interned token.
type symbol int32

// symbolTable interns every token a rule set mentions.
type symbolTable struct {
	ids   map[string]symbol
	names []string
}

func newSymbolTable() *symbolTable {
	return &symbolTable{ids: make(map[string]symbol)}
}

func (t *symbolTable) intern(token string) symbol {
	if id, ok := t.ids[token]; ok {
		return id
	}
	id := symbol(len(t.names))
	t.ids[token] = id
	t.names = append(t.names, token)
	return id
}

func (t *symbolTable) lookup(token string) (symbol, bool) {
	id, ok := t.ids[token]
	return id, ok
}

func (t *symbolTable) name(id symbol) string {
	return t.names[id]
}

func (t *symbolTable) len() int {
	return len(t.names)
}

// compiledRule is an active rule with interned tokens.
type compiledRule struct {
	rule        *domain.Rule
	antecedents []symbol
	diagnosis   symbol
}

// RuleSet is an immutable, validated snapshot of a catalogue.
// It is shared by concurrent consultations without locking.
type RuleSet struct {
	catalogue *domain.Catalogue
	rules     []domain.Rule
	byID      map[string]int
	active    []compiledRule
	symbols   *symbolTable
	warnings  []domain.LoadWarning
}

// NewRuleSet validates every rule in the catalogue and indexes the valid
// ones. Invalid rules are skipped and reported through Warnings.
// The catalogue must not be modified afterwards.
func NewRuleSet(catalogue *domain.Catalogue) *RuleSet {
	rs := &RuleSet{
		catalogue: catalogue,
		byID:      make(map[string]int, len(catalogue.Rules)),
		symbols:   newSymbolTable(),
	}

	for i := range catalogue.Rules {
		rule := catalogue.Rules[i].Clone()
		if err := validateRule(&rule); err != nil {
			rs.warnings = append(rs.warnings, domain.LoadWarning{
				RuleID: rule.ID,
				Reason: warningReason(err),
			})
			continue
		}
		rs.byID[rule.ID] = len(rs.rules)
		rs.rules = append(rs.rules, rule)
	}

	for i := range rs.rules {
		rule := &rs.rules[i]
		if !rule.IsActive() {
			continue
		}
		cr := compiledRule{
			rule:        rule,
			antecedents: make([]symbol, len(rule.Antecedents)),
			diagnosis:   rs.symbols.intern(rule.Consequent.Diagnosis),
		}
		for j, a := range rule.Antecedents {
			cr.antecedents[j] = rs.symbols.intern(a)
		}
		rs.active = append(rs.active, cr)
	}
	return rs
}

func warningReason(err error) string {
	if verr, ok := err.(*domain.RuleValidationError); ok {
		return strings.Join(verr.Reasons, "; ")
	}
	return err.Error()
}

// Version returns the catalogue version, if recorded.
func (rs *RuleSet) Version() string {
	if v, ok := rs.catalogue.Metadata["version"]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

// Len returns the number of valid rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// ActiveRules returns the active rules in definition order.
func (rs *RuleSet) ActiveRules() []domain.Rule {
	out := make([]domain.Rule, len(rs.active))
	for i := range rs.active {
		out[i] = rs.active[i].rule.Clone()
	}
	return out
}

// AllRules returns every valid rule in definition order.
func (rs *RuleSet) AllRules() []domain.Rule {
	out := make([]domain.Rule, len(rs.rules))
	for i := range rs.rules {
		out[i] = rs.rules[i].Clone()
	}
	return out
}

// Rule returns a valid rule by ID.
func (rs *RuleSet) Rule(id string) (*domain.Rule, bool) {
	i, ok := rs.byID[id]
	if !ok {
		return nil, false
	}
	r := rs.rules[i].Clone()
	return &r, true
}

// Warnings returns the rules skipped during validation.
func (rs *RuleSet) Warnings() []domain.LoadWarning {
	return append([]domain.LoadWarning(nil), rs.warnings...)
}

// Catalogue returns a mutable copy of the source catalogue, invalid rules
// included, for rewriting.
func (rs *RuleSet) Catalogue() *domain.Catalogue {
	return rs.catalogue.Clone()
}

// emptyRuleSet has no rules. Consultations against it conclude nothing.
func emptyRuleSet() *RuleSet {
	return NewRuleSet(&domain.Catalogue{})
}
