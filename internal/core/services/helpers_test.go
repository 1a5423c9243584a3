package services

import (
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// rule builds an active rule.
func rule(id string, cf float64, diagnosis string, antecedents ...string) domain.Rule {
	return domain.Rule{
		ID:          id,
		Antecedents: antecedents,
		Consequent: domain.Consequent{
			Diagnosis:      diagnosis,
			Recommendation: map[string]any{"pupuk": "urea"},
		},
		CF:      cf,
		Status:  domain.RuleStatusActive,
		Version: domain.DefaultRuleVersion,
	}
}

func catalogueOf(rules ...domain.Rule) *domain.Catalogue {
	return &domain.Catalogue{
		Metadata: map[string]any{"version": "2.0"},
		Rules:    rules,
		History:  map[string][]domain.RuleHistoryEntry{},
	}
}

func ruleSetOf(rules ...domain.Rule) *RuleSet {
	return NewRuleSet(catalogueOf(rules...))
}

func facts(tokens ...string) domain.ConsultationInput {
	ev := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		ev[t] = 1.0
	}
	return domain.ConsultationInput{Facts: tokens, EvidenceCF: ev}
}
