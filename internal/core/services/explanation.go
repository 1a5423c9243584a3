package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/diagnosa-cli/internal/core/certainty"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
)

// Ensure ExplanationService implements the interface.
var _ driving.ExplanationService = (*ExplanationService)(nil)

// ExplanationService answers why and how questions about inference.
// It only reads the rule set and the results it is given.
type ExplanationService struct {
	rules ruleSource
}

// NewExplanationService creates an explanation service.
func NewExplanationService(rules *KnowledgeService) *ExplanationService {
	s := &ExplanationService{}
	if rules != nil {
		s.rules = rules
	}
	return s
}

func (s *ExplanationService) ruleSet() *RuleSet {
	if s.rules == nil {
		return emptyRuleSet()
	}
	return s.rules.RuleSet()
}

// Why lists the rules that still need token, given the facts known so far,
// ordered by how many of their other conditions are already satisfied.
func (s *ExplanationService) Why(token string, facts []string) (*domain.WhyExplanation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("condition is required: %w", domain.ErrInvalidInput)
	}
	known := make(map[string]struct{}, len(facts))
	for _, f := range facts {
		known[f] = struct{}{}
	}

	out := &domain.WhyExplanation{Question: token, Rules: []domain.WhyRule{}}
	for _, rule := range s.ruleSet().AllRules() {
		if !containsString(rule.Antecedents, token) {
			continue
		}
		if _, ok := known[token]; ok {
			continue
		}
		wr := domain.WhyRule{
			RuleID:    rule.ID,
			Diagnosis: rule.Consequent.Diagnosis,
			Satisfied: []string{},
			Missing:   []string{},
			CF:        rule.CF,
			Rationale: rule.Explanation,
		}
		for _, a := range rule.Antecedents {
			if _, ok := known[a]; ok {
				wr.Satisfied = append(wr.Satisfied, a)
			} else {
				wr.Missing = append(wr.Missing, a)
			}
		}
		out.Rules = append(out.Rules, wr)
	}

	if len(out.Rules) == 0 {
		out.Answer = fmt.Sprintf("%q is not needed by any rule for the current facts.", token)
		return out, nil
	}

	sort.SliceStable(out.Rules, func(i, j int) bool {
		return len(out.Rules[i].Satisfied) > len(out.Rules[j].Satisfied)
	})
	for _, r := range out.Rules {
		out.PotentialDiagnoses = append(out.PotentialDiagnoses, r.Diagnosis)
	}
	out.Answer = whyNarrative(token, out.Rules)
	return out, nil
}

func whyNarrative(token string, rules []domain.WhyRule) string {
	top := rules[0]
	var b strings.Builder
	fmt.Fprintf(&b, "%q is asked because:\n\n", token)
	fmt.Fprintf(&b, "1. It is needed to diagnose %q\n", top.Diagnosis)
	fmt.Fprintf(&b, "2. %d condition(s) of rule %s are already satisfied", len(top.Satisfied), top.RuleID)
	if len(top.Satisfied) > 0 {
		b.WriteString(": " + summarizeList(top.Satisfied, 3))
	}
	fmt.Fprintf(&b, "\n3. The rule's certainty is %.0f%%\n", top.CF*100)

	if len(rules) > 1 {
		others := make([]string, 0, len(rules)-1)
		for _, r := range rules[1:] {
			others = append(others, r.Diagnosis)
		}
		fmt.Fprintf(&b, "\nIt also affects %d other diagnosis(es): %s", len(others), summarizeList(others, 3))
	}
	return b.String()
}

// summarizeList joins the first n items and counts the rest.
func summarizeList(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:n], ", "), len(items)-n)
}

// How traces the reasoning steps that concluded diagnosis.
func (s *ExplanationService) How(diagnosis string, result *domain.ConsultationResult) (*domain.HowExplanation, error) {
	if result == nil {
		return nil, fmt.Errorf("consultation result is required: %w", domain.ErrInvalidInput)
	}
	out := &domain.HowExplanation{Conclusion: diagnosis, Steps: []domain.HowStep{}, RulesUsed: []string{}}

	rs := s.ruleSet()
	var finalCF float64
	for _, step := range result.ReasoningPath {
		if !strings.EqualFold(step.Conclusion, diagnosis) {
			continue
		}
		hs := domain.HowStep{
			Step:       step.Step,
			RuleID:     step.RuleID,
			Conditions: step.Conditions,
			Conclusion: step.Conclusion,
			CF:         step.CF,
		}
		if rule, ok := rs.Rule(step.RuleID); ok {
			hs.RuleExplanation = rule.Explanation
			hs.Recommendation = rule.Consequent.Recommendation
		}
		out.Steps = append(out.Steps, hs)
		out.RulesUsed = append(out.RulesUsed, step.RuleID)
		finalCF = step.CombinedCF
	}

	if len(out.Steps) == 0 {
		out.Answer = fmt.Sprintf("%q was not concluded in this consultation.", diagnosis)
		return out, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%q was reached through the following steps:\n\n", diagnosis)
	for _, st := range out.Steps {
		fmt.Fprintf(&b, "Step %d:\n", st.Step)
		fmt.Fprintf(&b, "  - Rule %s\n", st.RuleID)
		fmt.Fprintf(&b, "  - Satisfied conditions: %s\n", strings.Join(st.Conditions, ", "))
		fmt.Fprintf(&b, "  - Conclusion: %s\n", st.Conclusion)
		fmt.Fprintf(&b, "  - Certainty: %s\n\n", certainty.Percent(st.CF))
	}
	fmt.Fprintf(&b, "The final certainty is %s, a %s diagnosis.", certainty.Percent(finalCF), certainty.Strength(finalCF))
	if finalCF < 0.4 {
		b.WriteString(" Further confirmation is advised.")
	}
	out.Answer = b.String()
	return out, nil
}

// ExplainRule describes a rule in natural language.
func (s *ExplanationService) ExplainRule(id string) (*domain.RuleExplanation, error) {
	rs := s.ruleSet()
	rule, ok := rs.Rule(id)
	if !ok {
		// Rules skipped on load are still explained, with their problems.
		cat := rs.catalogue
		idx := cat.Index(id)
		if idx < 0 {
			return nil, domain.ErrNotFound
		}
		r := cat.Rules[idx].Clone()
		rule = &r
	}

	out := &domain.RuleExplanation{
		RuleID:          rule.ID,
		Rule:            *rule,
		NaturalLanguage: ruleNarrative(rule),
		CFPercentage:    fmt.Sprintf("%.0f%%", rule.CF*100),
		CFAssessment:    assessRuleCF(rule.CF),
		Valid:           true,
	}
	if err := validateRule(rule); err != nil {
		out.Valid = false
		if verr, ok := err.(*domain.RuleValidationError); ok {
			out.Problems = verr.Reasons
		} else {
			out.Problems = []string{err.Error()}
		}
	}
	return out, nil
}

func ruleNarrative(rule *domain.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule %s states that:\n\nIF:\n", rule.ID)
	for i, a := range rule.Antecedents {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, a)
	}
	b.WriteString("\nTHEN:\n")
	fmt.Fprintf(&b, "  - Diagnosis: %s\n", rule.Consequent.Diagnosis)

	keys := make([]string, 0, len(rule.Consequent.Recommendation))
	for k := range rule.Consequent.Recommendation {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  - %s: %v\n", k, rule.Consequent.Recommendation[k])
	}
	fmt.Fprintf(&b, "\nWith certainty %.0f%%", rule.CF*100)
	return b.String()
}

func assessRuleCF(cf float64) string {
	switch {
	case cf >= 0.9:
		return "Very high - the rule rests on very strong grounds"
	case cf >= 0.8:
		return "High - the rule is reliable"
	case cf >= 0.7:
		return "Fairly high - the rule is fairly trustworthy"
	case cf >= 0.6:
		return "Moderate - the rule needs supporting evidence"
	default:
		return "Low - the rule needs further validation"
	}
}

// Compare contrasts competing conclusions with the strongest one.
func (s *ExplanationService) Compare(conclusions []domain.Conclusion) (*domain.Comparison, error) {
	if len(conclusions) < 2 {
		return nil, fmt.Errorf("comparison needs at least 2 conclusions, got %d: %w",
			len(conclusions), domain.ErrInvalidInput)
	}

	sorted := append([]domain.Conclusion(nil), conclusions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CF > sorted[j].CF })
	top := sorted[0]

	out := &domain.Comparison{TopDiagnosis: top.Diagnosis, TopCF: top.CF}
	for _, other := range sorted[1:] {
		shared, onlyTop, onlyOther := diffConditions(top.Conditions, other.Conditions)
		out.Entries = append(out.Entries, domain.ComparisonEntry{
			Diagnosis:    other.Diagnosis,
			CF:           other.CF,
			Difference:   top.CF - other.CF,
			SharedConds:  shared,
			UniqueToTop:  onlyTop,
			UniqueToThis: onlyOther,
		})
	}

	second := sorted[1]
	gap := (top.CF - second.CF) * 100
	summary := fmt.Sprintf("The most likely diagnosis is %q at %s.\n\n", top.Diagnosis, certainty.Percent(top.CF))
	switch {
	case gap < 10:
		summary += fmt.Sprintf("It is very close to %q (only %.1f%% apart). Further confirmation is advised.",
			second.Diagnosis, gap)
	case gap < 20:
		summary += fmt.Sprintf("It is somewhat stronger than %q (%.1f%% apart).", second.Diagnosis, gap)
	default:
		summary += fmt.Sprintf("It is much stronger than the alternatives (at least %.1f%% apart).", gap)
	}
	out.Summary = summary
	return out, nil
}

// diffConditions splits two condition lists, preserving order.
func diffConditions(a, b []string) (shared, onlyA, onlyB []string) {
	shared, onlyA, onlyB = []string{}, []string{}, []string{}
	for _, x := range a {
		if containsString(b, x) {
			shared = append(shared, x)
		} else {
			onlyA = append(onlyA, x)
		}
	}
	for _, x := range b {
		if !containsString(a, x) {
			onlyB = append(onlyB, x)
		}
	}
	return shared, onlyA, onlyB
}
