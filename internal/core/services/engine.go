package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/diagnosa-cli/internal/core/certainty"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/logger"
)

// phaseRefinements maps a coarse growth phase onto the refined phase token
// that rules are written against.
var phaseRefinements = map[string]string{
	"fase_vegetatif": "fase_vegetatif_lanjut",
	"fase_generatif": "fase_generatif_lanjut",
}

func isPhaseToken(token string) bool {
	if _, ok := phaseRefinements[token]; ok {
		return true
	}
	for _, refined := range phaseRefinements {
		if refined == token {
			return true
		}
	}
	return false
}

// workingMemory holds one CF per token. Tokens known to the rule set live in
// a dense slice indexed by symbol; any other facts are kept in extra.
type workingMemory struct {
	symbols *symbolTable
	cf      []float64
	present []bool
	extra   map[string]float64
	order   []string
}

func newWorkingMemory(symbols *symbolTable) *workingMemory {
	return &workingMemory{
		symbols: symbols,
		cf:      make([]float64, symbols.len()),
		present: make([]bool, symbols.len()),
		extra:   make(map[string]float64),
	}
}

func (wm *workingMemory) set(token string, cf float64) {
	if id, ok := wm.symbols.lookup(token); ok {
		if !wm.present[id] {
			wm.order = append(wm.order, token)
		}
		wm.cf[id] = cf
		wm.present[id] = true
		return
	}
	if _, ok := wm.extra[token]; !ok {
		wm.order = append(wm.order, token)
	}
	wm.extra[token] = cf
}

func (wm *workingMemory) has(token string) bool {
	if id, ok := wm.symbols.lookup(token); ok {
		return wm.present[id]
	}
	_, ok := wm.extra[token]
	return ok
}

func (wm *workingMemory) snapshot() map[string]float64 {
	out := make(map[string]float64, len(wm.order))
	for _, token := range wm.order {
		if id, ok := wm.symbols.lookup(token); ok {
			out[token] = wm.cf[id]
			continue
		}
		out[token] = wm.extra[token]
	}
	return out
}

// Engine runs one forward-chaining consultation.
//
// An Engine is single use: build a new one per consultation with NewEngine.
// The rule set is shared and read-only; all other state belongs to the engine.
type Engine struct {
	rules    *RuleSet
	settings domain.EngineSettings

	state       domain.EngineState
	wm          *workingMemory
	fired       []bool
	usedRules   []string
	conclusions []domain.Conclusion
	path        []domain.ReasoningStep
	iterations  int
}

// NewEngine creates an idle engine over the given rule set.
// Invalid settings fall back to their defaults.
func NewEngine(rules *RuleSet, settings domain.EngineSettings) *Engine {
	if rules == nil {
		rules = emptyRuleSet()
	}
	return &Engine{
		rules:    rules,
		settings: sanitizeEngineSettings(settings),
		state:    domain.EngineIdle,
	}
}

func sanitizeEngineSettings(s domain.EngineSettings) domain.EngineSettings {
	d := domain.DefaultEngineSettings()
	if s.MaxIterations <= 0 {
		s.MaxIterations = d.MaxIterations
	}
	if s.TopK <= 0 {
		s.TopK = d.TopK
	}
	if certainty.Validate(s.DefaultEvidenceCF) != nil {
		s.DefaultEvidenceCF = d.DefaultEvidenceCF
	}
	if !s.MatchPolicy.IsValid() {
		s.MatchPolicy = d.MatchPolicy
	}
	if !s.ConflictPolicy.IsValid() {
		s.ConflictPolicy = d.ConflictPolicy
	}
	return s
}

// State returns the engine's lifecycle state.
func (e *Engine) State() domain.EngineState {
	return e.state
}

// Run initialises working memory from the input and fires rules until no
// rule can fire or the iteration cap is reached.
func (e *Engine) Run(input domain.ConsultationInput) (*domain.ConsultationResult, error) {
	if e.state != domain.EngineIdle {
		return nil, domain.ErrEngineSpent
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	e.wm = newWorkingMemory(e.rules.symbols)
	e.fired = make([]bool, len(e.rules.active))
	e.initialise(input)
	e.state = domain.EngineIterating

	for e.iterations < e.settings.MaxIterations {
		e.iterations++
		firedAny := false
		for i := range e.rules.active {
			if e.fired[i] {
				continue
			}
			if e.fire(i) {
				firedAny = true
			}
		}
		if !firedAny {
			e.state = domain.EngineFixpoint
			break
		}
	}
	if e.state == domain.EngineIterating {
		e.state = domain.EngineCapped
		logger.Warn("Inference stopped at the iteration cap (%d)", e.settings.MaxIterations)
	}

	return e.result(input), nil
}

func validateInput(input domain.ConsultationInput) error {
	for token, cf := range input.EvidenceCF {
		if err := certainty.Validate(cf); err != nil {
			return fmt.Errorf("evidence for %q: %w: %w", token, domain.ErrInvalidInput, err)
		}
	}
	return nil
}

// trimEvidence keys evidence by trimmed token so it lines up with the
// trimmed facts.
func trimEvidence(evidence map[string]float64) map[string]float64 {
	if len(evidence) == 0 {
		return evidence
	}
	out := make(map[string]float64, len(evidence))
	for token, cf := range evidence {
		out[strings.TrimSpace(token)] = cf
	}
	return out
}

// initialise asserts facts, then the phase token, then phase refinements.
// Phase tokens are always certain. Evidence for tokens that are not listed
// as facts is ignored.
func (e *Engine) initialise(input domain.ConsultationInput) {
	evidence := trimEvidence(input.EvidenceCF)
	for _, fact := range input.Facts {
		fact = strings.TrimSpace(fact)
		if fact == "" {
			continue
		}
		cf, ok := evidence[fact]
		switch {
		case isPhaseToken(fact):
			cf = 1.0
		case !ok:
			cf = e.settings.DefaultEvidenceCF
		}
		e.wm.set(fact, cf)
	}

	if phase := strings.TrimSpace(input.Phase); phase != "" {
		e.wm.set(phase, 1.0)
	}
	for coarse, refined := range phaseRefinements {
		if e.wm.has(coarse) {
			e.wm.set(refined, 1.0)
		}
	}
	logger.Debug("Working memory initialised with %d facts", len(e.wm.order))
}

// matches returns the present antecedents and whether the rule may fire
// under the configured match policy.
func (e *Engine) matches(cr *compiledRule) ([]symbol, bool) {
	matched := make([]symbol, 0, len(cr.antecedents))
	for _, a := range cr.antecedents {
		if e.wm.present[a] {
			matched = append(matched, a)
		}
	}

	required := len(cr.antecedents)
	if e.settings.MatchPolicy == domain.MatchLenient {
		required = max(1, required-1)
	}
	return matched, len(matched) >= required
}

// fire evaluates one rule and, if it matches, records its conclusion.
func (e *Engine) fire(i int) bool {
	cr := &e.rules.active[i]
	matched, ok := e.matches(cr)
	if !ok {
		return false
	}

	names := make([]string, len(matched))
	evidence := make([]float64, len(matched))
	conditionsCF := make(map[string]float64, len(matched))
	for j, id := range matched {
		names[j] = e.rules.symbols.name(id)
		evidence[j] = e.wm.cf[id]
		conditionsCF[names[j]] = evidence[j]
	}

	rule := cr.rule
	cf, err := certainty.RuleCF(rule.CF, evidence)
	if err != nil {
		// Working memory only ever holds validated CFs.
		logger.Warn("Rule %s skipped: %v", rule.ID, err)
		e.fired[i] = true
		return false
	}

	combined := cf
	if e.wm.present[cr.diagnosis] && e.settings.ConflictPolicy == domain.ConflictCombine {
		if merged, err := certainty.Combine(e.wm.cf[cr.diagnosis], cf); err == nil {
			combined = merged
		}
	}
	e.wm.set(rule.Consequent.Diagnosis, combined)
	e.fired[i] = true
	e.usedRules = append(e.usedRules, rule.ID)

	category, _ := certainty.Categorize(cf)
	e.conclusions = append(e.conclusions, domain.Conclusion{
		RuleID:            rule.ID,
		Diagnosis:         rule.Consequent.Diagnosis,
		CF:                cf,
		Interpretation:    certainty.MustInterpret(cf).String(),
		Category:          string(category),
		MatchedConditions: names,
		Conditions:        append([]string(nil), rule.Antecedents...),
		Recommendation:    rule.Consequent.Recommendation,
		Explanation:       rule.Explanation,
	})
	e.path = append(e.path, domain.ReasoningStep{
		Step:         len(e.path) + 1,
		RuleID:       rule.ID,
		Conditions:   names,
		ConditionsCF: conditionsCF,
		Conclusion:   rule.Consequent.Diagnosis,
		CF:           cf,
		CombinedCF:   combined,
		Narrative:    fmt.Sprintf("IF %s THEN %s", strings.Join(names, " AND "), rule.Consequent.Diagnosis),
	})

	logger.Debug("Rule %s fired: cf=%.3f %s=%.3f", rule.ID, cf, rule.Consequent.Diagnosis, combined)
	return true
}

func (e *Engine) result(input domain.ConsultationInput) *domain.ConsultationResult {
	ranked := append([]domain.Conclusion{}, e.conclusions...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CF > ranked[j].CF
	})

	top := ranked
	if len(top) > e.settings.TopK {
		top = top[:e.settings.TopK]
	}

	return &domain.ConsultationResult{
		Conclusions:     append([]domain.Conclusion{}, top...),
		AllConclusions:  ranked,
		UsedRules:       append([]string{}, e.usedRules...),
		ReasoningPath:   append([]domain.ReasoningStep{}, e.path...),
		WorkingMemory:   e.wm.snapshot(),
		TotalIterations: e.iterations,
		State:           e.state,
		Input:           input,
	}
}
