package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

const eps = 1e-9

func run(t *testing.T, rs *RuleSet, settings domain.EngineSettings, input domain.ConsultationInput) *domain.ConsultationResult {
	t.Helper()
	res, err := NewEngine(rs, settings).Run(input)
	require.NoError(t, err)
	return res
}

func TestEngine_SingleRuleFullEvidence(t *testing.T) {
	rs := ruleSetOf(rule("R1", 0.9, "d", "a", "b"))

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a", "b"))

	require.Len(t, res.AllConclusions, 1)
	assert.InDelta(t, 0.9, res.AllConclusions[0].CF, eps)
	assert.Equal(t, "very convincing", res.AllConclusions[0].Interpretation)
	assert.Equal(t, []string{"R1"}, res.UsedRules)
	assert.Equal(t, domain.EngineFixpoint, res.State)
	assert.Equal(t, 2, res.TotalIterations)
}

func TestEngine_Chaining(t *testing.T) {
	rs := ruleSetOf(
		rule("R1", 0.8, "diag1", "a"),
		rule("R2", 0.5, "diag2", "diag1"),
	)

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a"))

	assert.InDelta(t, 0.8, res.WorkingMemory["diag1"], eps)
	assert.InDelta(t, 0.4, res.WorkingMemory["diag2"], eps)
	assert.Equal(t, []string{"R1", "R2"}, res.UsedRules)
}

func TestEngine_ChainingAcrossPasses(t *testing.T) {
	// R2 is defined first, so it can only fire in the pass after R1.
	rs := ruleSetOf(
		rule("R2", 0.5, "diag2", "diag1"),
		rule("R1", 0.8, "diag1", "a"),
	)

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a"))

	assert.InDelta(t, 0.4, res.WorkingMemory["diag2"], eps)
	assert.Equal(t, []string{"R1", "R2"}, res.UsedRules)
	assert.Equal(t, 3, res.TotalIterations)
}

func TestEngine_ConflictCombine(t *testing.T) {
	// R1 yields 0.5 in pass one; R3 needs R2's conclusion, so it adds 0.6
	// to the same diagnosis in pass two.
	rs := ruleSetOf(
		rule("R3", 0.6, "diagX", "mid"),
		rule("R1", 0.5, "diagX", "a"),
		rule("R2", 1.0, "mid", "b"),
	)

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a", "b"))

	assert.InDelta(t, 0.5+0.6*(1-0.5), res.WorkingMemory["diagX"], eps)
	assert.InDelta(t, 0.8, res.WorkingMemory["diagX"], eps)

	last := res.ReasoningPath[len(res.ReasoningPath)-1]
	assert.Equal(t, "R3", last.RuleID)
	assert.InDelta(t, 0.6, last.CF, eps)
	assert.InDelta(t, 0.8, last.CombinedCF, eps)
}

func TestEngine_ConflictOverwrite(t *testing.T) {
	rs := ruleSetOf(
		rule("R1", 0.5, "diagX", "a"),
		rule("R2", 0.6, "diagX", "b"),
	)
	settings := domain.DefaultEngineSettings()
	settings.ConflictPolicy = domain.ConflictOverwrite

	res := run(t, rs, settings, facts("a", "b"))

	assert.InDelta(t, 0.6, res.WorkingMemory["diagX"], eps)
}

func TestEngine_EmptyFacts(t *testing.T) {
	rs := ruleSetOf(rule("R1", 0.9, "d", "a"))

	res := run(t, rs, domain.DefaultEngineSettings(), domain.ConsultationInput{})

	assert.Empty(t, res.Conclusions)
	assert.Empty(t, res.AllConclusions)
	assert.Empty(t, res.UsedRules)
	assert.NotNil(t, res.Conclusions)
	assert.Equal(t, domain.EngineFixpoint, res.State)
	assert.Equal(t, 1, res.TotalIterations)
}

func TestEngine_StrictMatchingIsDefault(t *testing.T) {
	rs := ruleSetOf(rule("R1", 0.9, "d", "a", "b", "c"))

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a", "b"))

	assert.Empty(t, res.AllConclusions)
}

func TestEngine_LenientMatching(t *testing.T) {
	rs := ruleSetOf(
		rule("R1", 0.9, "d1", "a", "b", "c"),
		rule("R2", 0.9, "d2", "x"),
		rule("R3", 0.9, "d3", "a", "y", "z"),
	)
	settings := domain.DefaultEngineSettings()
	settings.MatchPolicy = domain.MatchLenient

	res := run(t, rs, settings, facts("a", "b"))

	require.Len(t, res.AllConclusions, 1)
	c := res.AllConclusions[0]
	assert.Equal(t, "R1", c.RuleID)
	assert.Equal(t, []string{"a", "b"}, c.MatchedConditions)
	assert.Equal(t, []string{"a", "b", "c"}, c.Conditions)
}

func TestEngine_DefaultEvidenceCF(t *testing.T) {
	rs := ruleSetOf(rule("R1", 1.0, "d", "a"))

	res := run(t, rs, domain.DefaultEngineSettings(), domain.ConsultationInput{Facts: []string{"a"}})

	assert.InDelta(t, 0.8, res.WorkingMemory["a"], eps)
	assert.InDelta(t, 0.8, res.WorkingMemory["d"], eps)
}

func TestEngine_EvidenceKeysAreTrimmed(t *testing.T) {
	rs := ruleSetOf(rule("R1", 1.0, "d", "a"))

	res := run(t, rs, domain.DefaultEngineSettings(), domain.ConsultationInput{
		Facts:      []string{" a "},
		EvidenceCF: map[string]float64{" a ": 0.5},
	})

	assert.InDelta(t, 0.5, res.WorkingMemory["a"], eps)
	assert.InDelta(t, 0.5, res.WorkingMemory["d"], eps)
}

func TestEngine_ConclusionCategory(t *testing.T) {
	rs := ruleSetOf(rule("R1", 0.9, "strong", "a"), rule("R2", 0.5, "weak", "a"))

	res := run(t, rs, domain.DefaultEngineSettings(), domain.ConsultationInput{
		Facts:      []string{"a"},
		EvidenceCF: map[string]float64{"a": 1.0},
	})

	require.Len(t, res.AllConclusions, 2)
	assert.Equal(t, "STRONG", res.AllConclusions[0].Category)
	assert.Equal(t, "WEAK", res.AllConclusions[1].Category)
}

func TestRuleSet_CopiesCatalogueRules(t *testing.T) {
	cat := catalogueOf(rule("R1", 0.9, "d", "a"))
	rs := NewRuleSet(cat)

	cat.Rules[0].Antecedents[0] = "changed"

	got, ok := rs.Rule("R1")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got.Antecedents)
}

func TestEngine_PhaseTokens(t *testing.T) {
	rs := ruleSetOf(rule("R1", 0.9, "defisiensi_N", "fase_vegetatif_lanjut", "daun_menguning"))

	res := run(t, rs, domain.DefaultEngineSettings(), domain.ConsultationInput{
		Facts:      []string{"daun_menguning"},
		EvidenceCF: map[string]float64{"daun_menguning": 1.0},
		Phase:      "fase_vegetatif",
	})

	assert.Equal(t, 1.0, res.WorkingMemory["fase_vegetatif"])
	assert.Equal(t, 1.0, res.WorkingMemory["fase_vegetatif_lanjut"])
	require.Len(t, res.AllConclusions, 1)
	assert.InDelta(t, 0.9, res.AllConclusions[0].CF, eps)
}

func TestEngine_PhaseFactIsCertain(t *testing.T) {
	res := run(t, ruleSetOf(), domain.DefaultEngineSettings(), domain.ConsultationInput{
		Facts:      []string{"fase_generatif"},
		EvidenceCF: map[string]float64{"fase_generatif": 0.3},
	})

	assert.Equal(t, 1.0, res.WorkingMemory["fase_generatif"])
	assert.Equal(t, 1.0, res.WorkingMemory["fase_generatif_lanjut"])
}

func TestEngine_InactiveRulesNeverFire(t *testing.T) {
	r2 := rule("R2", 0.9, "d2", "a")
	r2.Status = domain.RuleStatusDeprecated
	r3 := rule("R3", 0.9, "d3", "a")
	r3.Status = domain.RuleStatusUnknown
	rs := ruleSetOf(rule("R1", 0.9, "d1", "a"), r2, r3)

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a"))

	assert.Equal(t, []string{"R1"}, res.UsedRules)
}

func TestEngine_RankingIsStable(t *testing.T) {
	rs := ruleSetOf(
		rule("R1", 0.5, "low", "a"),
		rule("R2", 0.9, "high1", "a"),
		rule("R3", 0.9, "high2", "a"),
	)

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a"))

	got := make([]string, len(res.AllConclusions))
	for i, c := range res.AllConclusions {
		got[i] = c.RuleID
	}
	if diff := cmp.Diff([]string{"R2", "R3", "R1"}, got); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_TopK(t *testing.T) {
	var rules []domain.Rule
	for i := 0; i < 8; i++ {
		rules = append(rules, rule(fmt.Sprintf("R%d", i), 0.1*float64(i+1), fmt.Sprintf("d%d", i), "a"))
	}
	rs := ruleSetOf(rules...)

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a"))
	assert.Len(t, res.Conclusions, 5)
	assert.Len(t, res.AllConclusions, 8)
	assert.Equal(t, "R7", res.Conclusions[0].RuleID)

	settings := domain.DefaultEngineSettings()
	settings.TopK = 2
	res = run(t, rs, settings, facts("a"))
	assert.Len(t, res.Conclusions, 2)
}

func TestEngine_IterationCap(t *testing.T) {
	// A chain longer than the cap: each rule needs the previous conclusion
	// and rules are defined in reverse so only one fires per pass.
	var rules []domain.Rule
	for i := 5; i >= 1; i-- {
		rules = append(rules, rule(fmt.Sprintf("R%d", i), 1.0, fmt.Sprintf("t%d", i), fmt.Sprintf("t%d", i-1)))
	}
	rs := ruleSetOf(rules...)
	settings := domain.DefaultEngineSettings()
	settings.MaxIterations = 3

	res := run(t, rs, settings, facts("t0"))

	assert.Equal(t, domain.EngineCapped, res.State)
	assert.Equal(t, 3, res.TotalIterations)
	assert.Equal(t, []string{"R1", "R2", "R3"}, res.UsedRules)
}

func TestEngine_RulesFireAtMostOnce(t *testing.T) {
	rs := ruleSetOf(
		rule("R1", 0.9, "b", "a"),
		rule("R2", 0.9, "a", "b"),
		rule("R3", 0.7, "c", "a", "b"),
	)

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a"))

	seen := map[string]bool{}
	for _, id := range res.UsedRules {
		assert.False(t, seen[id], "rule %s fired twice", id)
		seen[id] = true
	}
	assert.Equal(t, domain.EngineFixpoint, res.State)
	assert.LessOrEqual(t, res.TotalIterations, domain.DefaultMaxIterations)
}

func TestEngine_ReasoningPath(t *testing.T) {
	rs := ruleSetOf(rule("R1", 0.9, "d", "a", "b"))

	res := run(t, rs, domain.DefaultEngineSettings(), facts("a", "b"))

	want := []domain.ReasoningStep{{
		Step:         1,
		RuleID:       "R1",
		Conditions:   []string{"a", "b"},
		ConditionsCF: map[string]float64{"a": 1, "b": 1},
		Conclusion:   "d",
		CF:           0.9,
		CombinedCF:   0.9,
		Narrative:    "IF a AND b THEN d",
	}}
	if diff := cmp.Diff(want, res.ReasoningPath); diff != "" {
		t.Errorf("reasoning path mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_RejectsInvalidEvidence(t *testing.T) {
	_, err := NewEngine(ruleSetOf(), domain.DefaultEngineSettings()).Run(domain.ConsultationInput{
		Facts:      []string{"a"},
		EvidenceCF: map[string]float64{"a": 1.5},
	})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.True(t, errors.Is(err, domain.ErrInvalidCF))
}

func TestEngine_SingleUse(t *testing.T) {
	e := NewEngine(ruleSetOf(), domain.DefaultEngineSettings())
	assert.Equal(t, domain.EngineIdle, e.State())

	_, err := e.Run(domain.ConsultationInput{})
	require.NoError(t, err)

	_, err = e.Run(domain.ConsultationInput{})
	assert.ErrorIs(t, err, domain.ErrEngineSpent)
}

func TestEngine_UnknownFactsKeptInWorkingMemory(t *testing.T) {
	res := run(t, ruleSetOf(rule("R1", 0.9, "d", "a")), domain.DefaultEngineSettings(), facts("a", "unrelated"))

	assert.Equal(t, 1.0, res.WorkingMemory["unrelated"])
}

func TestEngine_InvalidSettingsFallBack(t *testing.T) {
	e := NewEngine(nil, domain.EngineSettings{MatchPolicy: "bogus", DefaultEvidenceCF: 7})

	assert.Equal(t, domain.DefaultEngineSettings(), e.settings)
}

func TestRuleSet_SkipsInvalidRules(t *testing.T) {
	bad := rule("R2", 1.5, "d", "a")
	empty := rule("R3", 0.5, "d")
	rs := ruleSetOf(rule("R1", 0.9, "d", "a"), bad, empty)

	assert.Equal(t, 1, rs.Len())
	warnings := rs.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "R2", warnings[0].RuleID)
	assert.Contains(t, warnings[0].Reason, "cf")
	assert.Equal(t, "R3", warnings[1].RuleID)
	assert.Contains(t, warnings[1].Reason, "antecedents")

	// Invalid rules survive a rewrite.
	assert.Len(t, rs.Catalogue().Rules, 3)
}

func TestRuleSet_ActiveRulesInDefinitionOrder(t *testing.T) {
	inactive := rule("R2", 0.9, "d", "a")
	inactive.Status = domain.RuleStatusInactive
	rs := ruleSetOf(rule("R3", 0.9, "d", "a"), inactive, rule("R1", 0.9, "d", "a"))

	var ids []string
	for _, r := range rs.ActiveRules() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"R3", "R1"}, ids)
	assert.Len(t, rs.AllRules(), 3)
}
