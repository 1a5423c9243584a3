package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

func TestServer_handleConsult(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked conclusions", func(t *testing.T) {
		consultation := &mockConsultationService{
			result: &domain.ConsultationResult{
				ID: "c-1",
				Conclusions: []domain.Conclusion{{
					RuleID:         "R001",
					Diagnosis:      "defisiensi_nitrogen",
					CF:             0.72,
					Interpretation: "convincing",
					Category:       "MODERATE",
					Recommendation: map[string]any{"pupuk": "Urea"},
				}},
				UsedRules: []string{"R001"},
				ReasoningPath: []domain.ReasoningStep{{
					Step:      1,
					RuleID:    "R001",
					Narrative: "IF daun_kuning_merata THEN defisiensi_nitrogen",
				}},
				TotalIterations: 2,
			},
		}
		server := newTestServer(t, &Ports{Consultation: consultation, Knowledge: &mockKnowledgeService{}})

		input := ConsultInput{
			Facts:      []string{"daun_kuning_merata"},
			EvidenceCF: map[string]float64{"daun_kuning_merata": 0.8},
			Phase:      "fase_vegetatif",
		}
		_, output, err := server.handleConsult(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "c-1", output.ConsultationID)
		require.Len(t, output.Conclusions, 1)
		assert.Equal(t, "defisiensi_nitrogen", output.Conclusions[0].Diagnosis)
		assert.Equal(t, 0.72, output.Conclusions[0].CF)
		assert.Equal(t, "MODERATE", output.Conclusions[0].Category)
		assert.Equal(t, "Urea", output.Conclusions[0].Recommendation["pupuk"])
		assert.Equal(t, []string{"R001"}, output.UsedRules)
		assert.Equal(t, []string{"IF daun_kuning_merata THEN defisiensi_nitrogen"}, output.ReasoningPath)
		assert.Equal(t, 2, output.TotalIterations)

		assert.Equal(t, "fase_vegetatif", consultation.lastInput.Phase)
		assert.Equal(t, 0.8, consultation.lastInput.EvidenceCF["daun_kuning_merata"])
	})

	t.Run("empty result has non-nil slices", func(t *testing.T) {
		consultation := &mockConsultationService{result: &domain.ConsultationResult{}}
		server := newTestServer(t, &Ports{Consultation: consultation, Knowledge: &mockKnowledgeService{}})

		_, output, err := server.handleConsult(ctx, nil, ConsultInput{})

		require.NoError(t, err)
		assert.NotNil(t, output.Conclusions)
		assert.NotNil(t, output.UsedRules)
		assert.NotNil(t, output.ReasoningPath)
	})

	t.Run("returns error on invalid evidence", func(t *testing.T) {
		consultation := &mockConsultationService{err: &domain.InvalidCFError{Value: 2}}
		server := newTestServer(t, &Ports{Consultation: consultation, Knowledge: &mockKnowledgeService{}})

		_, _, err := server.handleConsult(ctx, nil, ConsultInput{Facts: []string{"a"}})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidCF)
	})
}

func TestConsultInput_DecodesPhaseToken(t *testing.T) {
	var input ConsultInput
	err := json.Unmarshal([]byte(`{"facts":["buah_kecil"],"phase_token":"fase_generatif"}`), &input)

	require.NoError(t, err)
	assert.Equal(t, "fase_generatif", input.Phase)
}

func TestServer_handleVerifyGoal(t *testing.T) {
	ctx := context.Background()

	t.Run("returns candidates", func(t *testing.T) {
		consultation := &mockConsultationService{
			goal: &domain.GoalResult{
				Goal:     "defisiensi_nitrogen",
				Provable: false,
				Message:  "missing facts",
				Candidates: []domain.GoalCandidate{{
					RuleID:  "R001",
					CF:      0.9,
					Missing: []string{"pertumbuhan_lambat"},
				}},
			},
		}
		server := newTestServer(t, &Ports{Consultation: consultation, Knowledge: &mockKnowledgeService{}})

		input := VerifyGoalInput{Goal: "defisiensi_nitrogen", Facts: []string{"daun_kuning_merata"}}
		_, output, err := server.handleVerifyGoal(ctx, nil, input)

		require.NoError(t, err)
		assert.False(t, output.Provable)
		require.Len(t, output.Candidates, 1)
		assert.Equal(t, []string{"pertumbuhan_lambat"}, output.Candidates[0].Missing)
		assert.Equal(t, "defisiensi_nitrogen", consultation.lastGoal)
		assert.Equal(t, []string{"daun_kuning_merata"}, consultation.lastFacts)
	})

	t.Run("returns error", func(t *testing.T) {
		consultation := &mockConsultationService{err: domain.ErrInvalidInput}
		server := newTestServer(t, &Ports{Consultation: consultation, Knowledge: &mockKnowledgeService{}})

		_, _, err := server.handleVerifyGoal(ctx, nil, VerifyGoalInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleExplainRule(t *testing.T) {
	ctx := context.Background()

	t.Run("describes rule", func(t *testing.T) {
		explanation := &mockExplanationService{rule: &domain.RuleExplanation{
			RuleID:          "R001",
			NaturalLanguage: "IF a THEN b",
			CFPercentage:    "90%",
			CFAssessment:    "Very High",
			Valid:           true,
		}}
		server := newTestServer(t, &Ports{
			Consultation: &mockConsultationService{},
			Knowledge:    &mockKnowledgeService{},
			Explanation:  explanation,
		})

		_, output, err := server.handleExplainRule(ctx, nil, ExplainRuleInput{RuleID: "R001"})

		require.NoError(t, err)
		assert.Equal(t, "IF a THEN b", output.NaturalLanguage)
		assert.Equal(t, "90%", output.CFPercentage)
		assert.True(t, output.Valid)
		assert.NotNil(t, output.Problems)
	})

	t.Run("unknown rule", func(t *testing.T) {
		explanation := &mockExplanationService{err: domain.ErrNotFound}
		server := newTestServer(t, &Ports{
			Consultation: &mockConsultationService{},
			Knowledge:    &mockKnowledgeService{},
			Explanation:  explanation,
		})

		_, _, err := server.handleExplainRule(ctx, nil, ExplainRuleInput{RuleID: "R999"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
