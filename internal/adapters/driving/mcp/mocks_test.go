package mcp

import (
	"context"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
)

// mockConsultationService is a mock implementation of driving.ConsultationService.
type mockConsultationService struct {
	result    *domain.ConsultationResult
	goal      *domain.GoalResult
	err       error
	lastInput domain.ConsultationInput
	lastGoal  string
	lastFacts []string
}

func (m *mockConsultationService) Consult(
	_ context.Context,
	input domain.ConsultationInput,
) (*domain.ConsultationResult, error) {
	m.lastInput = input
	return m.result, m.err
}

func (m *mockConsultationService) ConsultBatch(
	_ context.Context,
	_ []domain.ConsultationInput,
) ([]*domain.ConsultationResult, error) {
	return nil, m.err
}

func (m *mockConsultationService) VerifyGoal(
	_ context.Context,
	goal string,
	facts []string,
) (*domain.GoalResult, error) {
	m.lastGoal = goal
	m.lastFacts = facts
	return m.goal, m.err
}

// mockKnowledgeService implements the parts of driving.KnowledgeService
// the server reads. Other methods panic through the nil embedded interface.
type mockKnowledgeService struct {
	driving.KnowledgeService
	rules []domain.Rule
	err   error
}

func (m *mockKnowledgeService) AllRules() []domain.Rule {
	return m.rules
}

func (m *mockKnowledgeService) Get(id string) (*domain.Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.rules {
		if m.rules[i].ID == id {
			r := m.rules[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockExplanationService implements driving.ExplanationService.
type mockExplanationService struct {
	rule *domain.RuleExplanation
	err  error
}

func (m *mockExplanationService) Why(_ string, _ []string) (*domain.WhyExplanation, error) {
	return nil, m.err
}

func (m *mockExplanationService) How(_ string, _ *domain.ConsultationResult) (*domain.HowExplanation, error) {
	return nil, m.err
}

func (m *mockExplanationService) ExplainRule(_ string) (*domain.RuleExplanation, error) {
	return m.rule, m.err
}

func (m *mockExplanationService) Compare(_ []domain.Conclusion) (*domain.Comparison, error) {
	return nil, m.err
}

func testRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:          "R001",
			Antecedents: []string{"daun_kuning_merata", "pertumbuhan_lambat"},
			Consequent: domain.Consequent{
				Diagnosis:      "defisiensi_nitrogen",
				Recommendation: map[string]any{"pupuk": "Urea"},
			},
			CF:      0.9,
			Status:  domain.RuleStatusActive,
			Version: "1.0",
		},
		{
			ID:          "R002",
			Antecedents: []string{"daun_tua_keunguan"},
			Consequent:  domain.Consequent{Diagnosis: "defisiensi_fosfor"},
			CF:          0.8,
			Status:      domain.RuleStatusDeprecated,
			Version:     "1.1",
		},
	}
}

func newTestServer(t interface {
	Helper()
	Fatalf(string, ...any)
}, ports *Ports, opts ...Option) *Server {
	t.Helper()
	server, err := NewServer(ports, opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return server
}
