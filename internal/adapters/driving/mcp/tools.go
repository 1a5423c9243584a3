package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// ConsultInput is the input schema for the consult tool.
type ConsultInput struct {
	Facts      []string           `json:"facts" jsonschema:"observed symptom tokens, e.g. daun_kuning_merata"`
	EvidenceCF map[string]float64 `json:"evidence_cf,omitempty" jsonschema:"optional certainty per symptom in [-1, 1]"`
	Phase      string             `json:"phase_token,omitempty" jsonschema:"optional growth phase token, e.g. fase_vegetatif"`
}

// ConsultOutput is the output schema for the consult tool.
type ConsultOutput struct {
	ConsultationID  string             `json:"consultation_id"`
	Conclusions     []ConclusionOutput `json:"conclusions"`
	UsedRules       []string           `json:"used_rules"`
	ReasoningPath   []string           `json:"reasoning_path"`
	TotalIterations int                `json:"total_iterations"`
}

// ConclusionOutput represents a single ranked conclusion.
type ConclusionOutput struct {
	RuleID         string         `json:"rule_id"`
	Diagnosis      string         `json:"diagnosis"`
	CF             float64        `json:"cf"`
	Interpretation string         `json:"interpretation"`
	Category       string         `json:"category"`
	Recommendation map[string]any `json:"recommendation,omitempty"`
}

// VerifyGoalInput is the input schema for the verify_goal tool.
type VerifyGoalInput struct {
	Goal  string   `json:"goal" jsonschema:"diagnosis token to prove"`
	Facts []string `json:"facts" jsonschema:"known fact tokens"`
}

// VerifyGoalOutput is the output schema for the verify_goal tool.
type VerifyGoalOutput struct {
	Goal       string            `json:"goal"`
	Provable   bool              `json:"provable"`
	Message    string            `json:"message"`
	Candidates []CandidateOutput `json:"candidates"`
}

// CandidateOutput is one rule that concludes the goal.
type CandidateOutput struct {
	RuleID   string   `json:"rule_id"`
	CanProve bool     `json:"can_prove"`
	CF       float64  `json:"cf"`
	Missing  []string `json:"missing_facts"`
}

// ExplainRuleInput is the input schema for the explain_rule tool.
type ExplainRuleInput struct {
	RuleID string `json:"rule_id" jsonschema:"rule identifier, e.g. R001"`
}

// ExplainRuleOutput is the output schema for the explain_rule tool.
type ExplainRuleOutput struct {
	RuleID          string   `json:"rule_id"`
	NaturalLanguage string   `json:"natural_language"`
	CFPercentage    string   `json:"cf_percentage"`
	Assessment      string   `json:"assessment"`
	Valid           bool     `json:"valid"`
	Problems        []string `json:"problems"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "consult",
		Description: "Diagnose chili nutrient problems from observed symptoms using certainty-factor forward chaining",
	}, s.handleConsult)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "verify_goal",
		Description: "Check whether a diagnosis can be proven from the known facts and list missing facts",
	}, s.handleVerifyGoal)

	if s.ports.Explanation != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "explain_rule",
			Description: "Describe a diagnostic rule in plain language",
		}, s.handleExplainRule)
	}
}

// handleConsult handles the consult tool invocation.
func (s *Server) handleConsult(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConsultInput,
) (*mcp.CallToolResult, ConsultOutput, error) {
	result, err := s.ports.Consultation.Consult(ctx, domain.ConsultationInput{
		Facts:      input.Facts,
		EvidenceCF: input.EvidenceCF,
		Phase:      input.Phase,
	})
	if err != nil {
		return nil, ConsultOutput{}, err
	}

	output := ConsultOutput{
		ConsultationID:  result.ID,
		Conclusions:     make([]ConclusionOutput, len(result.Conclusions)),
		UsedRules:       append([]string{}, result.UsedRules...),
		ReasoningPath:   make([]string, len(result.ReasoningPath)),
		TotalIterations: result.TotalIterations,
	}
	for i, c := range result.Conclusions {
		output.Conclusions[i] = ConclusionOutput{
			RuleID:         c.RuleID,
			Diagnosis:      c.Diagnosis,
			CF:             c.CF,
			Interpretation: c.Interpretation,
			Category:       c.Category,
			Recommendation: c.Recommendation,
		}
	}
	for i, step := range result.ReasoningPath {
		output.ReasoningPath[i] = step.Narrative
	}

	return nil, output, nil
}

// handleVerifyGoal handles the verify_goal tool invocation.
func (s *Server) handleVerifyGoal(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VerifyGoalInput,
) (*mcp.CallToolResult, VerifyGoalOutput, error) {
	result, err := s.ports.Consultation.VerifyGoal(ctx, input.Goal, input.Facts)
	if err != nil {
		return nil, VerifyGoalOutput{}, err
	}

	output := VerifyGoalOutput{
		Goal:       result.Goal,
		Provable:   result.Provable,
		Message:    result.Message,
		Candidates: make([]CandidateOutput, len(result.Candidates)),
	}
	for i, c := range result.Candidates {
		output.Candidates[i] = CandidateOutput{
			RuleID:   c.RuleID,
			CanProve: c.CanProve,
			CF:       c.CF,
			Missing:  append([]string{}, c.Missing...),
		}
	}
	return nil, output, nil
}

// handleExplainRule handles the explain_rule tool invocation.
func (s *Server) handleExplainRule(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ExplainRuleInput,
) (*mcp.CallToolResult, ExplainRuleOutput, error) {
	exp, err := s.ports.Explanation.ExplainRule(input.RuleID)
	if err != nil {
		return nil, ExplainRuleOutput{}, err
	}

	return nil, ExplainRuleOutput{
		RuleID:          exp.RuleID,
		NaturalLanguage: exp.NaturalLanguage,
		CFPercentage:    exp.CFPercentage,
		Assessment:      exp.CFAssessment,
		Valid:           exp.Valid,
		Problems:        append([]string{}, exp.Problems...),
	}, nil
}
