package domain

// GoalCandidate is one rule that could establish a goal.
type GoalCandidate struct {
	RuleID         string         `json:"rule_id"`
	Required       []string       `json:"required_facts"`
	Satisfied      []string       `json:"satisfied_facts"`
	Missing        []string       `json:"missing_facts"`
	CanProve       bool           `json:"can_prove"`
	CF             float64        `json:"cf"`
	Recommendation map[string]any `json:"recommendation,omitempty"`
}

// GoalResult is the outcome of goal verification.
type GoalResult struct {
	Goal       string          `json:"goal"`
	Provable   bool            `json:"provable"`
	Candidates []GoalCandidate `json:"candidates"`
	Message    string          `json:"message"`
}
