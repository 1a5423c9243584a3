package domain

// WhyRule is a rule that still needs the asked-about condition.
type WhyRule struct {
	RuleID    string   `json:"rule_id"`
	Diagnosis string   `json:"diagnosis"`
	Satisfied []string `json:"satisfied_conditions"`
	Missing   []string `json:"missing_conditions"`
	CF        float64  `json:"cf"`
	Rationale string   `json:"explanation,omitempty"`
}

// WhyExplanation answers "why is this condition being asked?".
type WhyExplanation struct {
	Question           string    `json:"question"`
	Answer             string    `json:"answer"`
	Rules              []WhyRule `json:"relevant_rules"`
	PotentialDiagnoses []string  `json:"potential_diagnoses,omitempty"`
}

// HowStep is a formatted reasoning step.
type HowStep struct {
	Step            int            `json:"step_number"`
	RuleID          string         `json:"rule_id"`
	Conditions      []string       `json:"if_conditions"`
	Conclusion      string         `json:"then_conclusion"`
	CF              float64        `json:"certainty_factor"`
	RuleExplanation string         `json:"rule_explanation,omitempty"`
	Recommendation  map[string]any `json:"recommendation,omitempty"`
}

// HowExplanation answers "how was this conclusion reached?".
type HowExplanation struct {
	Conclusion string    `json:"conclusion"`
	Answer     string    `json:"answer"`
	Steps      []HowStep `json:"steps"`
	RulesUsed  []string  `json:"rules_used"`
}

// RuleExplanation describes a single rule in natural language.
type RuleExplanation struct {
	RuleID          string   `json:"rule_id"`
	Rule            Rule     `json:"rule"`
	NaturalLanguage string   `json:"natural_language"`
	CFPercentage    string   `json:"cf_percentage"`
	CFAssessment    string   `json:"cf_interpretation"`
	Valid           bool     `json:"valid"`
	Problems        []string `json:"problems,omitempty"`
}

// ComparisonEntry contrasts one diagnosis with the top diagnosis.
type ComparisonEntry struct {
	Diagnosis    string   `json:"diagnosis"`
	CF           float64  `json:"cf"`
	Difference   float64  `json:"cf_difference"`
	SharedConds  []string `json:"shared_conditions"`
	UniqueToTop  []string `json:"unique_to_top"`
	UniqueToThis []string `json:"unique_to_this"`
}

// Comparison contrasts competing conclusions.
type Comparison struct {
	TopDiagnosis string            `json:"top_diagnosis"`
	TopCF        float64           `json:"top_cf"`
	Entries      []ComparisonEntry `json:"differences"`
	Summary      string            `json:"summary"`
}
