package domain

import "time"

// DefaultEvidenceCF is used for facts supplied without a confidence.
const DefaultEvidenceCF = 0.8

// ConsultationInput is the engine's input contract.
type ConsultationInput struct {
	// Facts are the observed symptom tokens.
	Facts []string `json:"facts"`

	// EvidenceCF optionally weights individual facts. Missing entries
	// fall back to the configured default evidence CF.
	EvidenceCF map[string]float64 `json:"evidence_cf,omitempty"`

	// Phase is the growth phase token, asserted at CF 1.0.
	Phase string `json:"phase_token,omitempty"`
}

// Conclusion is produced once per rule firing. It is never mutated afterwards.
type Conclusion struct {
	RuleID            string         `json:"rule_id"`
	Diagnosis         string         `json:"diagnosis"`
	CF                float64        `json:"cf"`
	Interpretation    string         `json:"cf_interpretation"`
	Category          string         `json:"cf_category"`
	MatchedConditions []string       `json:"matched_conditions"`
	Conditions        []string       `json:"conditions"`
	Recommendation    map[string]any `json:"recommendation,omitempty"`
	Explanation       string         `json:"explanation,omitempty"`
}

// ReasoningStep is one entry of the audit trail, in firing order.
type ReasoningStep struct {
	Step         int                `json:"step"`
	RuleID       string             `json:"rule"`
	Conditions   []string           `json:"conditions"`
	ConditionsCF map[string]float64 `json:"conditions_cf"`
	Conclusion   string             `json:"conclusion"`
	CF           float64            `json:"cf"`
	CombinedCF   float64            `json:"combined_cf"`
	Narrative    string             `json:"reasoning"`
}

// EngineState is the lifecycle of one forward-chaining run.
type EngineState string

// Engine states.
const (
	EngineIdle      EngineState = "idle"
	EngineIterating EngineState = "iterating"
	EngineFixpoint  EngineState = "fixpoint"
	EngineCapped    EngineState = "capped"
)

// ConsultationResult is the engine's output contract.
// Downstream collaborators depend on this exact shape.
type ConsultationResult struct {
	ID              string             `json:"consultation_id,omitempty"`
	Timestamp       time.Time          `json:"timestamp,omitempty"`
	Conclusions     []Conclusion       `json:"conclusions"`
	AllConclusions  []Conclusion       `json:"all_conclusions"`
	UsedRules       []string           `json:"used_rules"`
	ReasoningPath   []ReasoningStep    `json:"reasoning_path"`
	WorkingMemory   map[string]float64 `json:"working_memory"`
	TotalIterations int                `json:"total_iterations"`
	State           EngineState        `json:"state,omitempty"`
	Input           ConsultationInput  `json:"input"`
}

// Top returns the highest ranked conclusion, if any.
func (r *ConsultationResult) Top() (Conclusion, bool) {
	if len(r.AllConclusions) == 0 {
		return Conclusion{}, false
	}
	return r.AllConclusions[0], true
}

// ConsultationRecord is a logged consultation.
type ConsultationRecord struct {
	ID              string             `json:"consultation_id"`
	Timestamp       time.Time          `json:"timestamp"`
	Facts           []string           `json:"facts"`
	Phase           string             `json:"phase_token,omitempty"`
	EvidenceCF      map[string]float64 `json:"evidence_cf,omitempty"`
	TopDiagnosis    string             `json:"top_diagnosis,omitempty"`
	TopCF           float64            `json:"top_cf"`
	Conclusions     []Conclusion       `json:"conclusions"`
	UsedRules       []string           `json:"used_rules"`
	TotalIterations int                `json:"total_iterations"`
}

// NewConsultationRecord flattens a result into a log record.
func NewConsultationRecord(result *ConsultationResult) ConsultationRecord {
	rec := ConsultationRecord{
		ID:              result.ID,
		Timestamp:       result.Timestamp,
		Facts:           result.Input.Facts,
		Phase:           result.Input.Phase,
		EvidenceCF:      result.Input.EvidenceCF,
		Conclusions:     result.Conclusions,
		UsedRules:       result.UsedRules,
		TotalIterations: result.TotalIterations,
	}
	if top, ok := result.Top(); ok {
		rec.TopDiagnosis = top.Diagnosis
		rec.TopCF = top.CF
	}
	return rec
}

// ConsultationStats summarises the consultation log.
type ConsultationStats struct {
	Total         int            `json:"total"`
	NoConclusion  int            `json:"no_conclusion"`
	ByDiagnosis   map[string]int `json:"by_diagnosis"`
	AverageTopCF  float64        `json:"average_top_cf"`
	MedianTopCF   float64        `json:"median_top_cf"`
	RuleUsage     map[string]int `json:"rule_usage"`
	MostUsedRules []RuleUsage    `json:"most_used_rules"`
	LastTimestamp time.Time      `json:"last_timestamp,omitempty"`
}

// RuleUsage counts how often a rule fired across logged consultations.
type RuleUsage struct {
	RuleID string `json:"rule_id"`
	Count  int    `json:"count"`
}
