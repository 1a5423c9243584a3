package domain

// CFDistribution buckets rule CFs.
type CFDistribution struct {
	VeryHigh int `json:"very_high"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// KnowledgeStats summarises the rule catalogue.
type KnowledgeStats struct {
	Version        string         `json:"version"`
	TotalRules     int            `json:"total_rules"`
	ActiveRules    int            `json:"active_rules"`
	RulesByPhase   map[string]int `json:"rules_by_phase"`
	Diagnoses      map[string]int `json:"diagnoses_distribution"`
	CFDistribution CFDistribution `json:"cf_distribution"`
	ByStatus       map[string]int `json:"status_distribution"`
	MeanCF         float64        `json:"mean_cf"`
	MedianCF       float64        `json:"median_cf"`
	StdDevCF       float64        `json:"stddev_cf"`
	TotalNutrients int            `json:"total_nutrients"`
	TotalPhases    int            `json:"total_growth_phases"`
	TotalBackups   int            `json:"total_backups"`
	SkippedOnLoad  int            `json:"skipped_on_load"`
}

// SymptomGroups groups observable condition tokens by category.
type SymptomGroups map[string][]string
