package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsultationResult_Top(t *testing.T) {
	var empty ConsultationResult
	_, ok := empty.Top()
	assert.False(t, ok)

	r := ConsultationResult{
		AllConclusions: []Conclusion{
			{RuleID: "R1", Diagnosis: "defisiensi_N", CF: 0.7},
			{RuleID: "R2", Diagnosis: "defisiensi_K", CF: 0.5},
		},
	}
	top, ok := r.Top()
	assert.True(t, ok)
	assert.Equal(t, "R1", top.RuleID)
}

func TestNewConsultationRecord(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &ConsultationResult{
		ID:        "c-1",
		Timestamp: now,
		Input: ConsultationInput{
			Facts:      []string{"daun_kuning"},
			EvidenceCF: map[string]float64{"daun_kuning": 0.9},
			Phase:      "fase_vegetatif",
		},
		Conclusions:     []Conclusion{{RuleID: "R1", Diagnosis: "defisiensi_N", CF: 0.72}},
		AllConclusions:  []Conclusion{{RuleID: "R1", Diagnosis: "defisiensi_N", CF: 0.72}},
		UsedRules:       []string{"R1"},
		TotalIterations: 2,
	}

	rec := NewConsultationRecord(r)
	assert.Equal(t, "c-1", rec.ID)
	assert.Equal(t, now, rec.Timestamp)
	assert.Equal(t, "fase_vegetatif", rec.Phase)
	assert.Equal(t, "defisiensi_N", rec.TopDiagnosis)
	assert.InDelta(t, 0.72, rec.TopCF, 1e-9)
	assert.Equal(t, []string{"R1"}, rec.UsedRules)
	assert.Equal(t, 2, rec.TotalIterations)
}

func TestNewConsultationRecord_NoConclusion(t *testing.T) {
	rec := NewConsultationRecord(&ConsultationResult{ID: "c-2"})
	assert.Empty(t, rec.TopDiagnosis)
	assert.Zero(t, rec.TopCF)
}
