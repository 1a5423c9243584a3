package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMatchPolicy_IsValid tests all valid and invalid match policies
func TestMatchPolicy_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		policy   MatchPolicy
		expected bool
	}{
		{name: "strict is valid", policy: MatchStrict, expected: true},
		{name: "lenient is valid", policy: MatchLenient, expected: true},
		{name: "empty string is invalid", policy: MatchPolicy(""), expected: false},
		{name: "unknown policy is invalid", policy: MatchPolicy("fuzzy"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.policy.IsValid())
		})
	}
}

func TestMatchPolicy_Description(t *testing.T) {
	assert.Equal(t, "Strict (all conditions required)", MatchStrict.Description())
	assert.Equal(t, "Lenient (all but one condition required)", MatchLenient.Description())
	assert.Equal(t, "Unknown", MatchPolicy("x").Description())
	assert.Equal(t, "strict", MatchStrict.String())
}

// TestConflictPolicy_IsValid tests all valid and invalid conflict policies
func TestConflictPolicy_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		policy   ConflictPolicy
		expected bool
	}{
		{name: "combine is valid", policy: ConflictCombine, expected: true},
		{name: "overwrite is valid", policy: ConflictOverwrite, expected: true},
		{name: "empty string is invalid", policy: ConflictPolicy(""), expected: false},
		{name: "unknown policy is invalid", policy: ConflictPolicy("max"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.policy.IsValid())
		})
	}
}

func TestConflictPolicy_Description(t *testing.T) {
	assert.Equal(t, "Combine (merge certainty factors)", ConflictCombine.Description())
	assert.Equal(t, "Overwrite (latest firing wins)", ConflictOverwrite.Description())
	assert.Equal(t, "Unknown", ConflictPolicy("x").Description())
}

// TestDefaultAppSettings tests default values
func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 50, s.Engine.MaxIterations)
	assert.Equal(t, 5, s.Engine.TopK)
	assert.InDelta(t, 0.8, s.Engine.DefaultEvidenceCF, 1e-9)
	assert.Equal(t, MatchStrict, s.Engine.MatchPolicy)
	assert.Equal(t, ConflictCombine, s.Engine.ConflictPolicy)
	assert.True(t, s.Log.Enabled)
	assert.False(t, s.Catalogue.Watch)
	require.NoError(t, s.Engine.Validate())
}

func TestEngineSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineSettings)
		want   error
	}{
		{name: "zero iterations", mutate: func(e *EngineSettings) { e.MaxIterations = 0 }, want: ErrInvalidInput},
		{name: "negative top k", mutate: func(e *EngineSettings) { e.TopK = -1 }, want: ErrInvalidInput},
		{name: "evidence cf above one", mutate: func(e *EngineSettings) { e.DefaultEvidenceCF = 1.2 }, want: ErrInvalidCF},
		{name: "unknown match policy", mutate: func(e *EngineSettings) { e.MatchPolicy = "any" }, want: ErrInvalidInput},
		{name: "unknown conflict policy", mutate: func(e *EngineSettings) { e.ConflictPolicy = "max" }, want: ErrInvalidInput},
		{name: "lenient overwrite is fine", mutate: func(e *EngineSettings) {
			e.MatchPolicy = MatchLenient
			e.ConflictPolicy = ConflictOverwrite
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DefaultEngineSettings()
			tt.mutate(&e)
			err := e.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
