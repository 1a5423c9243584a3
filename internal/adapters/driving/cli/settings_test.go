package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsCmd_Show(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Engine]")
	assert.Contains(t, out, "Top K:               5")
	assert.Contains(t, out, "[Catalogue]")
	assert.Contains(t, out, "[Log]")
}

func TestSettingsCmd_Set(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "settings", "set", "engine.top_k", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Set engine.top_k = 5")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, settings.Engine.TopK)
}

func TestSettingsCmd_SetRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown key", key: "engine.speed", value: "fast"},
		{name: "zero top k", key: "engine.top_k", value: "0"},
		{name: "cf out of range", key: "engine.default_evidence_cf", value: "2"},
		{name: "unknown policy", key: "engine.match_policy", value: "fuzzy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLI(t)

			_, err := executeCommand(t, "settings", "set", tt.key, tt.value)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "Known keys:")
		})
	}
}

func TestSettingsCmd_SetCFKeepsSentinel(t *testing.T) {
	setupCLI(t)

	_, err := executeCommand(t, "settings", "set", "engine.default_evidence_cf", "-3")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidCF))
}

func TestSettingsCmd_Wizard(t *testing.T) {
	setupCLI(t)
	rootCmd.SetIn(strings.NewReader("2\n2\n0.6\n4\n"))
	defer rootCmd.SetIn(nil)

	out, err := executeCommand(t, "settings", "wizard")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings saved.")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.MatchLenient, settings.Engine.MatchPolicy)
	assert.Equal(t, domain.ConflictOverwrite, settings.Engine.ConflictPolicy)
	assert.InDelta(t, 0.6, settings.Engine.DefaultEvidenceCF, 1e-9)
	assert.Equal(t, 4, settings.Engine.TopK)
}

func TestSettingsCmd_WizardDefaults(t *testing.T) {
	setupCLI(t)
	rootCmd.SetIn(strings.NewReader(""))
	defer rootCmd.SetIn(nil)

	_, err := executeCommand(t, "settings", "wizard")
	require.NoError(t, err)

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEngineSettings(), settings.Engine)
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	SetServices(Services{})

	_, err := executeCommand(t, "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
