package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

func TestGoalCmd_Provable(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "goal", "defisiensi_fosfor", "daun_tua_keunguan", "pertumbuhan_akar_terhambat")

	require.NoError(t, err)
	assert.Contains(t, out, "goal is provable from the given facts")
	assert.Contains(t, out, "[R002] CF 0.80 - provable")
	assert.NotContains(t, out, "Missing:")
}

func TestGoalCmd_MissingFacts(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "goal", "defisiensi_nitrogen", "fase_vegetatif_lanjut,daun_kuning_merata")

	require.NoError(t, err)
	assert.Contains(t, out, "goal cannot be proven from the given facts")
	assert.Contains(t, out, "[R001] CF 0.90 - missing facts")
	assert.Contains(t, out, "Satisfied: fase_vegetatif_lanjut, daun_kuning_merata")
	assert.Contains(t, out, "Missing:   pertumbuhan_lambat")
}

func TestGoalCmd_UnknownGoal(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "goal", "defisiensi_boron")

	require.NoError(t, err)
	assert.Contains(t, out, `no rule concludes "defisiensi_boron"`)
	assert.NotContains(t, out, "Required:")
}

func TestGoalCmd_JSON(t *testing.T) {
	setupCLI(t)

	out, err := executeCommand(t, "goal", "defisiensi_kalsium", "ujung_buah_busuk", "--json")
	require.NoError(t, err)

	var result domain.GoalResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Provable)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "R004", result.Candidates[0].RuleID)
	assert.Equal(t, []string{"fase_generatif_lanjut"}, result.Candidates[0].Missing)
}

func TestGoalCmd_RequiresGoal(t *testing.T) {
	setupCLI(t)

	_, err := executeCommand(t, "goal")

	require.Error(t, err)
}
