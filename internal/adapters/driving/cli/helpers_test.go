package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driven/catalogue"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/diagnosa-cli/internal/core/services"
	"github.com/custodia-labs/diagnosa-cli/internal/reporters"
)

// testEnv holds the in-memory stores behind the wired services.
type testEnv struct {
	store  *memory.CatalogueStore
	log    *memory.ConsultationLog
	config *memory.ConfigStore
}

// setupCLI wires the commands to real services over the starter catalogue.
func setupCLI(t *testing.T) *testEnv {
	t.Helper()

	seed, err := catalogue.Seed()
	require.NoError(t, err)

	env := &testEnv{
		store:  memory.NewCatalogueStore(seed),
		log:    memory.NewConsultationLog(),
		config: memory.NewConfigStore(),
	}

	registry := reporters.NewRegistry()
	reporters.RegisterDefaults(registry)

	knowledge := services.NewKnowledgeService(env.store, registry)
	require.NoError(t, knowledge.Reload(context.Background()))
	settings := services.NewSettingsService(env.config)

	SetServices(Services{
		Knowledge:    knowledge,
		Consultation: services.NewConsultationService(knowledge, settings, env.log),
		Explanation:  services.NewExplanationService(knowledge),
		History:      services.NewHistoryService(env.log),
		Report:       services.NewReportService(registry),
		Settings:     settings,
	})
	SetLoadError(nil)

	t.Cleanup(func() {
		SetServices(Services{})
		SetLoadError(nil)
	})
	return env
}

// resetFlags restores every package-level flag variable to its default.
// Cobra keeps parsed values between Execute calls, and map flags merge into
// the existing map once set, so maps are reset to empty rather than nil.
func resetFlags() {
	verbose = false
	jsonOutput = false

	consultPhase = ""
	consultEvidence = map[string]string{}
	consultFormat = "text"
	consultBatch = ""

	explainPhase = ""
	historyLimit = 20

	rulesFilterCondition = ""
	rulesFilterDiagnosis = ""
	rulesFilterTags = nil
	rulesFilterMinCF = 0
	rulesFilterStatus = ""
	ruleAddID = ""
	ruleAddIf = nil
	ruleAddThen = ""
	ruleAddCF = 0
	ruleAddExplanation = ""
	ruleAddSet = map[string]string{}
	ruleAddTags = nil
	ruleAddStatus = "active"
	ruleAuthor = "tester"
	rulesExportFormat = "json"
	rulesExportOutput = ""
}

// executeCommand runs the root command with args and returns combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags()
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
