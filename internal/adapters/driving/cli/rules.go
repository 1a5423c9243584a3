package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

var (
	rulesFilterCondition string
	rulesFilterDiagnosis string
	rulesFilterTags      []string
	rulesFilterMinCF     float64
	rulesFilterStatus    string

	ruleAddID          string
	ruleAddIf          []string
	ruleAddThen        string
	ruleAddCF          float64
	ruleAddExplanation string
	ruleAddSet         map[string]string
	ruleAddTags        []string
	ruleAddStatus      string

	ruleAuthor string

	rulesExportFormat string
	rulesExportOutput string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the rule catalogue",
	Long:  `List, inspect, edit and back up the IF-THEN rules used for diagnosis.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules",
	RunE:  runRulesList,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <rule-id>",
	Short: "Show a rule and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a rule",
	Long: `Adds a rule, or updates it when the ID already exists. Updates bump the
rule version and keep its author and tags unless new ones are given.
The catalogue is backed up before it is rewritten.

Example:
  diagnosa rules add --id R010 --if daun_kuning,kerdil --then defisiensi_nitrogen \
    --cf 0.8 --set pupuk=Urea --set dosis="150 kg/ha"`,
	RunE: runRulesAdd,
}

var rulesDeprecateCmd = &cobra.Command{
	Use:   "deprecate <rule-id>",
	Short: "Deprecate a rule so it no longer fires",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDeprecate,
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <rule-id>",
	Short: "Delete a rule permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDelete,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report rules skipped when the catalogue was loaded",
	RunE:  runRulesValidate,
}

var rulesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalogue statistics",
	RunE:  runRulesStats,
}

var rulesSymptomsCmd = &cobra.Command{
	Use:   "symptoms",
	Short: "List observable symptoms by category",
	RunE:  runRulesSymptoms,
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalogue",
	RunE:  runRulesExport,
}

var rulesBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List catalogue backups",
	RunE:  runRulesBackups,
}

var rulesRestoreCmd = &cobra.Command{
	Use:   "restore <backup-name>",
	Short: "Restore the catalogue from a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesRestore,
}

var rulesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter catalogue",
	RunE:  runRulesInit,
}

func init() {
	rulesListCmd.Flags().StringVar(&rulesFilterCondition, "condition", "", "only rules with this condition")
	rulesListCmd.Flags().StringVar(&rulesFilterDiagnosis, "diagnosis", "", "only rules concluding this diagnosis")
	rulesListCmd.Flags().StringSliceVar(&rulesFilterTags, "tag", nil, "only rules carrying all of these tags")
	rulesListCmd.Flags().Float64Var(&rulesFilterMinCF, "min-cf", 0, "only rules with at least this CF")
	rulesListCmd.Flags().StringVar(&rulesFilterStatus, "status", "", "only rules with this status")

	rulesAddCmd.Flags().StringVar(&ruleAddID, "id", "", "rule ID (required)")
	rulesAddCmd.Flags().StringSliceVar(&ruleAddIf, "if", nil, "condition tokens (required)")
	rulesAddCmd.Flags().StringVar(&ruleAddThen, "then", "", "diagnosis token (required)")
	rulesAddCmd.Flags().Float64Var(&ruleAddCF, "cf", 0, "rule certainty factor in [0, 1]")
	rulesAddCmd.Flags().StringVar(&ruleAddExplanation, "explanation", "", "expert justification")
	rulesAddCmd.Flags().StringToStringVar(&ruleAddSet, "set", nil, "recommendation field (key=value)")
	rulesAddCmd.Flags().StringSliceVar(&ruleAddTags, "tags", nil, "rule tags")
	rulesAddCmd.Flags().StringVar(&ruleAddStatus, "status", string(domain.RuleStatusActive), "rule status")
	rulesAddCmd.Flags().StringVar(&ruleAuthor, "author", defaultAuthor(), "change author")
	rulesDeprecateCmd.Flags().StringVar(&ruleAuthor, "author", defaultAuthor(), "change author")

	rulesExportCmd.Flags().StringVarP(&rulesExportFormat, "format", "f", "json", "export format (json, markdown, csv)")
	rulesExportCmd.Flags().StringVarP(&rulesExportOutput, "output", "o", "", "write to file instead of stdout")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesDeprecateCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesStatsCmd)
	rulesCmd.AddCommand(rulesSymptomsCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesBackupsCmd)
	rulesCmd.AddCommand(rulesRestoreCmd)
	rulesCmd.AddCommand(rulesInitCmd)
	rootCmd.AddCommand(rulesCmd)
}

func defaultAuthor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "diagnosa"
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	if err := requireRules(); err != nil {
		return err
	}

	rules := knowledgeService.List(domain.RuleFilter{
		Condition: rulesFilterCondition,
		Diagnosis: rulesFilterDiagnosis,
		Tags:      rulesFilterTags,
		MinCF:     rulesFilterMinCF,
		Status:    domain.RuleStatus(rulesFilterStatus),
	})

	if jsonOutput {
		return printJSON(cmd, rules)
	}
	if len(rules) == 0 {
		cmd.Println("No rules found.")
		return nil
	}

	cmd.Printf("Rules (%d):\n\n", len(rules))
	for i := range rules {
		r := &rules[i]
		cmd.Printf("  [%s] %s (CF %.2f, %s)\n", r.ID, r.Consequent.Diagnosis, r.CF, r.Status)
		cmd.Printf("      IF %s\n", strings.Join(r.Antecedents, " AND "))
	}
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	if err := requireRules(); err != nil {
		return err
	}

	rule, err := knowledgeService.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get rule: %w", err)
	}
	history := knowledgeService.History(rule.ID)

	if jsonOutput {
		return printJSON(cmd, struct {
			Rule    *domain.Rule              `json:"rule"`
			History []domain.RuleHistoryEntry `json:"history"`
		}{rule, history})
	}

	cmd.Printf("Rule %s (v%s, %s)\n", rule.ID, rule.Version, rule.Status)
	cmd.Printf("  IF:   %s\n", strings.Join(rule.Antecedents, " AND "))
	cmd.Printf("  THEN: %s\n", rule.Consequent.Diagnosis)
	cmd.Printf("  CF:   %.2f (%s)\n", rule.CF, domain.ConfidenceLevel(rule.CF))
	keys := make([]string, 0, len(rule.Consequent.Recommendation))
	for k := range rule.Consequent.Recommendation {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %v\n", k, rule.Consequent.Recommendation[k])
	}
	if rule.Explanation != "" {
		cmd.Printf("  Explanation: %s\n", rule.Explanation)
	}
	if rule.Metadata.Author != "" {
		cmd.Printf("  Author: %s\n", rule.Metadata.Author)
	}
	if len(rule.Metadata.Tags) > 0 {
		cmd.Printf("  Tags: %s\n", strings.Join(rule.Metadata.Tags, ", "))
	}

	if len(history) > 0 {
		cmd.Println()
		cmd.Println("History:")
		for _, h := range history {
			cmd.Printf("  %s  %-10s v%s by %s\n", h.Timestamp.Format("2006-01-02 15:04"), h.Action, h.Version, h.Author)
		}
	}
	return nil
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	if err := requireRules(); err != nil {
		return err
	}
	if ruleAddID == "" || len(ruleAddIf) == 0 || ruleAddThen == "" {
		return errors.New("--id, --if and --then are required")
	}

	rule := domain.Rule{
		ID:          ruleAddID,
		Antecedents: splitTokens(ruleAddIf),
		Consequent: domain.Consequent{
			Diagnosis: ruleAddThen,
		},
		CF:          ruleAddCF,
		Explanation: ruleAddExplanation,
		Status:      domain.RuleStatus(ruleAddStatus),
		Metadata:    domain.RuleMetadata{Tags: ruleAddTags},
	}
	if len(ruleAddSet) > 0 {
		rule.Consequent.Recommendation = make(map[string]any, len(ruleAddSet))
		for k, v := range ruleAddSet {
			rule.Consequent.Recommendation[k] = parseValue(v)
		}
	}

	saved, err := knowledgeService.Upsert(cmd.Context(), rule, ruleAuthor)
	if err != nil {
		var invalid *domain.RuleValidationError
		if errors.As(err, &invalid) {
			cmd.PrintErrf("Rule %s is invalid:\n", invalid.RuleID)
			for _, reason := range invalid.Reasons {
				cmd.PrintErrf("  - %s\n", reason)
			}
		}
		return fmt.Errorf("failed to save rule: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, saved)
	}
	cmd.Printf("Saved rule %s (v%s)\n", saved.ID, saved.Version)
	return nil
}

// parseValue keeps numbers and booleans typed in recommendation fields.
func parseValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func runRulesDeprecate(cmd *cobra.Command, args []string) error {
	if err := requireRules(); err != nil {
		return err
	}
	if err := knowledgeService.Deprecate(cmd.Context(), args[0], ruleAuthor); err != nil {
		return fmt.Errorf("failed to deprecate rule: %w", err)
	}
	cmd.Printf("Deprecated rule %s\n", args[0])
	return nil
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	if err := requireRules(); err != nil {
		return err
	}
	if err := knowledgeService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	cmd.Printf("Deleted rule %s\n", args[0])
	return nil
}

func runRulesValidate(cmd *cobra.Command, _ []string) error {
	if err := requireRules(); err != nil {
		return err
	}

	warnings := knowledgeService.Warnings()
	if jsonOutput {
		return printJSON(cmd, warnings)
	}

	total := len(knowledgeService.AllRules())
	if len(warnings) == 0 {
		cmd.Printf("All %d rules are valid.\n", total)
		return nil
	}
	cmd.Printf("%d rules loaded, %d skipped:\n", total, len(warnings))
	for _, w := range warnings {
		cmd.Printf("  [%s] %s\n", w.RuleID, w.Reason)
	}
	return nil
}

func runRulesStats(cmd *cobra.Command, _ []string) error {
	if err := requireRules(); err != nil {
		return err
	}

	stats, err := knowledgeService.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, stats)
	}

	cmd.Println("Knowledge Base Statistics")
	cmd.Println("=========================")
	cmd.Printf("  Version:      %s\n", stats.Version)
	cmd.Printf("  Rules:        %d (%d active)\n", stats.TotalRules, stats.ActiveRules)
	cmd.Printf("  Skipped:      %d\n", stats.SkippedOnLoad)
	cmd.Printf("  CF mean:      %.3f\n", stats.MeanCF)
	cmd.Printf("  CF median:    %.3f\n", stats.MedianCF)
	cmd.Printf("  CF std dev:   %.3f\n", stats.StdDevCF)
	cmd.Printf("  CF buckets:   very high %d, high %d, medium %d, low %d\n",
		stats.CFDistribution.VeryHigh, stats.CFDistribution.High,
		stats.CFDistribution.Medium, stats.CFDistribution.Low)
	cmd.Printf("  Nutrients:    %d\n", stats.TotalNutrients)
	cmd.Printf("  Growth phases: %d\n", stats.TotalPhases)
	cmd.Printf("  Backups:      %d\n", stats.TotalBackups)
	printCounts(cmd, "By status", stats.ByStatus)
	printCounts(cmd, "By phase", stats.RulesByPhase)
	printCounts(cmd, "By diagnosis", stats.Diagnoses)
	return nil
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cmd.Printf("\n%s:\n", title)
	for _, k := range keys {
		cmd.Printf("  %-30s %d\n", k, counts[k])
	}
}

func runRulesSymptoms(cmd *cobra.Command, _ []string) error {
	if err := requireRules(); err != nil {
		return err
	}

	groups := knowledgeService.Symptoms()
	if jsonOutput {
		return printJSON(cmd, groups)
	}

	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		cmd.Printf("%s:\n", c)
		for _, s := range groups[c] {
			cmd.Printf("  - %s\n", s)
		}
	}
	return nil
}

func runRulesExport(cmd *cobra.Command, _ []string) error {
	if err := requireRules(); err != nil {
		return err
	}

	data, err := knowledgeService.Export(cmd.Context(), rulesExportFormat)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	if rulesExportOutput == "" {
		cmd.Print(string(data))
		return nil
	}
	if err := os.WriteFile(rulesExportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	cmd.Printf("Exported %d bytes to %s\n", len(data), rulesExportOutput)
	return nil
}

func runRulesBackups(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	backups, err := knowledgeService.Backups(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, backups)
	}
	if len(backups) == 0 {
		cmd.Println("No backups found.")
		return nil
	}
	for _, b := range backups {
		cmd.Printf("  %s  %s  %d bytes\n", b.Name, b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size)
	}
	return nil
}

// runRulesRestore works even when the current catalogue failed to load.
func runRulesRestore(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}
	if err := knowledgeService.Restore(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	loadErr = nil
	cmd.Printf("Restored catalogue from %s\n", args[0])
	return nil
}

func runRulesInit(cmd *cobra.Command, _ []string) error {
	if catalogueInit == nil {
		return errors.New("catalogue initialisation not available")
	}
	if err := catalogueInit(cmd.Context()); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("a catalogue already exists: %w", err)
		}
		return fmt.Errorf("failed to create catalogue: %w", err)
	}
	loadErr = nil
	cmd.Println("Created starter catalogue.")
	return nil
}
