package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var explainPhase string

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain rules and conclusions",
	Long:  `Answers why a condition matters, how a diagnosis was reached, and what a rule means.`,
}

var explainWhyCmd = &cobra.Command{
	Use:   "why <condition> [fact...]",
	Short: "Explain why a condition is asked about",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplainWhy,
}

var explainHowCmd = &cobra.Command{
	Use:   "how <diagnosis> [fact...]",
	Short: "Explain how a diagnosis is reached from the facts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplainHow,
}

var explainRuleCmd = &cobra.Command{
	Use:   "rule <rule-id>",
	Short: "Describe a rule in plain language",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplainRule,
}

var explainCompareCmd = &cobra.Command{
	Use:   "compare [fact...]",
	Short: "Compare the competing diagnoses for the facts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplainCompare,
}

func init() {
	explainHowCmd.Flags().StringVarP(&explainPhase, "phase", "p", "", "growth phase token")
	explainCompareCmd.Flags().StringVarP(&explainPhase, "phase", "p", "", "growth phase token")

	explainCmd.AddCommand(explainWhyCmd)
	explainCmd.AddCommand(explainHowCmd)
	explainCmd.AddCommand(explainRuleCmd)
	explainCmd.AddCommand(explainCompareCmd)
	rootCmd.AddCommand(explainCmd)
}

func requireExplanation() error {
	if err := requireRules(); err != nil {
		return err
	}
	if explanationService == nil {
		return errors.New("explanation service not configured")
	}
	return nil
}

func runExplainWhy(cmd *cobra.Command, args []string) error {
	if err := requireExplanation(); err != nil {
		return err
	}

	why, err := explanationService.Why(args[0], splitTokens(args[1:]))
	if err != nil {
		return fmt.Errorf("failed to explain: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, why)
	}

	cmd.Println(why.Answer)
	for _, r := range why.Rules {
		cmd.Printf("\n[%s] -> %s (CF %.2f)\n", r.RuleID, r.Diagnosis, r.CF)
		cmd.Printf("  Satisfied: %s\n", joinOrNone(r.Satisfied))
		cmd.Printf("  Missing:   %s\n", joinOrNone(r.Missing))
	}
	return nil
}

// runExplainHow runs a consultation and explains the requested diagnosis.
func runExplainHow(cmd *cobra.Command, args []string) error {
	if err := requireExplanation(); err != nil {
		return err
	}
	if consultationService == nil {
		return errors.New("consultation service not configured")
	}

	input, err := buildInput(args[1:], explainPhase, nil)
	if err != nil {
		return err
	}
	result, err := consultationService.Consult(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("consultation failed: %w", err)
	}

	how, err := explanationService.How(args[0], result)
	if err != nil {
		return fmt.Errorf("failed to explain: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, how)
	}

	cmd.Println(how.Answer)
	for _, step := range how.Steps {
		cmd.Printf("\n%d. [%s] IF %s THEN %s (CF %.2f)\n",
			step.Step, step.RuleID, strings.Join(step.Conditions, " AND "), step.Conclusion, step.CF)
		if step.RuleExplanation != "" {
			cmd.Printf("   %s\n", step.RuleExplanation)
		}
	}
	return nil
}

func runExplainRule(cmd *cobra.Command, args []string) error {
	if err := requireExplanation(); err != nil {
		return err
	}

	exp, err := explanationService.ExplainRule(args[0])
	if err != nil {
		return fmt.Errorf("failed to explain rule: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, exp)
	}

	cmd.Printf("Rule %s\n", exp.RuleID)
	cmd.Println(exp.NaturalLanguage)
	cmd.Printf("Certainty: %s (%s)\n", exp.CFPercentage, exp.CFAssessment)
	if exp.Valid {
		cmd.Println("Structure: valid")
		return nil
	}
	cmd.Println("Structure: invalid")
	for _, p := range exp.Problems {
		cmd.Printf("  - %s\n", p)
	}
	return nil
}

func runExplainCompare(cmd *cobra.Command, args []string) error {
	if err := requireExplanation(); err != nil {
		return err
	}
	if consultationService == nil {
		return errors.New("consultation service not configured")
	}

	input, err := buildInput(args, explainPhase, nil)
	if err != nil {
		return err
	}
	result, err := consultationService.Consult(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("consultation failed: %w", err)
	}

	cmp, err := explanationService.Compare(result.AllConclusions)
	if err != nil {
		return fmt.Errorf("failed to compare: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, cmp)
	}

	cmd.Printf("Top: %s (CF %.2f)\n", cmp.TopDiagnosis, cmp.TopCF)
	for _, e := range cmp.Entries {
		cmd.Printf("  %s (CF %.2f, %.2f lower)\n", e.Diagnosis, e.CF, e.Difference)
	}
	cmd.Println(cmp.Summary)
	return nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
