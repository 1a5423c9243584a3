package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

var goalCmd = &cobra.Command{
	Use:   "goal <diagnosis> [fact...]",
	Short: "Check whether a diagnosis can be proven",
	Long: `Verifies a goal diagnosis against the known facts without running a
consultation. Lists every rule that concludes the diagnosis, which of its
conditions are satisfied and which are missing.

Example:
  diagnosa goal defisiensi_nitrogen fase_vegetatif_lanjut daun_kuning_merata`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGoal,
}

func init() {
	rootCmd.AddCommand(goalCmd)
}

func runGoal(cmd *cobra.Command, args []string) error {
	if err := requireRules(); err != nil {
		return err
	}
	if consultationService == nil {
		return errors.New("consultation service not configured")
	}

	result, err := consultationService.VerifyGoal(cmd.Context(), args[0], splitTokens(args[1:]))
	if err != nil {
		return fmt.Errorf("goal verification failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}
	printGoal(cmd, result)
	return nil
}

func printGoal(cmd *cobra.Command, result *domain.GoalResult) {
	cmd.Println(result.Message)
	if len(result.Candidates) == 0 {
		return
	}
	cmd.Println()
	for _, c := range result.Candidates {
		status := "missing facts"
		if c.CanProve {
			status = "provable"
		}
		cmd.Printf("[%s] CF %.2f - %s\n", c.RuleID, c.CF, status)
		cmd.Printf("  Required:  %s\n", joinOrNone(c.Required))
		cmd.Printf("  Satisfied: %s\n", joinOrNone(c.Satisfied))
		if len(c.Missing) > 0 {
			cmd.Printf("  Missing:   %s\n", joinOrNone(c.Missing))
		}
	}
}
