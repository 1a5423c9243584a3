package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past consultations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent consultations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <consultation-id>",
	Short: "Show a logged consultation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the consultation log",
	RunE:  runHistoryStats,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of consultations")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	records, err := historyService.List(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list consultations: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No consultations logged.")
		return nil
	}

	for _, r := range records {
		top := r.TopDiagnosis
		if top == "" {
			top = "(no conclusion)"
		}
		cmd.Printf("  %s  %s  %s (CF %.2f)\n", r.Timestamp.Local().Format("2006-01-02 15:04"), r.ID, top, r.TopCF)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	rec, err := historyService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get consultation: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, rec)
	}

	cmd.Printf("Consultation %s\n", rec.ID)
	cmd.Printf("  Time:       %s\n", rec.Timestamp.Local().Format("2006-01-02 15:04:05"))
	cmd.Printf("  Facts:      %s\n", joinOrNone(rec.Facts))
	if rec.Phase != "" {
		cmd.Printf("  Phase:      %s\n", rec.Phase)
	}
	cmd.Printf("  Rules used: %s\n", joinOrNone(rec.UsedRules))
	cmd.Printf("  Iterations: %d\n", rec.TotalIterations)
	for i, c := range rec.Conclusions {
		cmd.Printf("  %d. %s [%s] CF %.2f\n", i+1, c.Diagnosis, c.RuleID, c.CF)
	}
	return nil
}

func runHistoryStats(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	stats, err := historyService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, stats)
	}

	cmd.Println("Consultation Statistics")
	cmd.Println("=======================")
	cmd.Printf("  Total:          %d\n", stats.Total)
	cmd.Printf("  No conclusion:  %d\n", stats.NoConclusion)
	cmd.Printf("  Average top CF: %.3f\n", stats.AverageTopCF)
	cmd.Printf("  Median top CF:  %.3f\n", stats.MedianTopCF)
	printCounts(cmd, "By diagnosis", stats.ByDiagnosis)
	if len(stats.MostUsedRules) > 0 {
		cmd.Println("\nMost used rules:")
		for _, u := range stats.MostUsedRules {
			cmd.Printf("  %-10s %d\n", u.RuleID, u.Count)
		}
	}
	return nil
}
