package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure inference and storage settings.

Settings are stored in ~/.diagnosa/config.toml. Use 'settings set' to change
a single value or 'settings wizard' to walk through the engine options.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting.

Available keys:
  engine.max_iterations       Inference pass cap (positive integer)
  engine.top_k                Conclusions shown in reports (positive integer)
  engine.default_evidence_cf  Certainty of symptoms given without --cf (-1 to 1)
  engine.match_policy         strict | lenient
  engine.conflict_policy      combine | overwrite
  catalogue.path              Rule catalogue file (.json or .yaml)
  catalogue.backup_dir        Backup directory
  catalogue.watch             Reload the catalogue when the file changes (true/false)
  log.enabled                 Record consultations (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the inference engine step by step.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, settings)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Engine]")
	cmd.Printf("  Max iterations:      %d\n", settings.Engine.MaxIterations)
	cmd.Printf("  Top K:               %d\n", settings.Engine.TopK)
	cmd.Printf("  Default evidence CF: %.2f\n", settings.Engine.DefaultEvidenceCF)
	cmd.Printf("  Matching:            %s\n", settings.Engine.MatchPolicy.Description())
	cmd.Printf("  Conflicts:           %s\n", settings.Engine.ConflictPolicy.Description())
	cmd.Println()

	cmd.Println("[Catalogue]")
	cmd.Printf("  Path:       %s\n", orDefault(settings.Catalogue.Path))
	cmd.Printf("  Backup dir: %s\n", orDefault(settings.Catalogue.BackupDir))
	cmd.Printf("  Watch:      %s\n", yesNo(settings.Catalogue.Watch))
	cmd.Println()

	cmd.Println("[Log]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Log.Enabled))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w\nKnown keys: %s", args[0], err, strings.Join(settingsService.Keys(), ", "))
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Diagnosa Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Matching policy")
	matchPolicies := []domain.MatchPolicy{domain.MatchStrict, domain.MatchLenient}
	for i, p := range matchPolicies {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	settings.Engine.MatchPolicy = matchPolicies[parseChoice(readLine(reader), len(matchPolicies), 1)-1]
	cmd.Println()

	cmd.Println("Step 2: Conflict policy")
	conflictPolicies := []domain.ConflictPolicy{domain.ConflictCombine, domain.ConflictOverwrite}
	for i, p := range conflictPolicies {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	settings.Engine.ConflictPolicy = conflictPolicies[parseChoice(readLine(reader), len(conflictPolicies), 1)-1]
	cmd.Println()

	cmd.Printf("Step 3: Default evidence CF [%.2f]: ", settings.Engine.DefaultEvidenceCF)
	if v, err := strconv.ParseFloat(readLine(reader), 64); err == nil {
		settings.Engine.DefaultEvidenceCF = v
	}
	cmd.Println()

	cmd.Printf("Step 4: Conclusions to show [%d]: ", settings.Engine.TopK)
	if v, err := strconv.Atoi(readLine(reader)); err == nil {
		settings.Engine.TopK = v
	}
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Settings saved.")
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
