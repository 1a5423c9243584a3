// Package cli provides the cobra command tree for the diagnosa binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/diagnosa-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose    bool
	jsonOutput bool
)

// Services wired in by main.
var (
	knowledgeService    driving.KnowledgeService
	consultationService driving.ConsultationService
	explanationService  driving.ExplanationService
	historyService      driving.HistoryService
	reportService       driving.ReportService
	settingsService     driving.SettingsService

	// catalogueInit writes the starter catalogue. Optional.
	catalogueInit func(ctx context.Context) error

	// loadErr is the error from the startup catalogue load, if any.
	loadErr error
)

// Services holds the driving ports the commands use.
type Services struct {
	Knowledge     driving.KnowledgeService
	Consultation  driving.ConsultationService
	Explanation   driving.ExplanationService
	History       driving.HistoryService
	Report        driving.ReportService
	Settings      driving.SettingsService
	CatalogueInit func(ctx context.Context) error
}

// SetServices wires the command tree to its services.
func SetServices(s Services) {
	knowledgeService = s.Knowledge
	consultationService = s.Consultation
	explanationService = s.Explanation
	historyService = s.History
	reportService = s.Report
	settingsService = s.Settings
	catalogueInit = s.CatalogueInit
}

// SetLoadError records why the catalogue failed to load at startup.
// Commands that need rules refuse to run while it is set.
func SetLoadError(err error) {
	loadErr = err
}

// SetVersion sets the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "diagnosa",
	Short: "Certainty-factor diagnosis for chili fertilisation",
	Long: `diagnosa diagnoses nutrient problems from observed symptoms.

It forward-chains over an expert rule catalogue, combining certainty
factors as rules fire, and explains how each conclusion was reached.

The catalogue lives at ~/.diagnosa/rules.json by default. Run
'diagnosa rules init' to create a starter catalogue.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as the MCP server and the TUI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// requireRules fails when the knowledge base is unusable.
func requireRules() error {
	if loadErr != nil {
		return humanizeError(fmt.Errorf("cannot run inference: %w", loadErr))
	}
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return nil
}

// isTerminal reports whether the command writes to an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the output width, or fallback when unknown.
func terminalWidth(cmd *cobra.Command, fallback int) int {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return fallback
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// humanizeError adds a hint for errors a user can fix.
func humanizeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrKnowledgeLoad):
		return fmt.Errorf("%w\nRun 'diagnosa rules init' to create a starter catalogue", err)
	default:
		return err
	}
}
