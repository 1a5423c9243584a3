package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

var (
	consultPhase    string
	consultEvidence map[string]string
	consultFormat   string
	consultBatch    string
)

var consultCmd = &cobra.Command{
	Use:   "consult [symptom...]",
	Short: "Diagnose from observed symptoms",
	Long: `Runs forward chaining over the active rules from the given symptoms.

Symptoms are condition tokens such as daun_kuning_merata. They may be
given as separate arguments or comma separated. Each symptom is observed
with the default evidence certainty unless --cf overrides it.

Examples:
  diagnosa consult daun_kuning_merata pertumbuhan_lambat --phase fase_vegetatif
  diagnosa consult tepi_daun_terbakar --cf tepi_daun_terbakar=0.6 --format markdown
  diagnosa consult --batch inputs.json --json`,
	RunE: runConsult,
}

func init() {
	consultCmd.Flags().StringVarP(&consultPhase, "phase", "p", "", "growth phase token (e.g. fase_vegetatif)")
	consultCmd.Flags().StringToStringVar(&consultEvidence, "cf", nil, "evidence certainty per symptom (token=0.8)")
	consultCmd.Flags().StringVarP(&consultFormat, "format", "f", "text", "report format (text, markdown, json, csv)")
	consultCmd.Flags().StringVar(&consultBatch, "batch", "", "JSON file with an array of consultation inputs")
	rootCmd.AddCommand(consultCmd)
}

func runConsult(cmd *cobra.Command, args []string) error {
	if err := requireRules(); err != nil {
		return err
	}
	if consultationService == nil {
		return errors.New("consultation service not configured")
	}

	if consultBatch != "" {
		return runConsultBatch(cmd)
	}

	input, err := buildInput(args, consultPhase, consultEvidence)
	if err != nil {
		return err
	}

	result, err := consultationService.Consult(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("consultation failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}
	return renderReport(cmd, consultFormat, result)
}

func runConsultBatch(cmd *cobra.Command) error {
	data, err := os.ReadFile(consultBatch)
	if err != nil {
		return fmt.Errorf("reading batch file: %w", err)
	}
	var inputs []domain.ConsultationInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("parsing batch file: %w", err)
	}

	results, err := consultationService.ConsultBatch(cmd.Context(), inputs)
	if err != nil {
		return fmt.Errorf("batch consultation failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, results)
	}
	for i, result := range results {
		if i > 0 {
			cmd.Println()
		}
		if err := renderReport(cmd, consultFormat, result); err != nil {
			return err
		}
	}
	return nil
}

// buildInput turns arguments and flags into a consultation input.
func buildInput(args []string, phase string, evidence map[string]string) (domain.ConsultationInput, error) {
	input := domain.ConsultationInput{
		Facts: splitTokens(args),
		Phase: strings.TrimSpace(phase),
	}
	if len(evidence) == 0 {
		return input, nil
	}

	input.EvidenceCF = make(map[string]float64, len(evidence))
	for token, raw := range evidence {
		cf, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return input, fmt.Errorf("evidence for %q is not a number: %w", token, domain.ErrInvalidInput)
		}
		input.EvidenceCF[strings.TrimSpace(token)] = cf
	}
	return input, nil
}

// splitTokens accepts space or comma separated tokens and drops blanks.
func splitTokens(args []string) []string {
	tokens := []string{}
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tokens = append(tokens, part)
			}
		}
	}
	return tokens
}

// renderReport writes a consultation report. Markdown on a terminal is
// rendered with glamour.
func renderReport(cmd *cobra.Command, format string, result *domain.ConsultationResult) error {
	if reportService == nil {
		return printJSON(cmd, result)
	}

	var buf bytes.Buffer
	if err := reportService.Render(&buf, format, result); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	if format == "markdown" && isTerminal(cmd) {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(terminalWidth(cmd, 80)),
		)
		if err == nil {
			if out, err := renderer.Render(buf.String()); err == nil {
				cmd.Print(out)
				return nil
			}
		}
	}

	cmd.Print(buf.String())
	return nil
}
