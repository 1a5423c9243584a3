package reporters

import (
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// TextRenderer writes a plain-text consultation report.
type TextRenderer struct {
	ShowPath bool
	Width    int
}

// Name returns the format name.
func (r *TextRenderer) Name() string { return FormatText }

// Render writes the report to w.
func (r *TextRenderer) Render(w io.Writer, result *domain.ConsultationResult) error {
	width := r.Width
	if width <= 0 {
		width = defaultWidth
	}
	heavy := strings.Repeat("=", width)
	light := strings.Repeat("-", width)

	var b strings.Builder
	fmt.Fprintln(&b, heavy)
	fmt.Fprintln(&b, "CONSULTATION REPORT")
	fmt.Fprintln(&b, heavy)
	if result.ID != "" {
		fmt.Fprintf(&b, "ID:   %s\n", result.ID)
	}
	if !result.Timestamp.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", result.Timestamp.Format("2006-01-02 15:04:05"))
	}
	if result.Input.Phase != "" {
		fmt.Fprintf(&b, "Phase: %s\n", result.Input.Phase)
	}

	fmt.Fprintf(&b, "\nFACTS\n%s\n", light)
	for i, fact := range result.Input.Facts {
		if cf, ok := result.Input.EvidenceCF[fact]; ok {
			fmt.Fprintf(&b, "%d. %s (%.2f)\n", i+1, fact, cf)
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, fact)
	}

	fmt.Fprintf(&b, "\nDIAGNOSES\n%s\n", light)
	if len(result.Conclusions) == 0 {
		fmt.Fprintln(&b, "No diagnosis could be concluded from these facts.")
	}
	for i, c := range result.Conclusions {
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, c.Diagnosis, c.RuleID)
		fmt.Fprintf(&b, "   Certainty: %s\n", formatCF(c.CF))
		if c.Category != "" {
			fmt.Fprintf(&b, "   Category:  %s\n", c.Category)
		}
		for _, k := range recommendationKeys(c.Recommendation) {
			fmt.Fprintf(&b, "   %s: %v\n", HumanizeToken(k), c.Recommendation[k])
		}
		if c.Explanation != "" {
			fmt.Fprintf(&b, "   Explanation: %s\n", c.Explanation)
		}
	}

	if r.ShowPath && len(result.ReasoningPath) > 0 {
		fmt.Fprintf(&b, "\nREASONING PATH\n%s\n", light)
		for _, step := range result.ReasoningPath {
			fmt.Fprintf(&b, "Step %d: rule %s\n", step.Step, step.RuleID)
			fmt.Fprintf(&b, "  IF   %s\n", strings.Join(step.Conditions, " AND "))
			fmt.Fprintf(&b, "  THEN %s (cf %.3f, combined %.3f)\n", step.Conclusion, step.CF, step.CombinedCF)
		}
	}

	fmt.Fprintf(&b, "\nRULES USED: %d", len(result.UsedRules))
	if len(result.UsedRules) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(result.UsedRules, ", "))
	}
	fmt.Fprintf(&b, "\nITERATIONS: %d (%s)\n", result.TotalIterations, result.State)
	fmt.Fprintln(&b, heavy)

	_, err := io.WriteString(w, b.String())
	return err
}
