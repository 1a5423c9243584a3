package reporters

import (
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/diagnosa-cli/internal/core/certainty"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// MarkdownRenderer writes a consultation report as Markdown.
type MarkdownRenderer struct {
	ShowPath bool
}

// Name returns the format name.
func (r *MarkdownRenderer) Name() string { return FormatMarkdown }

// Render writes the report to w.
func (r *MarkdownRenderer) Render(w io.Writer, result *domain.ConsultationResult) error {
	var b strings.Builder
	b.WriteString("# Consultation Report\n\n")
	if result.ID != "" {
		fmt.Fprintf(&b, "**ID:** `%s`  \n", result.ID)
	}
	if !result.Timestamp.IsZero() {
		fmt.Fprintf(&b, "**Date:** %s  \n", result.Timestamp.Format("2006-01-02 15:04:05"))
	}
	if result.Input.Phase != "" {
		fmt.Fprintf(&b, "**Phase:** %s  \n", result.Input.Phase)
	}

	b.WriteString("\n## Facts\n\n")
	for _, fact := range result.Input.Facts {
		fmt.Fprintf(&b, "- %s\n", fact)
	}

	b.WriteString("\n## Diagnoses\n\n")
	if len(result.Conclusions) == 0 {
		b.WriteString("_No diagnosis could be concluded from these facts._\n")
	} else {
		b.WriteString("| # | Diagnosis | CF | Interpretation | Rule |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for i, c := range result.Conclusions {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				i+1, escapeCell(c.Diagnosis), certainty.Percent(c.CF), c.Interpretation, c.RuleID)
		}
		for _, c := range result.Conclusions {
			if len(c.Recommendation) == 0 && c.Explanation == "" {
				continue
			}
			fmt.Fprintf(&b, "\n### %s\n\n", HumanizeToken(c.Diagnosis))
			for _, k := range recommendationKeys(c.Recommendation) {
				fmt.Fprintf(&b, "- **%s:** %v\n", HumanizeToken(k), c.Recommendation[k])
			}
			if c.Explanation != "" {
				fmt.Fprintf(&b, "\n> %s\n", c.Explanation)
			}
		}
	}

	if r.ShowPath && len(result.ReasoningPath) > 0 {
		b.WriteString("\n## Reasoning Path\n\n")
		for _, step := range result.ReasoningPath {
			fmt.Fprintf(&b, "%d. **%s**: IF %s THEN `%s` (%s)\n",
				step.Step, step.RuleID, strings.Join(step.Conditions, " AND "),
				step.Conclusion, certainty.Percent(step.CombinedCF))
		}
	}

	fmt.Fprintf(&b, "\n---\n\n%d rule(s) fired in %d iteration(s).\n", len(result.UsedRules), result.TotalIterations)
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// MarkdownExporter writes the rule catalogue as Markdown documentation.
type MarkdownExporter struct {
	Title string
}

// Name returns the format name.
func (e *MarkdownExporter) Name() string { return FormatMarkdown }

// Export writes the rules to w.
func (e *MarkdownExporter) Export(w io.Writer, rules []domain.Rule) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Title)
	fmt.Fprintf(&b, "**Total Rules:** %d\n\n## Rules\n\n", len(rules))

	for i := range rules {
		rule := &rules[i]
		fmt.Fprintf(&b, "### %s - %s\n\n", rule.ID, rule.Consequent.Diagnosis)
		fmt.Fprintf(&b, "**Status:** %s | **Version:** %s | **CF:** %g (%s)\n\n",
			rule.Status, rule.Version, rule.CF, domain.ConfidenceLevel(rule.CF))

		b.WriteString("**Conditions:**\n")
		for _, a := range rule.Antecedents {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		if len(rule.Consequent.Recommendation) > 0 {
			b.WriteString("\n**Recommendations:**\n")
			for _, k := range recommendationKeys(rule.Consequent.Recommendation) {
				fmt.Fprintf(&b, "- **%s:** %v\n", HumanizeToken(k), rule.Consequent.Recommendation[k])
			}
		}
		if rule.Explanation != "" {
			fmt.Fprintf(&b, "\n**Explanation:** %s\n", rule.Explanation)
		}
		tags := "None"
		if len(rule.Metadata.Tags) > 0 {
			tags = strings.Join(rule.Metadata.Tags, ", ")
		}
		fmt.Fprintf(&b, "\n**Tags:** %s\n\n---\n\n", tags)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
