package reporters

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// CSVRenderer writes one row per conclusion.
type CSVRenderer struct{}

// Name returns the format name.
func (r *CSVRenderer) Name() string { return FormatCSV }

var consultationHeader = []string{
	"consultation_id", "timestamp", "rank", "rule_id", "diagnosis",
	"cf", "interpretation", "matched_conditions", "pupuk", "dosis", "metode",
}

// Render writes the conclusions to w.
func (r *CSVRenderer) Render(w io.Writer, result *domain.ConsultationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(consultationHeader); err != nil {
		return err
	}

	ts := ""
	if !result.Timestamp.IsZero() {
		ts = result.Timestamp.Format(time.RFC3339)
	}
	for i, c := range result.AllConclusions {
		row := []string{
			result.ID,
			ts,
			strconv.Itoa(i + 1),
			c.RuleID,
			c.Diagnosis,
			strconv.FormatFloat(c.CF, 'f', 4, 64),
			c.Interpretation,
			strings.Join(c.MatchedConditions, " AND "),
			stringValue(c.Recommendation, "pupuk"),
			stringValue(c.Recommendation, "dosis"),
			stringValue(c.Recommendation, "metode"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVExporter writes the rule catalogue, one row per rule.
type CSVExporter struct{}

// Name returns the format name.
func (e *CSVExporter) Name() string { return FormatCSV }

var catalogueHeader = []string{
	"Rule_ID", "Status", "Version", "Conditions", "Diagnosis",
	"Severity", "Pupuk", "Dosis", "Metode", "CF", "Confidence_Level",
	"Usage_Count", "Success_Rate", "Author", "Created", "Tags",
}

// Export writes the rules to w.
func (e *CSVExporter) Export(w io.Writer, rules []domain.Rule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(catalogueHeader); err != nil {
		return err
	}
	for i := range rules {
		rule := &rules[i]
		rec := rule.Consequent.Recommendation
		created := ""
		if !rule.Metadata.CreatedAt.IsZero() {
			created = rule.Metadata.CreatedAt.Format(time.RFC3339)
		}
		row := []string{
			rule.ID,
			rule.Status.String(),
			rule.Version,
			strings.Join(rule.Antecedents, " AND "),
			rule.Consequent.Diagnosis,
			stringValue(rec, "severity"),
			stringValue(rec, "pupuk"),
			stringValue(rec, "dosis"),
			stringValue(rec, "metode"),
			strconv.FormatFloat(rule.CF, 'f', -1, 64),
			domain.ConfidenceLevel(rule.CF),
			strconv.Itoa(rule.Metadata.UsageCount),
			fmt.Sprintf("%.3f", rule.Metadata.SuccessRate),
			rule.Metadata.Author,
			created,
			strings.Join(rule.Metadata.Tags, ", "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
