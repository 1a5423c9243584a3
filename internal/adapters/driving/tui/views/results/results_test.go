package results

import (
	"errors"
	"fmt"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

type mockReport struct {
	format string
	err    error
}

func (m *mockReport) Render(w io.Writer, format string, result *domain.ConsultationResult) error {
	m.format = format
	if m.err != nil {
		return m.err
	}
	_, err := fmt.Fprintf(w, "# Consultation %s\n\nTop diagnosis found.\n", result.ID)
	return err
}

func (m *mockReport) Formats() []string {
	return []string{"markdown"}
}

func sampleResult() *domain.ConsultationResult {
	conclusions := []domain.Conclusion{
		{
			RuleID:         "R001",
			Diagnosis:      "defisiensi_nitrogen",
			CF:             0.72,
			Interpretation: "convincing",
			Conditions:     []string{"daun_kuning_merata", "pertumbuhan_lambat"},
			Recommendation: map[string]any{"pupuk": "Urea", "dosis": "200 kg/ha"},
		},
		{
			RuleID:         "R003",
			Diagnosis:      "defisiensi_kalium",
			CF:             0.4,
			Interpretation: "likely",
			Conditions:     []string{"tepi_daun_terbakar"},
		},
	}
	return &domain.ConsultationResult{
		ID:             "c-1",
		Conclusions:    conclusions,
		AllConclusions: conclusions,
		ReasoningPath: []domain.ReasoningStep{
			{Step: 1, RuleID: "R001", Conclusion: "defisiensi_nitrogen", Narrative: "R001 fired with CF 0.72"},
			{Step: 2, RuleID: "R003", Conclusion: "defisiensi_kalium", Narrative: "R003 fired with CF 0.40"},
		},
	}
}

func newTestView(report *mockReport) *View {
	var v *View
	if report == nil {
		v = NewView(nil, nil, nil)
	} else {
		v = NewView(nil, nil, report)
	}
	v.SetDimensions(120, 40)
	return v
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.Nil(t, v.Init())
	assert.Nil(t, v.Result())
	assert.False(t, v.ShowingReport())
}

func TestView_SetResult(t *testing.T) {
	v := newTestView(nil)
	result := sampleResult()

	v.SetResult(result)

	assert.Same(t, result, v.Result())
	assert.Equal(t, 2, v.list.Count())

	out := v.View()
	assert.Contains(t, out, "Conclusions (2)")
	assert.Contains(t, out, "Defisiensi nitrogen")
	assert.Contains(t, out, "IF daun_kuning_merata AND pertumbuhan_lambat")
	assert.Contains(t, out, "Pupuk: Urea")
	assert.Contains(t, out, "1. R001 fired with CF 0.72")
	assert.NotContains(t, out, "R003 fired")
	assert.Contains(t, out, "2 conclusions")
}

func TestView_DetailFollowsSelection(t *testing.T) {
	v := newTestView(nil)
	v.SetResult(sampleResult())

	v.Update(key('j'))

	out := v.View()
	assert.Contains(t, out, "Defisiensi kalium")
	assert.Contains(t, out, "2. R003 fired with CF 0.40")
}

func TestView_EmptyResult(t *testing.T) {
	v := newTestView(nil)

	v.SetResult(&domain.ConsultationResult{})

	out := v.View()
	assert.Contains(t, out, "No rule fired")
	assert.Contains(t, out, "No diagnosis")
}

func TestView_ReportToggle(t *testing.T) {
	report := &mockReport{}
	v := newTestView(report)
	v.SetResult(sampleResult())

	v.Update(key('r'))

	require.True(t, v.ShowingReport())
	assert.Equal(t, "markdown", report.format)
	assert.Contains(t, v.View(), "Consultation c-1")

	// Esc closes the report before leaving the view
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, v.ShowingReport())

	v.Update(key('r'))
	v.Update(key('r'))
	assert.False(t, v.ShowingReport())
}

func TestView_ReportWithoutService(t *testing.T) {
	v := newTestView(nil)
	v.SetResult(sampleResult())

	v.Update(key('r'))

	assert.False(t, v.ShowingReport())
}

func TestView_ReportError(t *testing.T) {
	v := newTestView(&mockReport{err: errors.New("unknown format")})
	v.SetResult(sampleResult())

	v.Update(key('r'))

	assert.False(t, v.ShowingReport())
	require.Error(t, v.Err())
	assert.Contains(t, v.Err().Error(), "rendering report")
}

func TestView_Navigation(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want messages.ViewChanged
	}{
		{"esc keeps symptoms", tea.KeyMsg{Type: tea.KeyEsc}, messages.ViewChanged{View: messages.ViewConsult}},
		{"new consultation resets", key('n'), messages.ViewChanged{View: messages.ViewConsult, Reset: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestView(nil)
			v.SetResult(sampleResult())

			_, cmd := v.Update(tt.msg)

			require.NotNil(t, cmd)
			assert.Equal(t, tt.want, cmd())
		})
	}
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newTestView(nil)

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
	assert.Contains(t, v.View(), "Error: boom")
}
