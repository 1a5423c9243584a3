// Package results provides the consultation results view for the TUI.
package results

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/diagnosa-cli/internal/reporters"
)

// View shows ranked conclusions with the reasoning behind the selected one,
// or the full markdown report.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.ConclusionList
	statusbar *status.Bar
	report    viewport.Model

	reportService driving.ReportService

	result     *domain.ConsultationResult
	showReport bool
	err        error
	width      int
	height     int
}

// NewView creates a results view. reportService may be nil, in which
// case the report toggle is disabled.
func NewView(s *styles.Styles, km *keymap.KeyMap, reportService driving.ReportService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		list:          list.NewConclusionList(s),
		statusbar:     status.NewBar(s, km),
		report:        viewport.New(80, 20),
		reportService: reportService,
		width:         80,
		height:        24,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetResult shows a new consultation result.
func (v *View) SetResult(result *domain.ConsultationResult) {
	v.result = result
	v.showReport = false
	v.err = nil

	var conclusions []domain.Conclusion
	if result != nil {
		conclusions = result.Conclusions
	}
	v.list.SetConclusions(conclusions)
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetCount(len(conclusions))
}

// Update handles messages for the results view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		if v.showReport {
			v.showReport = false
			return v, nil
		}
		return v, changeView(messages.ViewChanged{View: messages.ViewConsult})
	case keymap.Matches(keyStr, v.keymap.NewConsultation):
		return v, changeView(messages.ViewChanged{View: messages.ViewConsult, Reset: true})
	case keymap.Matches(keyStr, v.keymap.Report):
		v.toggleReport()
		return v, nil
	}

	if v.showReport {
		var cmd tea.Cmd
		v.report, cmd = v.report.Update(msg)
		return v, cmd
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) toggleReport() {
	if v.showReport {
		v.showReport = false
		return
	}
	if v.result == nil || v.reportService == nil {
		return
	}

	content, err := v.renderReport()
	if err != nil {
		v.err = err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(err.Error())
		return
	}
	v.report.SetContent(content)
	v.report.GotoTop()
	v.showReport = true
}

func (v *View) renderReport() (string, error) {
	var buf bytes.Buffer
	if err := v.reportService.Render(&buf, reporters.FormatMarkdown, v.result); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(v.width-4),
	)
	if err != nil {
		return buf.String(), nil
	}
	out, err := renderer.Render(buf.String())
	if err != nil {
		return buf.String(), nil
	}
	return out, nil
}

// View renders the results.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Diagnosis"))
	b.WriteString("\n\n")

	if v.showReport {
		b.WriteString(v.report.View())
	} else {
		b.WriteString(v.list.View())
		if c := v.list.SelectedConclusion(); c != nil {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Border.Render(v.renderDetail(c)))
		}
	}
	b.WriteString("\n\n")

	v.statusbar.SetWidth(v.width)
	b.WriteString(v.statusbar.View())
	return b.String()
}

// renderDetail shows the recommendation and the reasoning steps that led
// to the selected diagnosis.
func (v *View) renderDetail(c *domain.Conclusion) string {
	lines := []string{
		v.styles.Subtitle.Render(reporters.HumanizeToken(c.Diagnosis)),
		v.styles.Muted.Render("IF " + strings.Join(c.Conditions, " AND ")),
	}

	if len(c.Recommendation) > 0 {
		lines = append(lines, "")
		for _, k := range sortedKeys(c.Recommendation) {
			lines = append(lines, fmt.Sprintf("%s: %v", reporters.HumanizeToken(k), c.Recommendation[k]))
		}
	}

	var steps []string
	for _, step := range v.result.ReasoningPath {
		if step.Conclusion != c.Diagnosis {
			continue
		}
		steps = append(steps, fmt.Sprintf("%d. %s", step.Step, step.Narrative))
	}
	if len(steps) > 0 {
		lines = append(lines, "", v.styles.Normal.Render("Reasoning"))
		for _, s := range steps {
			lines = append(lines, v.styles.Muted.Render(s))
		}
	}
	return strings.Join(lines, "\n")
}

// Result returns the shown consultation result.
func (v *View) Result() *domain.ConsultationResult {
	return v.result
}

// ShowingReport reports whether the full report is displayed.
func (v *View) ShowingReport() bool {
	return v.showReport
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height/2)
	v.report.Width = width
	v.report.Height = height - 6
}

func changeView(msg messages.ViewChanged) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
