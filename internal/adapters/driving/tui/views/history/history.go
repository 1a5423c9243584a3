// Package history provides the consultation history view for the TUI.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/diagnosa-cli/internal/reporters"
)

// Limit is how many consultations the view loads.
const Limit = 50

const timeFormat = "2006-01-02 15:04"

// View lists recent consultations, newest first.
type View struct {
	styles  *styles.Styles
	history driving.HistoryService
	ctx     context.Context

	records  []domain.ConsultationRecord
	selected int
	expanded bool
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a history view. history may be nil when logging is off.
func NewView(s *styles.Styles, history driving.HistoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		history: history,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used to query the log.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads recent consultations.
func (v *View) Init() tea.Cmd {
	if v.history == nil {
		return nil
	}
	v.loading = true
	ctx := v.ctx
	svc := v.history
	return func() tea.Msg {
		records, err := svc.List(ctx, Limit)
		return messages.HistoryLoaded{Records: records, Err: err}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.HistoryLoaded:
		v.loading = false
		v.err = msg.Err
		v.records = msg.Records
		v.selected = 0
		v.expanded = false

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if v.expanded {
				v.expanded = false
				return v, nil
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.records)-1 {
				v.selected++
			}
		case "enter":
			v.expanded = !v.expanded && len(v.records) > 0
		}
	}
	return v, nil
}

// View renders the history.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Consultation History"))
	b.WriteString("\n\n")

	switch {
	case v.history == nil:
		b.WriteString(v.styles.Muted.Render("Consultation log is disabled (log.enabled = false)"))
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.records) == 0:
		b.WriteString(v.styles.Muted.Render("No consultations yet"))
	default:
		b.WriteString(v.renderList())
		if v.expanded {
			b.WriteString("\n\n")
			b.WriteString(v.styles.Border.Render(v.renderRecord(&v.records[v.selected])))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [enter] Details  [esc] Back"))
	return b.String()
}

func (v *View) renderList() string {
	rows := v.height - 16
	if rows < 3 {
		rows = 3
	}
	start := 0
	if v.selected >= rows {
		start = v.selected - rows + 1
	}
	end := start + rows
	if end > len(v.records) {
		end = len(v.records)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r := v.records[i]
		top := "no diagnosis"
		if r.TopDiagnosis != "" {
			top = fmt.Sprintf("%s %.0f%%", r.TopDiagnosis, r.TopCF*100)
		}
		line := fmt.Sprintf("%s  %-30s %d facts", r.Timestamp.Local().Format(timeFormat), top, len(r.Facts))
		if i == v.selected {
			lines = append(lines, v.styles.Selected.Render("> "+line))
		} else {
			lines = append(lines, "  "+v.styles.Normal.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderRecord(r *domain.ConsultationRecord) string {
	lines := []string{
		v.styles.Subtitle.Render(r.ID),
		"Facts: " + strings.Join(r.Facts, ", "),
	}
	if r.Phase != "" {
		lines = append(lines, "Phase: "+reporters.HumanizeToken(r.Phase))
	}
	for i, c := range r.Conclusions {
		lines = append(lines, v.styles.Certainty(c.CF).Render(
			fmt.Sprintf("%d. %s %.1f%% (%s)", i+1, reporters.HumanizeToken(c.Diagnosis), c.CF*100, c.RuleID)))
	}
	lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("%d iterations, rules %s",
		r.TotalIterations, strings.Join(r.UsedRules, " "))))
	return strings.Join(lines, "\n")
}

// Records returns the loaded consultations.
func (v *View) Records() []domain.ConsultationRecord {
	return v.records
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}
