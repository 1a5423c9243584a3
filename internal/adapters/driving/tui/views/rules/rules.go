// Package rules provides the rule browser view for the TUI.
package rules

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
)

// View lists every loaded rule and explains the selected one on demand.
type View struct {
	styles      *styles.Styles
	knowledge   driving.KnowledgeService
	explanation driving.ExplanationService

	rules     []domain.Rule
	selected  int
	explained *domain.RuleExplanation
	err       error
	width     int
	height    int
}

// NewView creates a rule browser. explanation may be nil.
func NewView(s *styles.Styles, knowledge driving.KnowledgeService, explanation driving.ExplanationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:      s,
		knowledge:   knowledge,
		explanation: explanation,
		width:       80,
		height:      24,
	}
}

// Init loads the rules.
func (v *View) Init() tea.Cmd {
	knowledge := v.knowledge
	return func() tea.Msg {
		return messages.RulesLoaded{Rules: knowledge.AllRules()}
	}
}

// Update handles messages for the rule browser.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.RulesLoaded:
		v.rules = msg.Rules
		v.selected = 0
		v.explained = nil

	case messages.RuleExplained:
		v.err = msg.Err
		v.explained = msg.Explanation

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			if v.explained != nil {
				v.explained = nil
				return v, nil
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case "up", "k":
			if v.selected > 0 {
				v.selected--
				v.explained, v.err = nil, nil
			}
		case "down", "j":
			if v.selected < len(v.rules)-1 {
				v.selected++
				v.explained, v.err = nil, nil
			}
		case "enter":
			return v, v.explain()
		}
	}
	return v, nil
}

func (v *View) explain() tea.Cmd {
	if v.explanation == nil || v.selected >= len(v.rules) {
		return nil
	}
	svc := v.explanation
	id := v.rules[v.selected].ID
	return func() tea.Msg {
		exp, err := svc.ExplainRule(id)
		return messages.RuleExplained{Explanation: exp, Err: err}
	}
}

// View renders the rule browser.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Rules (%d)", len(v.rules))))
	b.WriteString("\n\n")

	if len(v.rules) == 0 {
		b.WriteString(v.styles.Muted.Render("No rules loaded"))
	} else {
		b.WriteString(v.renderTable())
	}

	if v.err != nil {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	} else if v.explained != nil {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Border.Render(v.renderExplanation(v.explained)))
	}

	b.WriteString("\n\n")
	help := "[j/k] Navigate  [esc] Back"
	if v.explanation != nil {
		help = "[j/k] Navigate  [enter] Explain  [esc] Back"
	}
	b.WriteString(v.styles.Help.Render(help))
	return b.String()
}

func (v *View) renderTable() string {
	rows := v.height - 14
	if rows < 3 {
		rows = 3
	}
	start := 0
	if v.selected >= rows {
		start = v.selected - rows + 1
	}
	end := start + rows
	if end > len(v.rules) {
		end = len(v.rules)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r := v.rules[i]
		line := fmt.Sprintf("%-6s %-32s %4.2f  %s", r.ID, r.Consequent.Diagnosis, r.CF, r.Status)

		switch {
		case i == v.selected:
			lines = append(lines, v.styles.Selected.Render("> "+line))
		case !r.IsActive():
			lines = append(lines, "  "+v.styles.Muted.Render(line))
		default:
			lines = append(lines, "  "+v.styles.Normal.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderExplanation(exp *domain.RuleExplanation) string {
	lines := []string{
		v.styles.Subtitle.Render(exp.RuleID),
		exp.NaturalLanguage,
		v.styles.Muted.Render(fmt.Sprintf("Certainty %s (%s)", exp.CFPercentage, exp.CFAssessment)),
	}
	if exp.Rule.Explanation != "" {
		lines = append(lines, "", exp.Rule.Explanation)
	}
	for _, p := range exp.Problems {
		lines = append(lines, v.styles.Warning.Render("! "+p))
	}
	return strings.Join(lines, "\n")
}

// Selected returns the selected rule, or nil.
func (v *View) Selected() *domain.Rule {
	if v.selected >= len(v.rules) {
		return nil
	}
	return &v.rules[v.selected]
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}
