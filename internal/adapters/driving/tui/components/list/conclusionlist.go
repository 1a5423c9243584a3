// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// ConclusionList displays ranked conclusions in a navigable list.
type ConclusionList struct {
	conclusions []domain.Conclusion
	selected    int
	styles      *styles.Styles
	width       int
	height      int
}

// NewConclusionList creates a new conclusion list component.
func NewConclusionList(s *styles.Styles) *ConclusionList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ConclusionList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *ConclusionList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *ConclusionList) Update(msg tea.Msg) (*ConclusionList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *ConclusionList) View() string {
	if len(l.conclusions) == 0 {
		return l.styles.Muted.Render("No rule fired for these symptoms")
	}

	lines := make([]string, 0, len(l.conclusions)*2+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Conclusions (%d)", len(l.conclusions))), "")

	// Each conclusion takes two lines.
	visibleCount := (l.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}
	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(l.conclusions) {
		end = len(l.conclusions)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderConclusion(i, &l.conclusions[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *ConclusionList) renderConclusion(index int, c *domain.Conclusion) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := c.Diagnosis
	maxNameLen := l.width - 24
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	cf := fmt.Sprintf("%6.1f%%", c.CF*100)
	var head string
	if index == l.selected {
		head = l.styles.Selected.Render(fmt.Sprintf("%s%-*s %s", indicator, maxNameLen, name, cf))
	} else {
		head = l.styles.Normal.Render(fmt.Sprintf("%s%-*s ", indicator, maxNameLen, name)) +
			l.styles.Certainty(c.CF).Render(cf)
	}

	detail := fmt.Sprintf("    %s  %s", c.RuleID, c.Interpretation)
	return head + "\n" + l.styles.Muted.Render(detail)
}

// SetConclusions replaces the list and resets the cursor.
func (l *ConclusionList) SetConclusions(conclusions []domain.Conclusion) {
	l.conclusions = conclusions
	l.selected = 0
}

// Conclusions returns the current conclusions.
func (l *ConclusionList) Conclusions() []domain.Conclusion {
	return l.conclusions
}

// Selected returns the index of the selected conclusion.
func (l *ConclusionList) Selected() int {
	return l.selected
}

// SelectedConclusion returns the conclusion under the cursor, or nil.
func (l *ConclusionList) SelectedConclusion() *domain.Conclusion {
	if l.selected < 0 || l.selected >= len(l.conclusions) {
		return nil
	}
	return &l.conclusions[l.selected]
}

// MoveUp moves selection up.
func (l *ConclusionList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ConclusionList) MoveDown() {
	if l.selected < len(l.conclusions)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ConclusionList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of conclusions.
func (l *ConclusionList) Count() int {
	return len(l.conclusions)
}

// IsEmpty returns whether the list is empty.
func (l *ConclusionList) IsEmpty() bool {
	return len(l.conclusions) == 0
}
