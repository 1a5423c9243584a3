// Package consult provides the symptom picker view for the TUI.
package consult

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/diagnosa-cli/internal/reporters"
)

// Phases are the growth phases the picker cycles through. The empty
// phase sends no phase token.
var Phases = []string{"", "fase_vegetatif", "fase_generatif"}

// ErrNoSymptoms is shown when a consultation is started with nothing marked.
var ErrNoSymptoms = errors.New("select at least one symptom")

// item is one pickable symptom.
type item struct {
	category string
	token    string
}

// View is the symptom picker.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	filter    *input.FilterInput
	statusbar *status.Bar

	consultation driving.ConsultationService
	knowledge    driving.KnowledgeService
	ctx          context.Context

	all     []item
	visible []item
	cursor  int
	checked map[string]bool
	phase   int

	running bool
	err     error
	width   int
	height  int
	ready   bool
}

// NewView creates a new symptom picker.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	consultation driving.ConsultationService,
	knowledge driving.KnowledgeService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:       s,
		keymap:       km,
		filter:       input.NewFilterInput(s),
		statusbar:    status.NewBar(s, km),
		consultation: consultation,
		knowledge:    knowledge,
		ctx:          context.Background(),
		checked:      make(map[string]bool),
		width:        80,
		height:       24,
	}
	v.statusbar.SetState(status.StatePicking)
	return v
}

// WithContext sets the context used for consultations.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the symptom list from the knowledge base.
func (v *View) Init() tea.Cmd {
	v.load()
	return nil
}

// Reset clears marks, phase and filter.
func (v *View) Reset() {
	v.checked = make(map[string]bool)
	v.phase = 0
	v.cursor = 0
	v.err = nil
	v.running = false
	v.filter.Reset()
	v.filter.Blur()
	v.statusbar.Clear()
	v.statusbar.SetState(status.StatePicking)
}

func (v *View) load() {
	groups := v.knowledge.Symptoms()

	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	v.all = v.all[:0]
	for _, cat := range categories {
		for _, token := range groups[cat] {
			v.all = append(v.all, item{category: cat, token: token})
		}
	}
	v.applyFilter()
}

func (v *View) applyFilter() {
	needle := strings.ToLower(strings.TrimSpace(v.filter.Value()))
	v.visible = v.visible[:0]
	for _, it := range v.all {
		if needle == "" ||
			strings.Contains(strings.ToLower(it.token), needle) ||
			strings.Contains(strings.ToLower(it.category), needle) {
			v.visible = append(v.visible, it)
		}
	}
	if v.cursor >= len(v.visible) {
		v.cursor = len(v.visible) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

// Update handles messages for the picker.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.ConsultationCompleted:
		v.running = false
		if msg.Err != nil {
			v.setError(msg.Err)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.running = false
		v.setError(msg.Err)
		return v, nil
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.running {
		return v, nil
	}

	if v.filter.Focused() {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			v.filter.Blur()
			return v, nil
		default:
			var cmd tea.Cmd
			v.filter, cmd = v.filter.Update(msg)
			v.applyFilter()
			return v, cmd
		}
	}

	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(keyStr, v.keymap.Filter):
		return v, v.filter.Focus()
	case keymap.Matches(keyStr, v.keymap.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case keymap.Matches(keyStr, v.keymap.Down):
		if v.cursor < len(v.visible)-1 {
			v.cursor++
		}
	case keymap.Matches(keyStr, v.keymap.Toggle):
		v.toggle()
	case keymap.Matches(keyStr, v.keymap.Phase):
		v.phase = (v.phase + 1) % len(Phases)
	case keymap.Matches(keyStr, v.keymap.Run):
		return v, v.run()
	}
	return v, nil
}

func (v *View) toggle() {
	if v.cursor >= len(v.visible) {
		return
	}
	token := v.visible[v.cursor].token
	if v.checked[token] {
		delete(v.checked, token)
	} else {
		v.checked[token] = true
	}
	v.err = nil
	v.statusbar.SetState(status.StatePicking)
	v.statusbar.SetCount(len(v.checked))
}

func (v *View) run() tea.Cmd {
	facts := v.Facts()
	if len(facts) == 0 {
		v.setError(ErrNoSymptoms)
		return nil
	}

	v.running = true
	v.err = nil
	v.statusbar.SetState(status.StateRunning)

	ctx := v.ctx
	svc := v.consultation
	in := domain.ConsultationInput{Facts: facts, Phase: v.Phase()}
	return func() tea.Msg {
		result, err := svc.Consult(ctx, in)
		return messages.ConsultationCompleted{Result: result, Err: err}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the picker.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("New Consultation"))
	b.WriteString("\n\n")

	phase := "none"
	if p := v.Phase(); p != "" {
		phase = reporters.HumanizeToken(p)
	}
	b.WriteString(v.styles.Normal.Render("Growth phase: "))
	b.WriteString(v.styles.Subtitle.Render(phase))
	b.WriteString(v.styles.Muted.Render("  [p] change"))
	b.WriteString("\n")
	b.WriteString(v.filter.View())
	b.WriteString("\n\n")

	b.WriteString(v.renderList())
	b.WriteString("\n\n")

	v.statusbar.SetWidth(v.width)
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderList() string {
	if len(v.all) == 0 {
		return v.styles.Muted.Render("No symptoms in the knowledge base")
	}
	if len(v.visible) == 0 {
		return v.styles.Muted.Render("No symptoms match the filter")
	}

	// Header, phase, filter and status take about ten lines.
	rows := v.height - 10
	if rows < 3 {
		rows = 3
	}
	start := 0
	if v.cursor >= rows {
		start = v.cursor - rows + 1
	}
	end := start + rows
	if end > len(v.visible) {
		end = len(v.visible)
	}

	lines := make([]string, 0, end-start+4)
	lastCategory := ""
	for i := start; i < end; i++ {
		it := v.visible[i]
		if it.category != lastCategory {
			lines = append(lines, v.styles.Subtitle.Render(reporters.HumanizeToken(it.category)))
			lastCategory = it.category
		}

		mark := "[ ]"
		if v.checked[it.token] {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, reporters.HumanizeToken(it.token))

		switch {
		case i == v.cursor:
			lines = append(lines, v.styles.Selected.Render("> "+line))
		case v.checked[it.token]:
			lines = append(lines, "  "+v.styles.Checked.Render(line))
		default:
			lines = append(lines, "  "+v.styles.Normal.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// Facts returns the marked symptom tokens in sorted order.
func (v *View) Facts() []string {
	facts := make([]string, 0, len(v.checked))
	for token := range v.checked {
		facts = append(facts, token)
	}
	sort.Strings(facts)
	return facts
}

// Phase returns the selected growth phase token, or "".
func (v *View) Phase() string {
	return Phases[v.phase]
}

// Running reports whether a consultation is in flight.
func (v *View) Running() bool {
	return v.running
}

// Err returns the last error shown by the picker.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.filter.SetWidth(width / 2)
}
