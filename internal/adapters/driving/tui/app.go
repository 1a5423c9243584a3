package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/views/consult"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/views/history"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/views/results"
	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/views/rules"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	menuView    *menu.View
	consultView *consult.View
	resultsView *results.View
	rulesView   *rules.View
	historyView *history.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// result is the last consultation result.
	result *domain.ConsultationResult

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		help:        help.New(),
		menuView:    menu.NewView(s),
		consultView: consult.NewView(s, km, ports.Consultation, ports.Knowledge),
		resultsView: results.NewView(s, km, ports.Report),
		rulesView:   rules.NewView(s, ports.Knowledge, ports.Explanation),
		historyView: history.NewView(s, ports.History),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.consultView.WithContext(ctx)
	a.historyView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("diagnosa - Nutrient Diagnosis"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.updateCurrent(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg)

	case messages.ConsultationCompleted:
		a.consultView, cmd = a.consultView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
			return a, cmd
		}
		a.err = nil
		a.result = msg.Result
		a.resultsView.SetResult(msg.Result)
		a.currentView = messages.ViewResults
		return a, cmd

	case messages.RulesLoaded, messages.RuleExplained:
		a.rulesView, cmd = a.rulesView.Update(msg)
		return a, cmd

	case messages.HistoryLoaded:
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.updateCurrent(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.updateCurrent(msg)
}

// updateCurrent forwards a message to the active view.
func (a *App) updateCurrent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewConsult:
		a.consultView, cmd = a.consultView.Update(msg)
	case messages.ViewResults:
		a.resultsView, cmd = a.resultsView.Update(msg)
	case messages.ViewRules:
		a.rulesView, cmd = a.rulesView.Update(msg)
	case messages.ViewHistory:
		a.historyView, cmd = a.historyView.Update(msg)
	case messages.ViewHelp:
		if k, ok := msg.(tea.KeyMsg); ok && keymap.Matches(k.String(), a.keymap.Back) {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// switchTo activates a view, initialising it where needed.
func (a *App) switchTo(msg messages.ViewChanged) tea.Cmd {
	previous := a.currentView
	a.currentView = msg.View

	switch msg.View {
	case messages.ViewConsult:
		// Coming back from results keeps the picked symptoms.
		if msg.Reset || previous != messages.ViewResults {
			a.consultView.Reset()
		}
		return a.consultView.Init()
	case messages.ViewRules:
		return a.rulesView.Init()
	case messages.ViewHistory:
		return a.historyView.Init()
	case messages.ViewMenu, messages.ViewResults, messages.ViewHelp:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewConsult:
		return a.consultView.View()
	case messages.ViewResults:
		return a.resultsView.View()
	case messages.ViewRules:
		return a.rulesView.View()
	case messages.ViewHistory:
		return a.historyView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.help.FullHelpView(a.keymap.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render("Mark the symptoms you observe, pick the growth phase and press enter.\n" +
		"Conclusions are ranked by certainty factor; the report shows fertiliser advice."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Result returns the last consultation result.
func (a *App) Result() *domain.ConsultationResult {
	return a.result
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.menuView.SetDimensions(width, height)
	a.consultView.SetDimensions(width, height)
	a.resultsView.SetDimensions(width, height)
	a.rulesView.SetDimensions(width, height)
	a.historyView.SetDimensions(width, height)
}
