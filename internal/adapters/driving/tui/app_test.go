package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Consultation: &MockConsultationService{
			ConsultFunc: func(_ context.Context, in domain.ConsultationInput) (*domain.ConsultationResult, error) {
				c := domain.Conclusion{RuleID: "R001", Diagnosis: "defisiensi_nitrogen", CF: 0.72}
				return &domain.ConsultationResult{
					ID:             "c-1",
					Input:          in,
					Conclusions:    []domain.Conclusion{c},
					AllConclusions: []domain.Conclusion{c},
				}, nil
			},
		},
		Knowledge: &MockKnowledgeService{
			Groups: domain.SymptomGroups{"warna_daun": {"daun_kuning_merata"}},
			Rules:  []domain.Rule{{ID: "R001", Status: domain.RuleStatusActive}},
		},
	}
}

func newReadyApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

// run executes cmd and feeds its message back into the app, once.
func run(app *App, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	_, next := app.Update(cmd())
	return next
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Knowledge: &MockKnowledgeService{}})

	assert.ErrorIs(t, err, ErrMissingConsultationService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_ViewBeforeReady(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Diagnosa")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_ConsultationFlow(t *testing.T) {
	app := newReadyApp(t)

	// Menu -> Consult
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)
	require.Equal(t, messages.ViewConsult, app.CurrentView())
	assert.Contains(t, app.View(), "Daun kuning merata")

	// Mark the symptom and diagnose
	app.Update(tea.KeyMsg{Type: tea.KeySpace})
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)

	require.Equal(t, messages.ViewResults, app.CurrentView())
	require.NotNil(t, app.Result())
	assert.Equal(t, []string{"daun_kuning_merata"}, app.Result().Input.Facts)
	assert.Contains(t, app.View(), "defisiensi_nitrogen")

	// Esc returns to the picker keeping the marks
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	run(app, cmd)
	require.Equal(t, messages.ViewConsult, app.CurrentView())
	assert.Contains(t, app.View(), "[x] Daun kuning merata")
}

func TestApp_NewConsultationResetsPicker(t *testing.T) {
	app := newReadyApp(t)
	run(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewConsult} })
	app.Update(tea.KeyMsg{Type: tea.KeySpace})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)
	require.Equal(t, messages.ViewResults, app.CurrentView())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	run(app, cmd)

	require.Equal(t, messages.ViewConsult, app.CurrentView())
	assert.Contains(t, app.View(), "[ ] Daun kuning merata")
}

func TestApp_ConsultationError(t *testing.T) {
	app := newReadyApp(t)
	run(app, func() tea.Msg { return messages.ViewChanged{View: messages.ViewConsult} })

	app.Update(messages.ConsultationCompleted{Err: domain.ErrInvalidCF})

	assert.Equal(t, messages.ViewConsult, app.CurrentView())
	assert.ErrorIs(t, app.Err(), domain.ErrInvalidCF)
	assert.Contains(t, app.View(), "certainty factor out of range")
}

func TestApp_RulesView(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewRules})
	run(app, cmd)

	assert.Equal(t, messages.ViewRules, app.CurrentView())
	assert.Contains(t, app.View(), "Rules (1)")
}

func TestApp_HistoryViewWithoutLog(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewHistory})

	assert.Nil(t, cmd)
	assert.Contains(t, app.View(), "log is disabled")
}

func TestApp_HelpView(t *testing.T) {
	app := newReadyApp(t)

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	out := app.View()

	assert.Contains(t, out, "Help")
	assert.Contains(t, out, "toggle")
	assert.Contains(t, out, "diagnose")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newReadyApp(t)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}
