package history

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

type mockHistory struct {
	records []domain.ConsultationRecord
	err     error
	limit   int
}

func (m *mockHistory) List(_ context.Context, limit int) ([]domain.ConsultationRecord, error) {
	m.limit = limit
	return m.records, m.err
}

func (m *mockHistory) Get(_ context.Context, _ string) (*domain.ConsultationRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *mockHistory) Stats(_ context.Context) (*domain.ConsultationStats, error) {
	return &domain.ConsultationStats{}, nil
}

func testRecords() []domain.ConsultationRecord {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return []domain.ConsultationRecord{
		{
			ID:           "c-2",
			Timestamp:    at,
			Facts:        []string{"daun_kuning_merata", "pertumbuhan_lambat"},
			Phase:        "fase_vegetatif",
			TopDiagnosis: "defisiensi_nitrogen",
			TopCF:        0.72,
			Conclusions: []domain.Conclusion{
				{RuleID: "R001", Diagnosis: "defisiensi_nitrogen", CF: 0.72},
			},
			UsedRules:       []string{"R001"},
			TotalIterations: 2,
		},
		{ID: "c-1", Timestamp: at.Add(-time.Hour), Facts: []string{"x"}},
	}
}

func loadedView(h *mockHistory) *View {
	v := NewView(nil, h)
	v.SetDimensions(120, 40)
	v.Update(v.Init()())
	return v
}

func TestView_InitLoadsRecords(t *testing.T) {
	h := &mockHistory{records: testRecords()}
	v := NewView(nil, h)

	cmd := v.Init()
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Loading...")

	v.Update(cmd())

	assert.Equal(t, Limit, h.limit)
	assert.Len(t, v.Records(), 2)
}

func TestView_DisabledLog(t *testing.T) {
	v := NewView(nil, nil)

	assert.Nil(t, v.Init())
	assert.Contains(t, v.View(), "log is disabled")
}

func TestView_LoadError(t *testing.T) {
	v := loadedView(&mockHistory{err: errors.New("database is locked")})

	assert.Contains(t, v.View(), "Error: database is locked")
}

func TestView_Empty(t *testing.T) {
	v := loadedView(&mockHistory{})

	assert.Contains(t, v.View(), "No consultations yet")
}

func TestView_List(t *testing.T) {
	v := loadedView(&mockHistory{records: testRecords()})

	out := v.View()

	assert.Contains(t, out, "defisiensi_nitrogen 72%")
	assert.Contains(t, out, "2 facts")
	assert.Contains(t, out, "no diagnosis")
}

func TestView_ExpandRecord(t *testing.T) {
	v := loadedView(&mockHistory{records: testRecords()})

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	out := v.View()
	assert.Contains(t, out, "c-2")
	assert.Contains(t, out, "Facts: daun_kuning_merata, pertumbuhan_lambat")
	assert.Contains(t, out, "Phase: Fase vegetatif")
	assert.Contains(t, out, "1. Defisiensi nitrogen 72.0% (R001)")
	assert.Contains(t, out, "2 iterations, rules R001")

	// Esc collapses first
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.NotContains(t, v.View(), "Facts:")

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Navigation(t *testing.T) {
	v := loadedView(&mockHistory{records: testRecords()})

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, v.View(), "Facts: x")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, v.selected)
}

func TestView_EnterOnEmptyDoesNotExpand(t *testing.T) {
	v := loadedView(&mockHistory{})

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, v.expanded)
}
