package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/adapters/driving/tui/styles"
)

func TestNewFilterInput(t *testing.T) {
	f := NewFilterInput(styles.DefaultStyles())

	require.NotNil(t, f)
	assert.Equal(t, "", f.Value())
	assert.False(t, f.Focused())
}

func TestNewFilterInput_NilStyles(t *testing.T) {
	f := NewFilterInput(nil)

	require.NotNil(t, f)
	assert.NotNil(t, f.styles)
}

func TestFilterInput_Init(t *testing.T) {
	f := NewFilterInput(nil)

	assert.NotNil(t, f.Init())
}

func TestFilterInput_TypingWhenFocused(t *testing.T) {
	f := NewFilterInput(nil)
	f.Focus()

	updated, _ := f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	assert.Equal(t, f, updated)
	assert.Equal(t, "da", f.Value())
}

func TestFilterInput_IgnoresTypingWhenBlurred(t *testing.T) {
	f := NewFilterInput(nil)

	f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})

	assert.Equal(t, "", f.Value())
}

func TestFilterInput_View(t *testing.T) {
	f := NewFilterInput(nil)

	assert.Contains(t, f.View(), "Filter:")
}

func TestFilterInput_SetValueAndReset(t *testing.T) {
	f := NewFilterInput(nil)

	f.SetValue("daun")
	assert.Equal(t, "daun", f.Value())

	f.Reset()
	assert.Equal(t, "", f.Value())
}

func TestFilterInput_FocusBlur(t *testing.T) {
	f := NewFilterInput(nil)

	f.Focus()
	assert.True(t, f.Focused())

	f.Blur()
	assert.False(t, f.Focused())
}

func TestFilterInput_SetWidth(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		wantInner int
	}{
		{"wide", 100, 88},
		{"narrow clamps", 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilterInput(nil)
			f.SetWidth(tt.width)

			assert.Equal(t, tt.width, f.Width())
			assert.Equal(t, tt.wantInner, f.textinput.Width)
		})
	}
}
