// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType

	// Reset asks the target view to drop its state.
	Reset bool
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewConsult is the symptom picker.
	ViewConsult
	// ViewResults shows ranked conclusions and the reasoning trace.
	ViewResults
	// ViewRules is the rule browser.
	ViewRules
	// ViewHistory lists logged consultations.
	ViewHistory
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewConsult:
		return "consult"
	case ViewResults:
		return "results"
	case ViewRules:
		return "rules"
	case ViewHistory:
		return "history"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ConsultationCompleted carries a consultation result back to the model.
type ConsultationCompleted struct {
	Result *domain.ConsultationResult
	Err    error
}

// RulesLoaded carries the rule catalogue.
type RulesLoaded struct {
	Rules []domain.Rule
}

// RuleExplained carries the explanation of one rule.
type RuleExplained struct {
	Explanation *domain.RuleExplanation
	Err         error
}

// HistoryLoaded carries recent consultations.
type HistoryLoaded struct {
	Records []domain.ConsultationRecord
	Err     error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
