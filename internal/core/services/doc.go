// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. The forward-chaining Engine and the
// RuleSet it reads live here too: an Engine is built per consultation by
// ConsultationService, while the RuleSet is shared and immutable.
package services
