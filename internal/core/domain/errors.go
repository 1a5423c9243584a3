package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// Knowledge Base Errors.

	// ErrKnowledgeLoad indicates the rule catalogue is missing or unreadable.
	// Inference must not run on an empty or partial knowledge base.
	ErrKnowledgeLoad = errors.New("knowledge base could not be loaded")

	// ErrRuleInvalid indicates a rule failed structural validation.
	ErrRuleInvalid = errors.New("rule failed validation")

	// ErrInvalidCF indicates a certainty factor outside [-1, 1].
	ErrInvalidCF = errors.New("certainty factor out of range")

	// ErrEngineSpent indicates an engine instance was run twice.
	ErrEngineSpent = errors.New("engine already ran")
)

// KnowledgeLoadError describes why a rule catalogue could not be loaded.
// It matches ErrKnowledgeLoad with errors.Is.
type KnowledgeLoadError struct {
	// Source is the catalogue location (usually a file path).
	Source string

	// Reason is a short human-readable cause.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

func (e *KnowledgeLoadError) Error() string {
	msg := fmt.Sprintf("loading knowledge base %q: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *KnowledgeLoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrKnowledgeLoad.
func (e *KnowledgeLoadError) Is(target error) bool {
	return target == ErrKnowledgeLoad
}

// InvalidCFError is returned when a certainty factor lies outside [-1, 1].
// It matches ErrInvalidCF with errors.Is.
type InvalidCFError struct {
	Value float64
}

func (e *InvalidCFError) Error() string {
	return fmt.Sprintf("certainty factor %v must be between -1 and 1", e.Value)
}

// Is reports whether target is ErrInvalidCF.
func (e *InvalidCFError) Is(target error) bool {
	return target == ErrInvalidCF
}

// RuleValidationError lists the reasons a rule was rejected.
// It matches ErrRuleInvalid with errors.Is.
type RuleValidationError struct {
	RuleID  string
	Reasons []string
}

func (e *RuleValidationError) Error() string {
	return fmt.Sprintf("rule %q is invalid: %v", e.RuleID, e.Reasons)
}

// Is reports whether target is ErrRuleInvalid.
func (e *RuleValidationError) Is(target error) bool {
	return target == ErrRuleInvalid
}
