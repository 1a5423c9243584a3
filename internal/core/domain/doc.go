// Package domain defines the core business entities for diagnosa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Rule: An IF-THEN production with a certainty factor
//   - Catalogue: The persisted knowledge base document
//   - ConsultationInput / ConsultationResult: The engine's input and output contract
//   - Conclusion / ReasoningStep: What fired and why
//   - GoalResult: Outcome of goal verification
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
