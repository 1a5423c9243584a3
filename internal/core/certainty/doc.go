// Package certainty implements the certainty-factor calculus.
//
// A certainty factor (CF) is a number in [-1, 1]: 1 is certainly true,
// -1 certainly false and 0 unknown. Every exported function rejects inputs
// outside that range with a *domain.InvalidCFError; outputs are clamped
// only where noted.
//
// The engine uses RuleCF, Combine, Interpret and Categorize. Aggregate,
// Normalize, Denormalize and the MB/MD conversions are exported for callers
// that embed the calculator, such as tools that score evidence on a [0, 1]
// scale.
//
// The package is pure. It holds no state and is safe for concurrent use.
package certainty
