package certainty

import (
	"math"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// Bounds of a certainty factor.
const (
	Min = -1.0
	Max = 1.0
)

// Validate returns an *domain.InvalidCFError if cf lies outside [-1, 1].
// NaN is rejected.
func Validate(cf float64) error {
	if math.IsNaN(cf) || cf < Min || cf > Max {
		return &domain.InvalidCFError{Value: cf}
	}
	return nil
}

func validateAll(cfs ...float64) error {
	for _, cf := range cfs {
		if err := Validate(cf); err != nil {
			return err
		}
	}
	return nil
}

// Combine merges two certainty factors for the same hypothesis.
//
//	both >= 0:  a + b(1 - a)
//	both <  0:  a + b(1 + a)
//	otherwise:  (a + b) / (1 - min(|a|, |b|))
//
// The mixed-sign formula is undefined when one operand is 1 and the other
// -1. In that case the operand with the larger magnitude wins, and equal
// magnitudes cancel to 0.
func Combine(a, b float64) (float64, error) {
	if err := validateAll(a, b); err != nil {
		return 0, err
	}
	return combine(a, b), nil
}

func combine(a, b float64) float64 {
	switch {
	case a >= 0 && b >= 0:
		return a + b*(1-a)
	case a < 0 && b < 0:
		return a + b*(1+a)
	}

	denom := 1 - math.Min(math.Abs(a), math.Abs(b))
	if denom == 0 {
		switch {
		case math.Abs(a) > math.Abs(b):
			return a
		case math.Abs(b) > math.Abs(a):
			return b
		default:
			return 0
		}
	}
	return clamp((a + b) / denom)
}

// CombineMany folds Combine left to right. An empty list yields 0 and a
// single value is returned unchanged.
func CombineMany(cfs []float64) (float64, error) {
	if err := validateAll(cfs...); err != nil {
		return 0, err
	}
	return combineMany(cfs), nil
}

func combineMany(cfs []float64) float64 {
	if len(cfs) == 0 {
		return 0
	}
	acc := cfs[0]
	for _, cf := range cfs[1:] {
		acc = combine(acc, cf)
	}
	return acc
}

// RuleCF scales the combined evidence by the rule's own certainty:
// clamp(ruleCF * CombineMany(evidence)). Empty evidence yields 0.
// Inputs are validated; only the product is clamped.
func RuleCF(ruleCF float64, evidence []float64) (float64, error) {
	if err := Validate(ruleCF); err != nil {
		return 0, err
	}
	if err := validateAll(evidence...); err != nil {
		return 0, err
	}
	if len(evidence) == 0 {
		return 0, nil
	}
	return clamp(ruleCF * combineMany(evidence)), nil
}

// BeliefDisbelief splits cf into its measure of belief (MB) and measure
// of disbelief (MD), so that cf = MB - MD with at most one of them non-zero.
func BeliefDisbelief(cf float64) (mb, md float64, err error) {
	if err := Validate(cf); err != nil {
		return 0, 0, err
	}
	switch {
	case cf > 0:
		return cf, 0, nil
	case cf < 0:
		return 0, -cf, nil
	default:
		return 0, 0, nil
	}
}

// FromBeliefDisbelief returns MB - MD. Both measures must lie in [0, 1].
func FromBeliefDisbelief(mb, md float64) (float64, error) {
	for _, v := range []float64{mb, md} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return 0, &domain.InvalidCFError{Value: v}
		}
	}
	return mb - md, nil
}

// Normalize maps a CF from [-1, 1] onto [0, 1].
func Normalize(cf float64) (float64, error) {
	if err := Validate(cf); err != nil {
		return 0, err
	}
	return (cf + 1) / 2, nil
}

// Denormalize maps a value from [0, 1] back onto [-1, 1].
func Denormalize(v float64) (float64, error) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, &domain.InvalidCFError{Value: v}
	}
	return v*2 - 1, nil
}

func clamp(cf float64) float64 {
	return math.Max(Min, math.Min(Max, cf))
}
