package certainty

import (
	"fmt"
	"math"
)

// Label is a qualitative reading of a certainty factor. Labels are ordered:
// a higher Label always corresponds to a higher CF.
type Label int

// Labels from weakest to strongest.
const (
	VeryDoubtful Label = iota
	Doubtful
	FairlyConvincing
	Convincing
	VeryConvincing
)

var labelNames = [...]string{
	VeryDoubtful:     "very doubtful",
	Doubtful:         "doubtful",
	FairlyConvincing: "fairly convincing",
	Convincing:       "convincing",
	VeryConvincing:   "very convincing",
}

// String returns the human-readable label.
func (l Label) String() string {
	if l < VeryDoubtful || l > VeryConvincing {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// threshold table, strongest first.
var thresholds = []struct {
	min   float64
	label Label
}{
	{0.85, VeryConvincing},
	{0.6, Convincing},
	{0.4, FairlyConvincing},
	{0.2, Doubtful},
}

// Interpret maps cf onto its Label. It is total over [-1, 1] and monotone
// non-decreasing.
func Interpret(cf float64) (Label, error) {
	if err := Validate(cf); err != nil {
		return VeryDoubtful, err
	}
	for _, t := range thresholds {
		if cf >= t.min {
			return t.label, nil
		}
	}
	return VeryDoubtful, nil
}

// MustInterpret is Interpret for values already known to be valid, such as
// engine output. Out-of-range input is clamped.
func MustInterpret(cf float64) Label {
	l, err := Interpret(clamp(cf))
	if err != nil {
		return VeryDoubtful
	}
	return l
}

// Category buckets a CF by magnitude, ignoring sign.
type Category string

// Categories by |cf|.
const (
	CategoryStrong   Category = "STRONG"
	CategoryModerate Category = "MODERATE"
	CategoryWeak     Category = "WEAK"
	CategoryVeryWeak Category = "VERY_WEAK"
	CategoryUnknown  Category = "UNKNOWN"
)

// Categorize returns the Category of cf.
func Categorize(cf float64) (Category, error) {
	if err := Validate(cf); err != nil {
		return CategoryUnknown, err
	}
	abs := math.Abs(cf)
	switch {
	case abs >= 0.8:
		return CategoryStrong, nil
	case abs >= 0.6:
		return CategoryModerate, nil
	case abs >= 0.4:
		return CategoryWeak, nil
	case abs > 0:
		return CategoryVeryWeak, nil
	default:
		return CategoryUnknown, nil
	}
}

// Strength describes a final CF in a sentence fragment, as used by
// explanations ("very strong", "strong", ...).
func Strength(cf float64) string {
	switch {
	case cf >= 0.8:
		return "very strong"
	case cf >= 0.6:
		return "strong"
	case cf >= 0.4:
		return "moderate"
	default:
		return "weak"
	}
}

// Percent formats cf as a percentage with one decimal.
func Percent(cf float64) string {
	return fmt.Sprintf("%.1f%%", cf*100)
}
