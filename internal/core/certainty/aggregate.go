package certainty

import (
	"fmt"
	"math"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// Method selects how several CFs for the same hypothesis are aggregated.
type Method string

// Aggregation methods.
const (
	MethodAverage  Method = "average"
	MethodMax      Method = "max"
	MethodMin      Method = "min"
	MethodCombined Method = "combined"
)

// Aggregate reduces cfs with the given method. An empty list yields 0.
// Unknown methods return domain.ErrInvalidInput.
func Aggregate(cfs []float64, method Method) (float64, error) {
	if err := validateAll(cfs...); err != nil {
		return 0, err
	}
	if len(cfs) == 0 {
		return 0, nil
	}

	switch method {
	case MethodAverage:
		var sum float64
		for _, cf := range cfs {
			sum += cf
		}
		return sum / float64(len(cfs)), nil
	case MethodMax:
		out := cfs[0]
		for _, cf := range cfs[1:] {
			out = math.Max(out, cf)
		}
		return out, nil
	case MethodMin:
		out := cfs[0]
		for _, cf := range cfs[1:] {
			out = math.Min(out, cf)
		}
		return out, nil
	case MethodCombined:
		return combineMany(cfs), nil
	default:
		return 0, fmt.Errorf("aggregation method %q: %w", method, domain.ErrInvalidInput)
	}
}
