package hubs

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidPercentile is returned when a percentile lies outside [0, 1].
var ErrInvalidPercentile = errors.New("percentile must be within [0, 1]")

// Percentile returns the p-th quantile of values (p in [0, 1]) using linear
// interpolation between order statistics: with x sorted ascending and
// h = (len(x)-1)*p, the result is x[floor(h)] + (h-floor(h))*(x[floor(h)+1]-x[floor(h)]).
// This is the "linear" rule used by NumPy and pandas by default.
//
// values is not modified. An empty input yields 0.
func Percentile(values []float64, p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidPercentile, p)
	}
	if len(values) == 0 {
		return 0, nil
	}

	x := make([]float64, len(values))
	copy(x, values)
	sort.Float64s(x)

	h := float64(len(x)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(x)-1 {
		return x[len(x)-1], nil
	}
	frac := h - float64(lo)
	return x[lo] + frac*(x[lo+1]-x[lo]), nil
}

// flat reports whether every value is identical, i.e. the distribution
// cannot rank any observation above another.
func flat(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
