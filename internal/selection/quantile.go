package selection

import (
	"math"
	"sort"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// Quantile returns the p-th quantile (0..1) with linear interpolation
// between order statistics: h = (n-1)·p, x[⌊h⌋] + (h-⌊h⌋)·(x[⌊h⌋+1]-x[⌊h⌋]).
// Missing values are ignored; an empty input yields NaN.
func Quantile(values []float64, p float64) float64 {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !contracts.IsMissing(v) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 || p < 0 || p > 1 {
		return contracts.NaN()
	}
	sort.Float64s(xs)

	h := float64(len(xs)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(xs)-1 {
		return xs[len(xs)-1]
	}
	return xs[lo] + (h-float64(lo))*(xs[lo+1]-xs[lo])
}

// Median is Quantile(values, 0.5)
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}
