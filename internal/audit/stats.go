package audit

import (
	"math"

	"github.com/goccy/go-json"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// SeriesStats compares a computed series with its reference
type SeriesStats struct {
	N           int     `json:"n"`
	Correlation float64 `json:"correlation"`
	RMSE        float64 `json:"rmse"`
	MeanDiff    float64 `json:"mean_diff"`
}

// MarshalJSON writes undefined statistics as null
func (s SeriesStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		N           int      `json:"n"`
		Correlation *float64 `json:"correlation"`
		RMSE        *float64 `json:"rmse"`
		MeanDiff    *float64 `json:"mean_diff"`
	}{
		N:           s.N,
		Correlation: nullable(s.Correlation),
		RMSE:        nullable(s.RMSE),
		MeanDiff:    nullable(s.MeanDiff),
	})
}

func nullable(v float64) *float64 {
	if contracts.IsMissing(v) {
		return nil
	}
	return &v
}

// compareSeries computes stats over pairs where both values are defined
func compareSeries(manual, reference []float64) SeriesStats {
	xs := make([]float64, 0, len(manual))
	ys := make([]float64, 0, len(manual))
	for i := range manual {
		if contracts.IsMissing(manual[i]) || contracts.IsMissing(reference[i]) {
			continue
		}
		xs = append(xs, manual[i])
		ys = append(ys, reference[i])
	}

	stats := SeriesStats{
		N:           len(xs),
		Correlation: Pearson(xs, ys),
		RMSE:        contracts.NaN(),
		MeanDiff:    contracts.NaN(),
	}
	if len(xs) == 0 {
		return stats
	}

	var sumSq, sumDiff float64
	for i := range xs {
		diff := xs[i] - ys[i]
		sumSq += diff * diff
		sumDiff += diff
	}
	n := float64(len(xs))
	stats.RMSE = math.Sqrt(sumSq / n)
	stats.MeanDiff = sumDiff / n
	return stats
}

// Pearson returns the sample correlation (NaN for < 2 points or zero variance)
func Pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return contracts.NaN()
	}

	// Mean
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	n := float64(len(xs))
	meanX, meanY := sumX/n, sumY/n

	// Covariance / variance
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return contracts.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}
