package portfolio

import (
	"sort"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// Aggregator implements S6: value-weighted bucket returns
type Aggregator struct{}

// NewAggregator creates a new portfolio aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

type bucketKey struct {
	month  contracts.Month
	bucket contracts.BucketCode
}

type accumulator struct {
	size   contracts.SizeLabel
	value  contracts.ValueLabel
	sumRW  float64
	sumW   float64
	nFirms int
}

// Aggregate computes vwret = Σ(r·w)/Σw and n_firms per (month, size, value).
// Every defined weight counts in Σw; a missing return only drops the row
// from Σ(r·w) and from the firm count.
// ⭐ SSOT: Σw = 0 이면 vwret 결측 (DegenerateAggregation, 에러 아님)
func (a *Aggregator) Aggregate(holdings []contracts.HoldingRecord) []contracts.PortfolioReturn {
	groups := make(map[bucketKey]*accumulator)

	for _, h := range holdings {
		code, ok := contracts.NewBucketCode(h.Size, h.Value)
		if !ok {
			continue
		}
		k := bucketKey{month: h.Month, bucket: code}
		acc, exists := groups[k]
		if !exists {
			acc = &accumulator{size: h.Size, value: h.Value}
			groups[k] = acc
		}
		if contracts.IsMissing(h.Weight) {
			continue
		}
		acc.sumW += h.Weight
		if contracts.IsMissing(h.Return) {
			continue
		}
		acc.sumRW += h.Return * h.Weight
		acc.nFirms++
	}

	out := make([]contracts.PortfolioReturn, 0, len(groups))
	for k, acc := range groups {
		vwret := contracts.NaN()
		if acc.sumW != 0 {
			vwret = acc.sumRW / acc.sumW
		}
		out = append(out, contracts.PortfolioReturn{
			Month:  k.month,
			Size:   acc.size,
			Value:  acc.value,
			Bucket: k.bucket,
			VWRet:  vwret,
			NFirms: acc.nFirms,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return bucketRank(out[i].Bucket) < bucketRank(out[j].Bucket)
	})
	return out
}

func bucketRank(code contracts.BucketCode) int {
	for i, c := range contracts.AllBuckets() {
		if c == code {
			return i
		}
	}
	return len(contracts.AllBuckets())
}
