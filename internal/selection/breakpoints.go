package selection

import (
	"sort"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/internal/methodology"
)

// Breakpoints are the NYSE-derived cut points for one formation month
type Breakpoints struct {
	Formation  contracts.Month `json:"jdate"`
	SizeMedian float64         `json:"sizemedn"`
	ValueLow   float64         `json:"bm30"`
	ValueHigh  float64         `json:"bm70"`
	Count      int             `json:"n"`
}

// ComputeBreakpoints derives per-month breakpoints from the eligible subset
// on the breakpoint exchange only.
// ⭐ SSOT: breakpoint는 NYSE eligible만, 적용은 전체 eligible universe
func ComputeBreakpoints(records []contracts.FormationRecord, rules methodology.Breakpoints) map[contracts.Month]Breakpoints {
	sizes := make(map[contracts.Month][]float64)
	values := make(map[contracts.Month][]float64)

	for _, r := range records {
		if r.ExchangeCode != rules.Exchange || !r.Eligible(rules.MinObservationCount) {
			continue
		}
		sizes[r.Formation] = append(sizes[r.Formation], r.MarketEquity)
		values[r.Formation] = append(values[r.Formation], r.BookToMarket)
	}

	out := make(map[contracts.Month]Breakpoints, len(sizes))
	for month, me := range sizes {
		beme := values[month]
		out[month] = Breakpoints{
			Formation:  month,
			SizeMedian: Quantile(me, rules.SizePercentile),
			ValueLow:   Quantile(beme, rules.ValueLowPercentile),
			ValueHigh:  Quantile(beme, rules.ValueHighPercentile),
			Count:      len(me),
		}
	}
	return out
}

// SortedBreakpoints returns breakpoints ordered by formation month
func SortedBreakpoints(bps map[contracts.Month]Breakpoints) []Breakpoints {
	out := make([]Breakpoints, 0, len(bps))
	for _, bp := range bps {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Formation < out[j].Formation
	})
	return out
}
