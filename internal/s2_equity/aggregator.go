package s2_equity

import (
	"sort"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// Aggregator collapses multi-class parents to one canonical security per month
type Aggregator struct{}

// NewAggregator creates a new market equity aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

type groupKey struct {
	month  contracts.Month
	parent int64
}

// Aggregate sums market equity per (month, parent) and keeps only the security
// with the largest individual market equity, carrying the parent total.
// ⭐ SSOT: 동률이면 가장 작은 security_id (결정적 tie-break)
func (a *Aggregator) Aggregate(records []contracts.SecurityMonthRecord) []contracts.CompanyMonthRecord {
	groups := make(map[groupKey][]int)
	order := make([]groupKey, 0)

	for i, r := range records {
		k := groupKey{month: r.Month, parent: r.ParentID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	out := make([]contracts.CompanyMonthRecord, 0, len(order))
	for _, k := range order {
		members := groups[k]
		canonical := pickCanonical(records, members)

		r := records[canonical]
		out = append(out, contracts.CompanyMonthRecord{
			SecurityID:       r.SecurityID,
			ParentID:         r.ParentID,
			Date:             r.Date,
			Month:            r.Month,
			Return:           r.Return,
			ReturnExDividend: r.ReturnExDividend,
			ExchangeCode:     r.ExchangeCode,
			MarketEquity:     parentMarketEquity(records, members),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SecurityID != out[j].SecurityID {
			return out[i].SecurityID < out[j].SecurityID
		}
		return out[i].Month < out[j].Month
	})

	return out
}

// pickCanonical returns the index of the max-ME member.
// Members with missing ME never win unless every member is missing.
func pickCanonical(records []contracts.SecurityMonthRecord, members []int) int {
	best := -1
	bestME := 0.0
	lowest := members[0]

	for _, i := range members {
		if records[i].SecurityID < records[lowest].SecurityID {
			lowest = i
		}

		me := records[i].MarketEquity()
		if contracts.IsMissing(me) {
			continue
		}
		switch {
		case best < 0, me > bestME:
			best, bestME = i, me
		case me == bestME && records[i].SecurityID < records[best].SecurityID:
			best = i
		}
	}

	if best < 0 {
		return lowest
	}
	return best
}

// parentMarketEquity sums defined member MEs (NaN when none is defined)
func parentMarketEquity(records []contracts.SecurityMonthRecord, members []int) float64 {
	sum := 0.0
	defined := false
	for _, i := range members {
		me := records[i].MarketEquity()
		if contracts.IsMissing(me) {
			continue
		}
		sum += me
		defined = true
	}
	if !defined {
		return contracts.NaN()
	}
	return sum
}
