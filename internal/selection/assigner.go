package selection

import (
	"sort"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/internal/methodology"
)

// SizeOf labels market equity against the size median.
// me <= median → S, otherwise B; undefined inputs give no label.
func SizeOf(me, median float64) contracts.SizeLabel {
	if contracts.IsMissing(me) || contracts.IsMissing(median) {
		return contracts.SizeNone
	}
	if me <= median {
		return contracts.SizeSmall
	}
	return contracts.SizeBig
}

// ValueOf labels book-to-market against the 30th/70th breakpoints.
// 0 <= beme <= bm30 → L, <= bm70 → ME, > bm70 → H; anything else is unassigned.
func ValueOf(beme, low, high float64) contracts.ValueLabel {
	switch {
	case 0 <= beme && beme <= low:
		return contracts.ValueLow
	case beme <= high:
		return contracts.ValueMedium
	case beme > high:
		return contracts.ValueHigh
	default:
		return contracts.ValueNone
	}
}

// Assigner implements S5: breakpoints, June labels and July–June propagation
type Assigner struct {
	rules methodology.Breakpoints
}

// NewAssigner creates a new bucket assigner
func NewAssigner(rules methodology.Breakpoints) *Assigner {
	return &Assigner{rules: rules}
}

// Assign labels every formation record with its size and value bucket.
// Labels stay empty unless beme > 0, me > 0 and count >= min.
func (a *Assigner) Assign(records []contracts.FormationRecord) ([]contracts.FormationRecord, map[contracts.Month]Breakpoints) {
	bps := ComputeBreakpoints(records, a.rules)

	out := make([]contracts.FormationRecord, len(records))
	for i, r := range records {
		r.Size = contracts.SizeNone
		r.Value = contracts.ValueNone
		r.PositiveBM = r.Eligible(a.rules.MinObservationCount)

		if bp, ok := bps[r.Formation]; ok && r.PositiveBM {
			r.Size = SizeOf(r.MarketEquity, bp.SizeMedian)
			r.Value = ValueOf(r.BookToMarket, bp.ValueLow, bp.ValueHigh)
		}
		out[i] = r
	}
	return out, bps
}

type holdingKey struct {
	security int64
	year     int
}

// Propagate carries June labels to the monthly rows of the following
// July..June and applies the final gate: wt > 0, posbm and a value label.
// ⭐ SSOT: 버킷은 형성 후 12개월 고정
func (a *Assigner) Propagate(labeled []contracts.FormationRecord, monthly []contracts.AlignedMonthRecord) []contracts.HoldingRecord {
	labels := make(map[holdingKey]contracts.FormationRecord, len(labeled))
	for _, r := range labeled {
		labels[holdingKey{security: r.SecurityID, year: r.Formation.Year()}] = r
	}

	out := make([]contracts.HoldingRecord, 0, len(monthly))
	for _, m := range monthly {
		r, ok := labels[holdingKey{security: m.SecurityID, year: m.OffsetYear}]
		if !ok {
			continue
		}
		if !(m.Weight > 0) || !r.PositiveBM || !r.NonMissing() {
			continue
		}
		out = append(out, contracts.HoldingRecord{
			SecurityID: m.SecurityID,
			Month:      m.Month,
			Return:     m.Return,
			Weight:     m.Weight,
			Size:       r.Size,
			Value:      r.Value,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].SecurityID < out[j].SecurityID
	})
	return out
}
