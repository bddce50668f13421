package s0_data

import (
	"math"
	"sort"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// Preparer derives book equity and years-in-Compustat from annual filings
type Preparer struct{}

// NewPreparer creates a new fundamentals Preparer
func NewPreparer() *Preparer {
	return &Preparer{}
}

// Prepare computes book equity per filing
// ⭐ SSOT: S0 장부가치 계산 (be <= 0 → NaN, 0으로 두지 않음)
//
// 출력은 (entity, period_end) 정렬, count는 entity별 0부터 시작
func (p *Preparer) Prepare(records []contracts.FundamentalsRecord) []contracts.BookEquityRecord {
	sorted := make([]contracts.FundamentalsRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EntityID != sorted[j].EntityID {
			return sorted[i].EntityID < sorted[j].EntityID
		}
		return sorted[i].PeriodEnd.Before(sorted[j].PeriodEnd)
	})

	out := make([]contracts.BookEquityRecord, 0, len(sorted))
	count := 0
	for i, r := range sorted {
		if i > 0 && sorted[i-1].EntityID == r.EntityID {
			count++
		} else {
			count = 0
		}

		out = append(out, contracts.BookEquityRecord{
			EntityID:         r.EntityID,
			PeriodEnd:        r.PeriodEnd,
			FiscalYear:       r.PeriodEnd.Year(),
			BookEquity:       BookEquity(r),
			ObservationCount: count,
		})
	}

	return out
}

// PreferredStock returns redemption, else liquidation, else par value, else 0
func PreferredStock(r contracts.FundamentalsRecord) float64 {
	for _, v := range []float64{r.PreferredRedemption, r.PreferredLiquidation, r.PreferredPar} {
		if !math.IsNaN(v) {
			return v
		}
	}
	return 0
}

// BookEquity returns seq + txditc - ps, or NaN when the result is not positive.
// Missing txditc counts as 0; missing seq yields NaN.
func BookEquity(r contracts.FundamentalsRecord) float64 {
	txditc := r.DeferredTaxCredit
	if math.IsNaN(txditc) {
		txditc = 0
	}

	be := r.StockholdersEquity + txditc - PreferredStock(r)
	if !(be > 0) {
		return math.NaN()
	}
	return be
}
