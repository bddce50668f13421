package s3_calendar

import (
	"sort"
	"time"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// DefaultFormationMonth is June (portfolios held July through the next June)
const DefaultFormationMonth = 6

// Aligner maps company-months onto the July–June holding calendar and
// derives formation weights from strictly prior market equity.
type Aligner struct {
	formationMonth int
}

// Result holds the two S3 outputs
type Result struct {
	Monthly []contracts.AlignedMonthRecord
	June    []contracts.JuneRecord
}

// NewAligner creates an aligner for the given formation month (1..11)
func NewAligner(formationMonth int) *Aligner {
	if formationMonth < 1 || formationMonth > 11 {
		formationMonth = DefaultFormationMonth
	}
	return &Aligner{formationMonth: formationMonth}
}

type yearKey struct {
	security int64
	year     int
}

// Align builds the monthly panel and the June panel with December ME.
// ⭐ SSOT: wt는 반드시 해당 월 이전의 ME로만 계산 (look-ahead 금지)
func (a *Aligner) Align(records []contracts.CompanyMonthRecord) *Result {
	rows := make([]contracts.CompanyMonthRecord, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SecurityID != rows[j].SecurityID {
			return rows[i].SecurityID < rows[j].SecurityID
		}
		return rows[i].Month < rows[j].Month
	})

	monthly := make([]contracts.AlignedMonthRecord, len(rows))
	decME := make(map[yearKey]float64)

	// 1. offset 달력, 누적 지수, lag
	var (
		prevSecurity int64
		prevYear     int
		prevCum      float64
		prevME       float64
		runningProd  float64
	)
	for i, r := range rows {
		offset := r.Month.Add(-a.formationMonth)
		gross := 1 + r.ReturnExDividend
		first := i == 0 || r.SecurityID != prevSecurity

		if first || offset.Year() != prevYear {
			runningProd = 1
		}
		cum := contracts.NaN()
		if !contracts.IsMissing(gross) {
			runningProd *= gross
			cum = runningProd
		}

		m := contracts.AlignedMonthRecord{
			SecurityID:       r.SecurityID,
			Month:            r.Month,
			Return:           r.Return,
			ReturnExDividend: r.ReturnExDividend,
			ExchangeCode:     r.ExchangeCode,
			MarketEquity:     r.MarketEquity,
			OffsetYear:       offset.Year(),
			OffsetMonth:      int(offset.Month()),
			CumIndex:         cum,
		}
		if first {
			m.LagIndex = contracts.NaN()
			m.LagMarketEquity = r.MarketEquity / gross
		} else {
			m.LagIndex = prevCum
			m.LagMarketEquity = prevME
		}
		monthly[i] = m

		if r.Month.Month() == time.December {
			decME[yearKey{security: r.SecurityID, year: r.Month.Year() + 1}] = r.MarketEquity
		}

		prevSecurity = r.SecurityID
		prevYear = offset.Year()
		prevCum = cum
		prevME = r.MarketEquity
	}

	// 2. 기준 ME (offset month 1의 lag ME)
	base := make(map[yearKey]float64)
	for _, m := range monthly {
		if m.OffsetMonth == 1 {
			base[yearKey{security: m.SecurityID, year: m.OffsetYear}] = m.LagMarketEquity
		}
	}

	// 3. 가중치
	for i := range monthly {
		m := &monthly[i]
		mebase, ok := base[yearKey{security: m.SecurityID, year: m.OffsetYear}]
		if !ok {
			mebase = contracts.NaN()
		}
		m.BaseMarketEquity = mebase
		if m.OffsetMonth == 1 {
			m.Weight = m.LagMarketEquity
		} else {
			m.Weight = mebase * m.LagIndex
		}
	}

	// 4. 6월 스냅샷 + 전년 12월 ME (inner join)
	june := make([]contracts.JuneRecord, 0)
	for _, m := range monthly {
		if int(m.Month.Month()) != a.formationMonth {
			continue
		}
		dec, ok := decME[yearKey{security: m.SecurityID, year: m.Month.Year()}]
		if !ok {
			continue
		}
		june = append(june, contracts.JuneRecord{
			SecurityID:       m.SecurityID,
			Month:            m.Month,
			ExchangeCode:     m.ExchangeCode,
			MarketEquity:     m.MarketEquity,
			Weight:           m.Weight,
			DecemberMarketEq: dec,
		})
	}

	return &Result{Monthly: monthly, June: june}
}
