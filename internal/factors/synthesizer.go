package factors

import (
	"sort"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// Synthesizer implements S7: SMB/HML from the six bucket returns
type Synthesizer struct{}

// NewSynthesizer creates a new factor synthesizer
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Result holds the factor series and its firm counts
type Result struct {
	Factors    []contracts.FactorRecord
	FirmCounts []contracts.FirmCountRecord
}

type monthRow struct {
	ret   map[contracts.BucketCode]float64
	count map[contracts.BucketCode]int
}

// Synthesize pivots bucket returns by month and combines them:
//
//	HML = (BH+SH)/2 − (BL+SL)/2
//	SMB = (SL+SME+SH)/3 − (BL+BME+BH)/3
//
// A month missing any bucket gets NaN factors; its firm counts treat the
// missing bucket as 0.
func (s *Synthesizer) Synthesize(portfolios []contracts.PortfolioReturn) *Result {
	rows := make(map[contracts.Month]*monthRow)
	for _, p := range portfolios {
		row, ok := rows[p.Month]
		if !ok {
			row = &monthRow{
				ret:   make(map[contracts.BucketCode]float64),
				count: make(map[contracts.BucketCode]int),
			}
			rows[p.Month] = row
		}
		row.ret[p.Bucket] = p.VWRet
		row.count[p.Bucket] = p.NFirms
	}

	months := make([]contracts.Month, 0, len(rows))
	for m := range rows {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	result := &Result{
		Factors:    make([]contracts.FactorRecord, 0, len(months)),
		FirmCounts: make([]contracts.FirmCountRecord, 0, len(months)),
	}
	for _, m := range months {
		row := rows[m]
		smb, hml := Factors(row.ret)
		result.Factors = append(result.Factors, contracts.FactorRecord{Month: m, SMB: smb, HML: hml})

		counts := FirmCounts(row.count)
		counts.Month = m
		result.FirmCounts = append(result.FirmCounts, counts)
	}
	return result
}

// Factors combines one month of bucket returns into SMB and HML
func Factors(ret map[contracts.BucketCode]float64) (smb, hml float64) {
	get := func(code contracts.BucketCode) float64 {
		v, ok := ret[code]
		if !ok {
			return contracts.NaN()
		}
		return v
	}

	high := (get(contracts.BucketBH) + get(contracts.BucketSH)) / 2
	low := (get(contracts.BucketBL) + get(contracts.BucketSL)) / 2
	hml = high - low

	big := (get(contracts.BucketBL) + get(contracts.BucketBME) + get(contracts.BucketBH)) / 3
	small := (get(contracts.BucketSL) + get(contracts.BucketSME) + get(contracts.BucketSH)) / 3
	smb = small - big

	return smb, hml
}

// FirmCounts sums the same groupings: HML = SH+BH+SL+BL, SMB = TOTAL = all six
func FirmCounts(count map[contracts.BucketCode]int) contracts.FirmCountRecord {
	hml := count[contracts.BucketSH] + count[contracts.BucketBH] +
		count[contracts.BucketSL] + count[contracts.BucketBL]

	smb := 0
	for _, code := range contracts.AllBuckets() {
		smb += count[code]
	}

	return contracts.FirmCountRecord{SMB: smb, HML: hml, Total: smb}
}
