package factors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

var july = contracts.NewMonth(2020, time.July)

func fullMonth(m contracts.Month, rets map[contracts.BucketCode]float64, counts map[contracts.BucketCode]int) []contracts.PortfolioReturn {
	out := make([]contracts.PortfolioReturn, 0, 6)
	for _, code := range contracts.AllBuckets() {
		r, ok := rets[code]
		if !ok {
			continue
		}
		out = append(out, contracts.PortfolioReturn{Month: m, Bucket: code, VWRet: r, NFirms: counts[code]})
	}
	return out
}

func TestFactors(t *testing.T) {
	ret := map[contracts.BucketCode]float64{
		contracts.BucketSL:  0.01,
		contracts.BucketSME: 0.02,
		contracts.BucketSH:  0.03,
		contracts.BucketBL:  0.00,
		contracts.BucketBME: 0.01,
		contracts.BucketBH:  0.02,
	}

	smb, hml := Factors(ret)

	// S = 0.02, B = 0.01 → SMB 0.01; H = 0.025, L = 0.005 → HML 0.02
	assert.InDelta(t, 0.01, smb, 1e-12)
	assert.InDelta(t, 0.02, hml, 1e-12)
}

func TestFirmCounts_Identity(t *testing.T) {
	counts := map[contracts.BucketCode]int{
		contracts.BucketSL:  2,
		contracts.BucketSME: 3,
		contracts.BucketSH:  1,
		contracts.BucketBL:  4,
		contracts.BucketBME: 2,
		contracts.BucketBH:  5,
	}

	got := FirmCounts(counts)

	assert.Equal(t, 17, got.Total)
	assert.Equal(t, 17, got.SMB)
	assert.Equal(t, 12, got.HML)
}

func TestSynthesize(t *testing.T) {
	rets := map[contracts.BucketCode]float64{
		contracts.BucketSL: 0.01, contracts.BucketSME: 0.02, contracts.BucketSH: 0.03,
		contracts.BucketBL: 0.00, contracts.BucketBME: 0.01, contracts.BucketBH: 0.02,
	}
	counts := map[contracts.BucketCode]int{
		contracts.BucketSL: 2, contracts.BucketSME: 3, contracts.BucketSH: 1,
		contracts.BucketBL: 4, contracts.BucketBME: 2, contracts.BucketBH: 5,
	}

	partial := map[contracts.BucketCode]float64{contracts.BucketSL: 0.01, contracts.BucketBL: 0.02}
	input := append(fullMonth(july.Add(1), partial, counts), fullMonth(july, rets, counts)...)

	result := NewSynthesizer().Synthesize(input)

	require.Len(t, result.Factors, 2)
	require.Len(t, result.FirmCounts, 2)

	assert.Equal(t, july, result.Factors[0].Month)
	assert.InDelta(t, 0.01, result.Factors[0].SMB, 1e-12)
	assert.InDelta(t, 0.02, result.Factors[0].HML, 1e-12)
	assert.Equal(t, 17, result.FirmCounts[0].Total)

	// 버킷 누락 월: 팩터 결측, 카운트는 0으로 합산
	assert.True(t, contracts.IsMissing(result.Factors[1].SMB))
	assert.True(t, contracts.IsMissing(result.Factors[1].HML))
	assert.Equal(t, 6, result.FirmCounts[1].Total)
	assert.Equal(t, 6, result.FirmCounts[1].HML)
}
