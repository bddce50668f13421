package s0_data

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

var nan = math.NaN()

func filing(gvkey string, year int, seq, txditc, pstkrv, pstkl, pstk float64) contracts.FundamentalsRecord {
	return contracts.FundamentalsRecord{
		EntityID:             gvkey,
		PeriodEnd:            time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		StockholdersEquity:   seq,
		DeferredTaxCredit:    txditc,
		PreferredRedemption:  pstkrv,
		PreferredLiquidation: pstkl,
		PreferredPar:         pstk,
	}
}

func TestPreferredStock(t *testing.T) {
	tests := []struct {
		name   string
		record contracts.FundamentalsRecord
		want   float64
	}{
		{"redemption first", filing("1", 2000, 0, 0, 5, 6, 7), 5},
		{"liquidation fallback", filing("1", 2000, 0, 0, nan, 6, 7), 6},
		{"par fallback", filing("1", 2000, 0, 0, nan, nan, 7), 7},
		{"all missing", filing("1", 2000, 0, 0, nan, nan, nan), 0},
		{"zero redemption is a value", filing("1", 2000, 0, 0, 0, 6, 7), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PreferredStock(tt.record))
		})
	}
}

func TestBookEquity(t *testing.T) {
	tests := []struct {
		name    string
		record  contracts.FundamentalsRecord
		want    float64
		missing bool
	}{
		{"basic", filing("1", 2000, 100, 10, 5, nan, nan), 105, false},
		{"missing txditc is zero", filing("1", 2000, 100, nan, 5, nan, nan), 95, false},
		{"zero be undefined", filing("1", 2000, 10, 0, 10, nan, nan), 0, true},
		{"negative be undefined", filing("1", 2000, 10, 0, 50, nan, nan), 0, true},
		{"missing seq undefined", filing("1", 2000, nan, 10, nan, nan, nan), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BookEquity(tt.record)
			if tt.missing {
				assert.True(t, math.IsNaN(got), "expected NaN, got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPreparer_Prepare(t *testing.T) {
	records := []contracts.FundamentalsRecord{
		filing("002", 2001, 50, 0, nan, nan, nan),
		filing("001", 2002, 30, 0, nan, nan, nan),
		filing("001", 2000, 10, 0, nan, nan, nan),
		filing("002", 2000, -5, 0, nan, nan, nan),
		filing("001", 2001, 20, 0, nan, nan, nan),
	}

	out := NewPreparer().Prepare(records)
	require.Len(t, out, 5)

	want := []struct {
		gvkey string
		year  int
		count int
	}{
		{"001", 2000, 0},
		{"001", 2001, 1},
		{"001", 2002, 2},
		{"002", 2000, 0},
		{"002", 2001, 1},
	}
	for i, w := range want {
		assert.Equal(t, w.gvkey, out[i].EntityID)
		assert.Equal(t, w.year, out[i].FiscalYear)
		assert.Equal(t, w.count, out[i].ObservationCount)
	}

	// 002/2000 has negative book equity but still advances the count
	assert.False(t, out[3].HasBookEquity())

	// input is not mutated
	assert.Equal(t, "002", records[0].EntityID)
}

func TestPreparer_BookEquityNeverNonPositive(t *testing.T) {
	var records []contracts.FundamentalsRecord
	for i := -20; i <= 20; i++ {
		records = append(records, filing("x", 1980+i+20, float64(i*7), float64(i%3), float64(i%5), nan, nan))
	}

	for _, r := range NewPreparer().Prepare(records) {
		if r.HasBookEquity() {
			assert.Greater(t, r.BookEquity, 0.0)
		}
	}
}
