package s2_equity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

func secMonth(permno, permco int64, price, shares float64) contracts.SecurityMonthRecord {
	return contracts.SecurityMonthRecord{
		SecurityID:        permno,
		ParentID:          permco,
		Month:             contracts.NewMonth(2020, time.June),
		Price:             price,
		SharesOutstanding: shares,
	}
}

func TestAggregate_MultiClassParent(t *testing.T) {
	// 50 + 150 → 200, canonical = 150짜리
	input := []contracts.SecurityMonthRecord{
		secMonth(10001, 1, 5, 10),
		secMonth(10002, 1, -15, 10),
	}

	out := NewAggregator().Aggregate(input)

	require.Len(t, out, 1)
	assert.Equal(t, int64(10002), out[0].SecurityID)
	assert.InDelta(t, 200.0, out[0].MarketEquity, 1e-9)
}

func TestAggregate_TieBreak(t *testing.T) {
	tests := []struct {
		name    string
		input   []contracts.SecurityMonthRecord
		wantID  int64
		wantME  float64
		wantNaN bool
	}{
		{
			name: "equal ME picks lowest id",
			input: []contracts.SecurityMonthRecord{
				secMonth(20002, 7, 10, 10),
				secMonth(20001, 7, 10, 10),
			},
			wantID: 20001,
			wantME: 200,
		},
		{
			name: "missing ME never wins",
			input: []contracts.SecurityMonthRecord{
				secMonth(30001, 8, contracts.NaN(), 10),
				secMonth(30002, 8, 2, 10),
			},
			wantID: 30002,
			wantME: 20,
		},
		{
			name: "all missing keeps lowest id",
			input: []contracts.SecurityMonthRecord{
				secMonth(40002, 9, contracts.NaN(), 10),
				secMonth(40001, 9, 3, contracts.NaN()),
			},
			wantID:  40001,
			wantNaN: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewAggregator().Aggregate(tt.input)
			require.Len(t, out, 1)
			assert.Equal(t, tt.wantID, out[0].SecurityID)
			if tt.wantNaN {
				assert.True(t, contracts.IsMissing(out[0].MarketEquity))
				return
			}
			assert.InDelta(t, tt.wantME, out[0].MarketEquity, 1e-9)
		})
	}
}

func TestAggregate_SortedBySecurityThenMonth(t *testing.T) {
	a := secMonth(3, 3, 1, 1)
	b := secMonth(1, 1, 1, 1)
	c := secMonth(1, 1, 1, 1)
	c.Month = b.Month.Add(-1)

	out := NewAggregator().Aggregate([]contracts.SecurityMonthRecord{a, b, c})

	require.Len(t, out, 3)
	assert.Equal(t, int64(1), out[0].SecurityID)
	assert.Equal(t, c.Month, out[0].Month)
	assert.Equal(t, b.Month, out[1].Month)
	assert.Equal(t, int64(3), out[2].SecurityID)
}
