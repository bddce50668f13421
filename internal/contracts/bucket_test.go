package contracts

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllBuckets_ExactlySix(t *testing.T) {
	buckets := AllBuckets()
	assert.Len(t, buckets, 6)

	seen := make(map[BucketCode]bool)
	for _, b := range buckets {
		assert.True(t, b.IsValid())
		assert.False(t, seen[b], "duplicate bucket %s", b)
		seen[b] = true
	}
}

func TestNewBucketCode(t *testing.T) {
	sizes := []SizeLabel{SizeSmall, SizeBig}
	values := []ValueLabel{ValueLow, ValueMedium, ValueHigh}

	codes := make(map[BucketCode]bool)
	for _, s := range sizes {
		for _, v := range values {
			code, ok := NewBucketCode(s, v)
			assert.True(t, ok)
			codes[code] = true
		}
	}
	assert.Len(t, codes, 6)
	assert.True(t, codes[BucketSME])
	assert.True(t, codes[BucketBME])

	_, ok := NewBucketCode(SizeNone, ValueLow)
	assert.False(t, ok)
	_, ok = NewBucketCode(SizeBig, ValueNone)
	assert.False(t, ok)
	assert.False(t, BucketCode("SM").IsValid())
}

func TestFormationRecord_Eligible(t *testing.T) {
	tests := []struct {
		name   string
		record FormationRecord
		want   bool
	}{
		{"all positive", FormationRecord{BookToMarket: 0.5, MarketEquity: 10, ObservationCount: 1}, true},
		{"first year in compustat", FormationRecord{BookToMarket: 0.5, MarketEquity: 10, ObservationCount: 0}, false},
		{"missing beme", FormationRecord{BookToMarket: math.NaN(), MarketEquity: 10, ObservationCount: 3}, false},
		{"missing me", FormationRecord{BookToMarket: 0.5, MarketEquity: math.NaN(), ObservationCount: 3}, false},
		{"negative beme", FormationRecord{BookToMarket: -0.1, MarketEquity: 10, ObservationCount: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Eligible(1))
		})
	}
}

func TestSecurityMonthRecord_MarketEquity(t *testing.T) {
	// bid/ask midpoints are reported as negative prices
	r := SecurityMonthRecord{Price: -12.5, SharesOutstanding: 100}
	assert.Equal(t, 1250.0, r.MarketEquity())

	r.SharesOutstanding = math.NaN()
	assert.True(t, IsMissing(r.MarketEquity()))
}

func TestStructuralError(t *testing.T) {
	base := NewBadDate("CRSP_stock_ciz", "mthcaldt", 4, errors.New("bad layout"))
	wrapped := fmt.Errorf("load securities: %w", base)

	assert.True(t, IsStructural(wrapped))
	assert.False(t, IsStructural(errors.New("plain")))
	assert.Contains(t, base.Error(), "BAD_DATE")
	assert.Contains(t, base.Error(), `column "mthcaldt"`)
	assert.Contains(t, base.Error(), "row 4")

	var se *StructuralError
	assert.True(t, errors.As(wrapped, &se))
	assert.Equal(t, ErrKindBadDate, se.Kind)
}

func TestStage_ShortName(t *testing.T) {
	for i, stage := range AllStages() {
		assert.Equal(t, fmt.Sprintf("S%d", i), stage.ShortName())
		assert.True(t, IsValidStage(stage.String()))
	}
	assert.False(t, IsValidStage("S9_EXECUTION"))
}
