package panel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

func row(permno int64, day time.Time, ret, retx float64) contracts.SecurityMonthRecord {
	return contracts.SecurityMonthRecord{SecurityID: permno, Date: day, Return: ret, ReturnExDividend: retx}
}

func TestBuild(t *testing.T) {
	jan := time.Date(2020, time.January, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2020, time.February, 28, 0, 0, 0, 0, time.UTC)

	records := []contracts.SecurityMonthRecord{
		row(20, jan, 0.01, 0.005),
		row(10, feb, contracts.NaN(), 0.02),
		row(10, jan, 0.03, contracts.NaN()),
	}

	tests := []struct {
		name    string
		field   Field
		wantIDs []int64
		wantY   []float64
	}{
		{"ret", FieldReturn, []int64{10, 20}, []float64{0.03, 0.01}},
		{"retx", FieldReturnExDividend, []int64{10, 20}, []float64{0.02, 0.005}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Build(records, tt.field)
			require.Len(t, out, len(tt.wantIDs))
			for i := range out {
				assert.Equal(t, tt.wantIDs[i], out[i].UniqueID)
				assert.Equal(t, tt.wantY[i], out[i].Y)
			}
		})
	}
}

func TestBuild_SortedByIDThenDate(t *testing.T) {
	jan := time.Date(2020, time.January, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2020, time.February, 28, 0, 0, 0, 0, time.UTC)

	ret, retx := BuildAll([]contracts.SecurityMonthRecord{
		row(1, feb, 0.1, 0.1),
		row(1, jan, 0.2, 0.2),
	})

	require.Len(t, ret, 2)
	assert.Equal(t, jan, ret[0].DS)
	assert.Equal(t, feb, ret[1].DS)
	assert.Len(t, retx, 2)
}
