package s4_link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock() time.Time {
	return date(2024, time.January, 15)
}

func june2020(permno int64, decME float64) contracts.JuneRecord {
	return contracts.JuneRecord{
		SecurityID:       permno,
		Month:            contracts.NewMonth(2020, time.June),
		ExchangeCode:     "N",
		MarketEquity:     5000,
		Weight:           4800,
		DecemberMarketEq: decME,
	}
}

func TestLink_BookToMarket(t *testing.T) {
	book := []contracts.BookEquityRecord{
		{EntityID: "001000", PeriodEnd: date(2019, time.December, 31), FiscalYear: 2019, BookEquity: 2, ObservationCount: 3},
	}
	links := []contracts.LinkRecord{
		{EntityID: "001000", SecurityID: 10001, LinkStart: date(1990, time.January, 1)},
	}

	out := NewLinker(6, 1000, WithClock(fixedClock)).Link(book, links, []contracts.JuneRecord{june2020(10001, 4000)})

	require.Len(t, out, 1)
	r := out[0]
	assert.Equal(t, "001000", r.EntityID)
	assert.Equal(t, contracts.NewMonth(2020, time.June), r.Formation)
	assert.InDelta(t, 0.5, r.BookToMarket, 1e-12)
	assert.Equal(t, 3, r.ObservationCount)
}

func TestLink_FiscalYearEndMapsToNextJune(t *testing.T) {
	// 2019-03 결산 → yearend 2019-12 → 형성 2020-06
	book := []contracts.BookEquityRecord{
		{EntityID: "A", PeriodEnd: date(2019, time.March, 31), BookEquity: 1, ObservationCount: 1},
	}
	links := []contracts.LinkRecord{{EntityID: "A", SecurityID: 1, LinkStart: date(2000, time.January, 1)}}

	out := NewLinker(6, 1000, WithClock(fixedClock)).Link(book, links, []contracts.JuneRecord{june2020(1, 1000)})

	require.Len(t, out, 1)
	assert.Equal(t, contracts.NewMonth(2020, time.June), out[0].Formation)
}

func TestLink_ValidityWindow(t *testing.T) {
	book := []contracts.BookEquityRecord{
		{EntityID: "A", PeriodEnd: date(2019, time.December, 31), BookEquity: 1, ObservationCount: 1},
	}

	tests := []struct {
		name     string
		link     contracts.LinkRecord
		clock    func() time.Time
		wantRows int
	}{
		{"open link", contracts.LinkRecord{LinkStart: date(2000, time.January, 1)}, fixedClock, 1},
		{"starts after formation", contracts.LinkRecord{LinkStart: date(2020, time.July, 1)}, fixedClock, 0},
		{"ended before formation", contracts.LinkRecord{LinkStart: date(2000, time.January, 1), LinkEnd: date(2020, time.May, 31)}, fixedClock, 0},
		{"ends on formation date", contracts.LinkRecord{LinkStart: date(2000, time.January, 1), LinkEnd: date(2020, time.June, 30)}, fixedClock, 1},
		{"missing start", contracts.LinkRecord{}, fixedClock, 0},
		{"open link closed by early clock", contracts.LinkRecord{LinkStart: date(2000, time.January, 1)}, func() time.Time { return date(2020, time.January, 1) }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := tt.link
			link.EntityID = "A"
			link.SecurityID = 1

			out := NewLinker(6, 1000, WithClock(tt.clock)).Link(book, []contracts.LinkRecord{link}, []contracts.JuneRecord{june2020(1, 1000)})
			assert.Len(t, out, tt.wantRows)
		})
	}
}

func TestLink_DedupeKeepsLatestPeriod(t *testing.T) {
	book := []contracts.BookEquityRecord{
		{EntityID: "B", PeriodEnd: date(2019, time.January, 31), BookEquity: 1, ObservationCount: 1},
		{EntityID: "B", PeriodEnd: date(2019, time.December, 31), BookEquity: 3, ObservationCount: 2},
		{EntityID: "A", PeriodEnd: date(2019, time.December, 31), BookEquity: 7, ObservationCount: 9},
	}
	links := []contracts.LinkRecord{
		{EntityID: "A", SecurityID: 1, LinkStart: date(2000, time.January, 1)},
		{EntityID: "B", SecurityID: 1, LinkStart: date(2000, time.January, 1)},
	}

	out := NewLinker(6, 1000, WithClock(fixedClock)).Link(book, links, []contracts.JuneRecord{june2020(1, 1000)})

	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].EntityID)
	assert.InDelta(t, 7.0, out[0].BookEquity, 1e-12)
}

func TestLink_UnlinkedDropped(t *testing.T) {
	book := []contracts.BookEquityRecord{
		{EntityID: "A", PeriodEnd: date(2019, time.December, 31), BookEquity: 1, ObservationCount: 1},
	}

	out := NewLinker(6, 1000, WithClock(fixedClock)).Link(book, nil, []contracts.JuneRecord{june2020(1, 1000)})
	assert.Empty(t, out)
}

func TestLink_MissingBookEquityKept(t *testing.T) {
	book := []contracts.BookEquityRecord{
		{EntityID: "A", PeriodEnd: date(2019, time.December, 31), BookEquity: contracts.NaN(), ObservationCount: 1},
	}
	links := []contracts.LinkRecord{{EntityID: "A", SecurityID: 1, LinkStart: date(2000, time.January, 1)}}

	out := NewLinker(6, 1000, WithClock(fixedClock)).Link(book, links, []contracts.JuneRecord{june2020(1, 1000)})

	require.Len(t, out, 1)
	assert.True(t, contracts.IsMissing(out[0].BookToMarket))
	assert.False(t, out[0].Eligible(1))
}
