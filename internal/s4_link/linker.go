package s4_link

import (
	"sort"
	"time"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// Linker joins book equity to June security rows through the link table
type Linker struct {
	formationMonth int
	scale          float64
	now            func() time.Time
}

// Option configures a Linker
type Option func(*Linker)

// WithClock overrides the "now" used to close open-ended links
func WithClock(now func() time.Time) Option {
	return func(l *Linker) {
		l.now = now
	}
}

// NewLinker creates a linker.
// scale converts book equity units to market equity units (1000 for Compustat millions vs CRSP thousands).
func NewLinker(formationMonth int, scale float64, opts ...Option) *Linker {
	l := &Linker{
		formationMonth: formationMonth,
		scale:          scale,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type juneKey struct {
	security  int64
	formation contracts.Month
}

type candidate struct {
	entityID  string
	security  int64
	formation contracts.Month
	book      contracts.BookEquityRecord
}

// Link produces one formation record per (security, formation month).
// Unlinked rows on either side are dropped (JoinGap).
// ⭐ SSOT: S4 beme = be × scale / dec_me
func (l *Linker) Link(book []contracts.BookEquityRecord, links []contracts.LinkRecord, june []contracts.JuneRecord) []contracts.FormationRecord {
	now := l.now().UTC()

	// 1. gvkey → links
	byEntity := make(map[string][]contracts.LinkRecord)
	for _, link := range links {
		byEntity[link.EntityID] = append(byEntity[link.EntityID], link)
	}

	// 2. 재무 × 링크, 형성일 기준 유효한 링크만
	candidates := make(map[juneKey]candidate)
	for _, b := range book {
		formation := contracts.MonthOf(b.PeriodEnd).YearEnd().Add(l.formationMonth)
		formationDate := formation.End()

		for _, link := range byEntity[b.EntityID] {
			if !linkValid(link, formationDate, now) {
				continue
			}
			k := juneKey{security: link.SecurityID, formation: formation}
			c := candidate{entityID: b.EntityID, security: link.SecurityID, formation: formation, book: b}
			if prev, ok := candidates[k]; !ok || preferred(c, prev) {
				candidates[k] = c
			}
		}
	}

	// 3. 6월 패널과 inner join
	out := make([]contracts.FormationRecord, 0, len(june))
	for _, j := range june {
		c, ok := candidates[juneKey{security: j.SecurityID, formation: j.Month}]
		if !ok {
			continue
		}
		out = append(out, contracts.FormationRecord{
			SecurityID:       j.SecurityID,
			EntityID:         c.entityID,
			Formation:        j.Month,
			PeriodEnd:        c.book.PeriodEnd,
			ExchangeCode:     j.ExchangeCode,
			MarketEquity:     j.MarketEquity,
			DecemberMarketEq: j.DecemberMarketEq,
			BookEquity:       c.book.BookEquity,
			BookToMarket:     c.book.BookEquity * l.scale / j.DecemberMarketEq,
			ObservationCount: c.book.ObservationCount,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SecurityID != out[j].SecurityID {
			return out[i].SecurityID < out[j].SecurityID
		}
		return out[i].Formation < out[j].Formation
	})

	return out
}

// linkValid checks linkdt <= date <= linkenddt (open end = now).
// A missing start date never matches.
func linkValid(link contracts.LinkRecord, date, now time.Time) bool {
	if link.LinkStart.IsZero() || date.Before(link.LinkStart) {
		return false
	}
	end := link.LinkEnd
	if link.IsOpen() {
		end = now
	}
	return !date.After(end)
}

// preferred keeps the latest period end, then the lowest entity id
func preferred(c, prev candidate) bool {
	if !c.book.PeriodEnd.Equal(prev.book.PeriodEnd) {
		return c.book.PeriodEnd.After(prev.book.PeriodEnd)
	}
	return c.entityID < prev.entityID
}
