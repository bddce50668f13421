package brain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// six NYSE firms, one per bucket, constant ME and returns Jan 2019..Dec 2020
//
//	permno  ME   beme  bucket  ret
//	1       10   0.2   SL      0.01
//	2       20   0.5   SME     0.02
//	3       30   1.0   SH      0.03
//	4       100  0.1   BL      0.04
//	5       200  0.6   BME     0.05
//	6       300  1.5   BH      0.06
type fixtureFirm struct {
	permno int64
	shares float64
	beme   float64
	ret    float64
}

var fixtureFirms = []fixtureFirm{
	{1, 1, 0.2, 0.01},
	{2, 2, 0.5, 0.02},
	{3, 3, 1.0, 0.03},
	{4, 10, 0.1, 0.04},
	{5, 20, 0.6, 0.05},
	{6, 30, 1.5, 0.06},
}

const fixturePrice = 10.0

func fixtureInputs() *contracts.Inputs {
	inputs := &contracts.Inputs{}
	first := contracts.NewMonth(2019, time.January)
	last := contracts.NewMonth(2020, time.December)

	for _, f := range fixtureFirms {
		for m := first; m <= last; m++ {
			inputs.Securities = append(inputs.Securities, contracts.SecurityMonthRecord{
				SecurityID:        f.permno,
				ParentID:          f.permno + 100,
				Date:              m.End(),
				Month:             m,
				Price:             fixturePrice,
				SharesOutstanding: f.shares,
				Return:            f.ret,
				ReturnExDividend:  f.ret,
				ExchangeCode:      "N",
				ShareType:         "NS",
				SecurityType:      "EQTY",
				SecuritySubtype:   "COM",
				USIncorporation:   "Y",
				IssuerType:        "CORP",
				ConditionalType:   "RW",
				TradingStatus:     "A",
			})
		}

		// be (millions) × 1000 / dec_me = beme
		me := fixturePrice * f.shares
		gvkey := fmt.Sprintf("%06d", f.permno)
		for _, year := range []int{2018, 2019} {
			inputs.Fundamentals = append(inputs.Fundamentals, contracts.FundamentalsRecord{
				EntityID:             gvkey,
				PeriodEnd:            time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
				StockholdersEquity:   f.beme * me / 1000,
				DeferredTaxCredit:    0,
				PreferredRedemption:  contracts.NaN(),
				PreferredLiquidation: contracts.NaN(),
				PreferredPar:         0,
			})
		}

		inputs.Links = append(inputs.Links, contracts.LinkRecord{
			EntityID:   gvkey,
			SecurityID: f.permno,
			LinkStart:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return inputs
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
}

// memStore is an in-memory Source, Sink and ReferenceSource
type memStore struct {
	mu         sync.Mutex
	inputs     *contracts.Inputs
	reference  []contracts.ReferenceRecord
	portfolios []contracts.PortfolioReturn
	factors    []contracts.FactorRecord
	firmCounts []contracts.FirmCountRecord
	panels     map[string][]contracts.PanelRecord
	snapshots  []*contracts.PipelineSnapshot
	loadErr    error
}

func newMemStore(inputs *contracts.Inputs) *memStore {
	return &memStore{inputs: inputs, panels: make(map[string][]contracts.PanelRecord)}
}

func (s *memStore) LoadSecurityMonths(ctx context.Context) ([]contracts.SecurityMonthRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.inputs.Securities, nil
}

func (s *memStore) LoadFundamentals(ctx context.Context) ([]contracts.FundamentalsRecord, error) {
	return s.inputs.Fundamentals, nil
}

func (s *memStore) LoadLinks(ctx context.Context) ([]contracts.LinkRecord, error) {
	return s.inputs.Links, nil
}

func (s *memStore) LoadReference(ctx context.Context) ([]contracts.ReferenceRecord, error) {
	if s.reference == nil {
		return nil, fmt.Errorf("reference: %w", contracts.ErrNotFound)
	}
	return s.reference, nil
}

func (s *memStore) WritePortfolios(ctx context.Context, rows []contracts.PortfolioReturn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios = rows
	return nil
}

func (s *memStore) WriteFactors(ctx context.Context, rows []contracts.FactorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factors = rows
	return nil
}

func (s *memStore) WriteFirmCounts(ctx context.Context, rows []contracts.FirmCountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firmCounts = rows
	return nil
}

func (s *memStore) WritePanel(ctx context.Context, name string, rows []contracts.PanelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels[name] = rows
	return nil
}

func (s *memStore) WriteSnapshot(ctx context.Context, snapshot *contracts.PipelineSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}
