package contracts

import (
	"math"
	"time"
)

// Missing floats are carried as NaN throughout the pipeline.
// ⭐ SSOT: 결측값은 NaN, 0으로 대체하지 않음 (fallback 체인은 각 stage가 명시적으로 처리)

// NaN returns the missing-value marker.
func NaN() float64 {
	return math.NaN()
}

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// FundamentalsRecord is one annual fundamentals filing (Compustat row).
type FundamentalsRecord struct {
	EntityID             string    `json:"gvkey"`
	PeriodEnd            time.Time `json:"datadate"`
	StockholdersEquity   float64   `json:"seq"`
	DeferredTaxCredit    float64   `json:"txditc"`
	PreferredRedemption  float64   `json:"pstkrv"`
	PreferredLiquidation float64   `json:"pstkl"`
	PreferredPar         float64   `json:"pstk"`
}

// BookEquityRecord is the output of fundamentals preparation (S0)
// ⭐ SSOT: S0 → S4 장부가치 전달
type BookEquityRecord struct {
	EntityID         string    `json:"gvkey"`
	PeriodEnd        time.Time `json:"datadate"`
	FiscalYear       int       `json:"year"`
	BookEquity       float64   `json:"be"` // NaN when be <= 0
	ObservationCount int       `json:"count"`
}

// HasBookEquity reports whether book equity is defined.
func (r BookEquityRecord) HasBookEquity() bool {
	return !IsMissing(r.BookEquity)
}

// SecurityMonthRecord is one security-month observation (CRSP CIZ row).
type SecurityMonthRecord struct {
	SecurityID        int64     `json:"permno"`
	ParentID          int64     `json:"permco"`
	Date              time.Time `json:"mthcaldt"`
	Month             Month     `json:"-"`
	Price             float64   `json:"mthprc"`
	SharesOutstanding float64   `json:"shrout"`
	Return            float64   `json:"mthret"`
	ReturnExDividend  float64   `json:"mthretx"`
	ExchangeCode      string    `json:"primaryexch"`
	ShareType         string    `json:"sharetype"`
	SecurityType      string    `json:"securitytype"`
	SecuritySubtype   string    `json:"securitysubtype"`
	USIncorporation   string    `json:"usincflg"`
	IssuerType        string    `json:"issuertype"`
	TradingStatus     string    `json:"tradingstatusflg"`
	ConditionalType   string    `json:"conditionaltype"`
}

// MarketEquity returns |price| × shares outstanding (NaN if either is missing).
func (r SecurityMonthRecord) MarketEquity() float64 {
	return math.Abs(r.Price) * r.SharesOutstanding
}

// LinkRecord maps a fundamentals entity to a security over a validity window.
// A zero LinkEnd means the link is still open.
type LinkRecord struct {
	EntityID   string    `json:"gvkey"`
	SecurityID int64     `json:"permno"`
	LinkStart  time.Time `json:"linkdt"`
	LinkEnd    time.Time `json:"linkenddt"`
}

// IsOpen reports whether the link has no recorded end date.
func (l LinkRecord) IsOpen() bool {
	return l.LinkEnd.IsZero()
}

// CompanyMonthRecord is the canonical security of a parent entity in a month,
// carrying the parent's summed market equity (S2 output).
type CompanyMonthRecord struct {
	SecurityID       int64     `json:"permno"`
	ParentID         int64     `json:"permco"`
	Date             time.Time `json:"mthcaldt"`
	Month            Month     `json:"jdate"`
	Return           float64   `json:"mthret"`
	ReturnExDividend float64   `json:"mthretx"`
	ExchangeCode     string    `json:"primaryexch"`
	MarketEquity     float64   `json:"me"`
}

// AlignedMonthRecord is a company-month with Fama-French calendar fields and
// the formation weight (S3 monthly panel).
type AlignedMonthRecord struct {
	SecurityID       int64   `json:"permno"`
	Month            Month   `json:"jdate"`
	Return           float64 `json:"mthret"`
	ReturnExDividend float64 `json:"mthretx"`
	ExchangeCode     string  `json:"primaryexch"`
	MarketEquity     float64 `json:"me"`
	OffsetYear       int     `json:"ffyear"`
	OffsetMonth      int     `json:"ffmonth"`
	CumIndex         float64 `json:"cumretx"`
	LagIndex         float64 `json:"L_cumretx"`
	LagMarketEquity  float64 `json:"L_me"`
	BaseMarketEquity float64 `json:"mebase"`
	Weight           float64 `json:"wt"`
}

// JuneRecord is the June snapshot of a security joined with its prior
// December market equity (S3 June panel).
type JuneRecord struct {
	SecurityID       int64   `json:"permno"`
	Month            Month   `json:"jdate"`
	ExchangeCode     string  `json:"primaryexch"`
	MarketEquity     float64 `json:"me"`
	Weight           float64 `json:"wt"`
	DecemberMarketEq float64 `json:"dec_me"`
}

// FormationRecord is a June security row linked to fundamentals, with
// book-to-market and (after S5) its bucket labels.
// ⭐ SSOT: S4 → S5 포트폴리오 형성 레코드
type FormationRecord struct {
	SecurityID       int64      `json:"permno"`
	EntityID         string     `json:"gvkey"`
	Formation        Month      `json:"jdate"`
	PeriodEnd        time.Time  `json:"datadate"`
	ExchangeCode     string     `json:"primaryexch"`
	MarketEquity     float64    `json:"me"`
	DecemberMarketEq float64    `json:"dec_me"`
	BookEquity       float64    `json:"be"`
	BookToMarket     float64    `json:"beme"`
	ObservationCount int        `json:"count"`
	Size             SizeLabel  `json:"szport"`
	Value            ValueLabel `json:"bmport"`
	PositiveBM       bool       `json:"posbm"`
}

// Eligible reports the posbm condition: beme > 0, me > 0 and count >= minCount.
// NaN comparisons are false, so missing values are never eligible.
func (r FormationRecord) Eligible(minCount int) bool {
	return r.BookToMarket > 0 && r.MarketEquity > 0 && r.ObservationCount >= minCount
}

// NonMissing reports whether a value label was assigned.
func (r FormationRecord) NonMissing() bool {
	return r.Value != ValueNone
}

// HoldingRecord is a monthly observation that survived the final gate,
// carrying the labels fixed at the preceding June.
type HoldingRecord struct {
	SecurityID int64      `json:"permno"`
	Month      Month      `json:"jdate"`
	Return     float64    `json:"mthret"`
	Weight     float64    `json:"wt"`
	Size       SizeLabel  `json:"szport"`
	Value      ValueLabel `json:"bmport"`
}

// PortfolioReturn is one (month, bucket) value-weighted return (S6 output).
type PortfolioReturn struct {
	Month  Month      `json:"date"`
	Size   SizeLabel  `json:"szport"`
	Value  ValueLabel `json:"bmport"`
	Bucket BucketCode `json:"sbport"`
	VWRet  float64    `json:"vwret"`
	NFirms int        `json:"n_firms"`
}

// FactorRecord is one month of synthesized factors.
type FactorRecord struct {
	Month Month   `json:"date"`
	SMB   float64 `json:"SMB"`
	HML   float64 `json:"HML"`
}

// FirmCountRecord is one month of factor firm counts.
type FirmCountRecord struct {
	Month Month `json:"date"`
	SMB   int   `json:"SMB"`
	HML   int   `json:"HML"`
	Total int   `json:"TOTAL"`
}

// PanelRecord is one row of a long-format return panel.
type PanelRecord struct {
	UniqueID int64     `json:"unique_id"`
	DS       time.Time `json:"ds"`
	Y        float64   `json:"y"`
}

// ReferenceRecord is one month of published reference factors.
type ReferenceRecord struct {
	Month Month   `json:"date"`
	SMB   float64 `json:"smb"`
	HML   float64 `json:"hml"`
}
