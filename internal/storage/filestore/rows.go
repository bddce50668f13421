package filestore

import (
	"time"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// Row types shared by the CSV (gocsv) and parquet codecs.
// Nullable numbers are *float64: empty CSV cell / parquet null ↔ NaN.
// Dates are stored as YYYY-MM-DD strings.

const dateLayout = "2006-01-02"

type securityRow struct {
	Permno           int64    `csv:"permno" parquet:"name=permno, type=INT64"`
	Permco           int64    `csv:"permco" parquet:"name=permco, type=INT64"`
	Mthcaldt         string   `csv:"mthcaldt" parquet:"name=mthcaldt, type=BYTE_ARRAY, convertedtype=UTF8"`
	Mthprc           *float64 `csv:"mthprc,omitempty" parquet:"name=mthprc, type=DOUBLE, repetitiontype=OPTIONAL"`
	Shrout           *float64 `csv:"shrout,omitempty" parquet:"name=shrout, type=DOUBLE, repetitiontype=OPTIONAL"`
	Mthret           *float64 `csv:"mthret,omitempty" parquet:"name=mthret, type=DOUBLE, repetitiontype=OPTIONAL"`
	Mthretx          *float64 `csv:"mthretx,omitempty" parquet:"name=mthretx, type=DOUBLE, repetitiontype=OPTIONAL"`
	Primaryexch      string   `csv:"primaryexch" parquet:"name=primaryexch, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Sharetype        string   `csv:"sharetype" parquet:"name=sharetype, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Securitytype     string   `csv:"securitytype" parquet:"name=securitytype, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Securitysubtype  string   `csv:"securitysubtype" parquet:"name=securitysubtype, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Usincflg         string   `csv:"usincflg" parquet:"name=usincflg, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Issuertype       string   `csv:"issuertype" parquet:"name=issuertype, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Conditionaltype  string   `csv:"conditionaltype" parquet:"name=conditionaltype, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Tradingstatusflg string   `csv:"tradingstatusflg" parquet:"name=tradingstatusflg, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

var securityColumns = []string{
	"permno", "permco", "mthcaldt", "mthprc", "shrout", "mthret", "mthretx",
	"primaryexch", "sharetype", "securitytype", "securitysubtype",
	"usincflg", "issuertype", "conditionaltype", "tradingstatusflg",
}

type fundamentalsRow struct {
	Gvkey    string   `csv:"gvkey" parquet:"name=gvkey, type=BYTE_ARRAY, convertedtype=UTF8"`
	Datadate string   `csv:"datadate" parquet:"name=datadate, type=BYTE_ARRAY, convertedtype=UTF8"`
	Seq      *float64 `csv:"seq,omitempty" parquet:"name=seq, type=DOUBLE, repetitiontype=OPTIONAL"`
	Txditc   *float64 `csv:"txditc,omitempty" parquet:"name=txditc, type=DOUBLE, repetitiontype=OPTIONAL"`
	Pstkrv   *float64 `csv:"pstkrv,omitempty" parquet:"name=pstkrv, type=DOUBLE, repetitiontype=OPTIONAL"`
	Pstkl    *float64 `csv:"pstkl,omitempty" parquet:"name=pstkl, type=DOUBLE, repetitiontype=OPTIONAL"`
	Pstk     *float64 `csv:"pstk,omitempty" parquet:"name=pstk, type=DOUBLE, repetitiontype=OPTIONAL"`
}

var fundamentalsColumns = []string{"gvkey", "datadate", "seq", "txditc", "pstkrv", "pstkl", "pstk"}

type linkRow struct {
	Gvkey     string `csv:"gvkey" parquet:"name=gvkey, type=BYTE_ARRAY, convertedtype=UTF8"`
	Permno    int64  `csv:"permno" parquet:"name=permno, type=INT64"`
	Linkdt    string `csv:"linkdt" parquet:"name=linkdt, type=BYTE_ARRAY, convertedtype=UTF8"`
	Linkenddt string `csv:"linkenddt" parquet:"name=linkenddt, type=BYTE_ARRAY, convertedtype=UTF8"`
}

var linkColumns = []string{"gvkey", "permno", "linkdt", "linkenddt"}

type referenceRow struct {
	Date string   `csv:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	SMB  *float64 `csv:"smb,omitempty" parquet:"name=smb, type=DOUBLE, repetitiontype=OPTIONAL"`
	HML  *float64 `csv:"hml,omitempty" parquet:"name=hml, type=DOUBLE, repetitiontype=OPTIONAL"`
}

var referenceColumns = []string{"date", "smb", "hml"}

type portfolioRow struct {
	Date   string   `csv:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Szport string   `csv:"szport" parquet:"name=szport, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Bmport string   `csv:"bmport" parquet:"name=bmport, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Vwret  *float64 `csv:"vwret,omitempty" parquet:"name=vwret, type=DOUBLE, repetitiontype=OPTIONAL"`
	Sbport string   `csv:"sbport" parquet:"name=sbport, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

var portfolioColumns = []string{"date", "szport", "bmport", "vwret", "sbport"}

type portfolioCountRow struct {
	Date   string `csv:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Szport string `csv:"szport" parquet:"name=szport, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Bmport string `csv:"bmport" parquet:"name=bmport, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	NFirms int64  `csv:"n_firms" parquet:"name=n_firms, type=INT64"`
	Sbport string `csv:"sbport" parquet:"name=sbport, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

var portfolioCountColumns = []string{"date", "szport", "bmport", "n_firms", "sbport"}

type factorRow struct {
	Date string   `csv:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	SMB  *float64 `csv:"SMB,omitempty" parquet:"name=SMB, type=DOUBLE, repetitiontype=OPTIONAL"`
	HML  *float64 `csv:"HML,omitempty" parquet:"name=HML, type=DOUBLE, repetitiontype=OPTIONAL"`
}

var factorColumns = []string{"date", "SMB", "HML"}

type firmCountRow struct {
	Date  string `csv:"date" parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	SMB   int64  `csv:"SMB" parquet:"name=SMB, type=INT64"`
	HML   int64  `csv:"HML" parquet:"name=HML, type=INT64"`
	Total int64  `csv:"TOTAL" parquet:"name=TOTAL, type=INT64"`
}

var firmCountColumns = []string{"date", "SMB", "HML", "TOTAL"}

type panelRow struct {
	UniqueID int64   `csv:"unique_id" parquet:"name=unique_id, type=INT64"`
	DS       string  `csv:"ds" parquet:"name=ds, type=BYTE_ARRAY, convertedtype=UTF8"`
	Y        float64 `csv:"y" parquet:"name=y, type=DOUBLE"`
}

// =============================================================================
// Conversions
// =============================================================================

func optional(v float64) *float64 {
	if contracts.IsMissing(v) {
		return nil
	}
	return &v
}

func value(p *float64) float64 {
	if p == nil {
		return contracts.NaN()
	}
	return *p
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatMonth(m contracts.Month) string {
	return m.End().Format(dateLayout)
}

func parseDate(source, column string, row int, s string) (time.Time, error) {
	t, err := contracts.ParseDate(s)
	if err != nil {
		return time.Time{}, contracts.NewBadDate(source, column, row, err)
	}
	return t, nil
}

func parseMonth(source, column string, row int, s string) (contracts.Month, error) {
	m, err := contracts.ParseMonth(s)
	if err != nil {
		return 0, contracts.NewBadDate(source, column, row, err)
	}
	return m, nil
}

func toSecurityRecords(rows []securityRow) ([]contracts.SecurityMonthRecord, error) {
	out := make([]contracts.SecurityMonthRecord, len(rows))
	for i, r := range rows {
		date, err := parseDate(contracts.DatasetSecurityMonths, "mthcaldt", i+1, r.Mthcaldt)
		if err != nil {
			return nil, err
		}
		out[i] = contracts.SecurityMonthRecord{
			SecurityID:        r.Permno,
			ParentID:          r.Permco,
			Date:              date,
			Month:             contracts.MonthOf(date),
			Price:             value(r.Mthprc),
			SharesOutstanding: value(r.Shrout),
			Return:            value(r.Mthret),
			ReturnExDividend:  value(r.Mthretx),
			ExchangeCode:      r.Primaryexch,
			ShareType:         r.Sharetype,
			SecurityType:      r.Securitytype,
			SecuritySubtype:   r.Securitysubtype,
			USIncorporation:   r.Usincflg,
			IssuerType:        r.Issuertype,
			TradingStatus:     r.Tradingstatusflg,
			ConditionalType:   r.Conditionaltype,
		}
	}
	return out, nil
}

func fromSecurityRecords(records []contracts.SecurityMonthRecord) []securityRow {
	out := make([]securityRow, len(records))
	for i, r := range records {
		out[i] = securityRow{
			Permno:           r.SecurityID,
			Permco:           r.ParentID,
			Mthcaldt:         formatDate(r.Date),
			Mthprc:           optional(r.Price),
			Shrout:           optional(r.SharesOutstanding),
			Mthret:           optional(r.Return),
			Mthretx:          optional(r.ReturnExDividend),
			Primaryexch:      r.ExchangeCode,
			Sharetype:        r.ShareType,
			Securitytype:     r.SecurityType,
			Securitysubtype:  r.SecuritySubtype,
			Usincflg:         r.USIncorporation,
			Issuertype:       r.IssuerType,
			Conditionaltype:  r.ConditionalType,
			Tradingstatusflg: r.TradingStatus,
		}
	}
	return out
}

func toFundamentalsRecords(rows []fundamentalsRow) ([]contracts.FundamentalsRecord, error) {
	out := make([]contracts.FundamentalsRecord, len(rows))
	for i, r := range rows {
		date, err := parseDate(contracts.DatasetFundamentals, "datadate", i+1, r.Datadate)
		if err != nil {
			return nil, err
		}
		out[i] = contracts.FundamentalsRecord{
			EntityID:             r.Gvkey,
			PeriodEnd:            date,
			StockholdersEquity:   value(r.Seq),
			DeferredTaxCredit:    value(r.Txditc),
			PreferredRedemption:  value(r.Pstkrv),
			PreferredLiquidation: value(r.Pstkl),
			PreferredPar:         value(r.Pstk),
		}
	}
	return out, nil
}

func fromFundamentalsRecords(records []contracts.FundamentalsRecord) []fundamentalsRow {
	out := make([]fundamentalsRow, len(records))
	for i, r := range records {
		out[i] = fundamentalsRow{
			Gvkey:    r.EntityID,
			Datadate: formatDate(r.PeriodEnd),
			Seq:      optional(r.StockholdersEquity),
			Txditc:   optional(r.DeferredTaxCredit),
			Pstkrv:   optional(r.PreferredRedemption),
			Pstkl:    optional(r.PreferredLiquidation),
			Pstk:     optional(r.PreferredPar),
		}
	}
	return out
}

func toLinkRecords(rows []linkRow) ([]contracts.LinkRecord, error) {
	out := make([]contracts.LinkRecord, len(rows))
	for i, r := range rows {
		link := contracts.LinkRecord{EntityID: r.Gvkey, SecurityID: r.Permno}

		// 빈 linkdt는 결측 (어떤 형성일과도 매칭되지 않음)
		if r.Linkdt != "" {
			start, err := parseDate(contracts.DatasetLinks, "linkdt", i+1, r.Linkdt)
			if err != nil {
				return nil, err
			}
			link.LinkStart = start
		}
		// 빈 linkenddt는 open link
		if r.Linkenddt != "" {
			end, err := parseDate(contracts.DatasetLinks, "linkenddt", i+1, r.Linkenddt)
			if err != nil {
				return nil, err
			}
			link.LinkEnd = end
		}
		out[i] = link
	}
	return out, nil
}

func fromLinkRecords(records []contracts.LinkRecord) []linkRow {
	out := make([]linkRow, len(records))
	for i, r := range records {
		out[i] = linkRow{
			Gvkey:     r.EntityID,
			Permno:    r.SecurityID,
			Linkdt:    formatDate(r.LinkStart),
			Linkenddt: formatDate(r.LinkEnd),
		}
	}
	return out
}

func toReferenceRecords(rows []referenceRow) ([]contracts.ReferenceRecord, error) {
	out := make([]contracts.ReferenceRecord, len(rows))
	for i, r := range rows {
		m, err := parseMonth(contracts.DatasetReference, "date", i+1, r.Date)
		if err != nil {
			return nil, err
		}
		out[i] = contracts.ReferenceRecord{Month: m, SMB: value(r.SMB), HML: value(r.HML)}
	}
	return out, nil
}

func fromReferenceRecords(records []contracts.ReferenceRecord) []referenceRow {
	out := make([]referenceRow, len(records))
	for i, r := range records {
		out[i] = referenceRow{Date: formatMonth(r.Month), SMB: optional(r.SMB), HML: optional(r.HML)}
	}
	return out
}

func fromPortfolios(records []contracts.PortfolioReturn) ([]portfolioRow, []portfolioCountRow) {
	rets := make([]portfolioRow, len(records))
	counts := make([]portfolioCountRow, len(records))
	for i, r := range records {
		date := formatMonth(r.Month)
		rets[i] = portfolioRow{
			Date:   date,
			Szport: string(r.Size),
			Bmport: string(r.Value),
			Vwret:  optional(r.VWRet),
			Sbport: string(r.Bucket),
		}
		counts[i] = portfolioCountRow{
			Date:   date,
			Szport: string(r.Size),
			Bmport: string(r.Value),
			NFirms: int64(r.NFirms),
			Sbport: string(r.Bucket),
		}
	}
	return rets, counts
}

type portfolioKey struct {
	month  contracts.Month
	bucket contracts.BucketCode
}

func toPortfolios(rets []portfolioRow, counts []portfolioCountRow) ([]contracts.PortfolioReturn, error) {
	n := make(map[portfolioKey]int, len(counts))
	for i, c := range counts {
		m, err := parseMonth(contracts.DatasetPortfolioCount, "date", i+1, c.Date)
		if err != nil {
			return nil, err
		}
		n[portfolioKey{month: m, bucket: contracts.BucketCode(c.Sbport)}] = int(c.NFirms)
	}

	out := make([]contracts.PortfolioReturn, len(rets))
	for i, r := range rets {
		m, err := parseMonth(contracts.DatasetPortfolios, "date", i+1, r.Date)
		if err != nil {
			return nil, err
		}
		code := contracts.BucketCode(r.Sbport)
		out[i] = contracts.PortfolioReturn{
			Month:  m,
			Size:   contracts.SizeLabel(r.Szport),
			Value:  contracts.ValueLabel(r.Bmport),
			Bucket: code,
			VWRet:  value(r.Vwret),
			NFirms: n[portfolioKey{month: m, bucket: code}],
		}
	}
	return out, nil
}

func fromFactors(records []contracts.FactorRecord) []factorRow {
	out := make([]factorRow, len(records))
	for i, r := range records {
		out[i] = factorRow{Date: formatMonth(r.Month), SMB: optional(r.SMB), HML: optional(r.HML)}
	}
	return out
}

func toFactors(rows []factorRow) ([]contracts.FactorRecord, error) {
	out := make([]contracts.FactorRecord, len(rows))
	for i, r := range rows {
		m, err := parseMonth(contracts.DatasetFactors, "date", i+1, r.Date)
		if err != nil {
			return nil, err
		}
		out[i] = contracts.FactorRecord{Month: m, SMB: value(r.SMB), HML: value(r.HML)}
	}
	return out, nil
}

func fromFirmCounts(records []contracts.FirmCountRecord) []firmCountRow {
	out := make([]firmCountRow, len(records))
	for i, r := range records {
		out[i] = firmCountRow{Date: formatMonth(r.Month), SMB: int64(r.SMB), HML: int64(r.HML), Total: int64(r.Total)}
	}
	return out
}

func toFirmCounts(rows []firmCountRow) ([]contracts.FirmCountRecord, error) {
	out := make([]contracts.FirmCountRecord, len(rows))
	for i, r := range rows {
		m, err := parseMonth(contracts.DatasetFirmCounts, "date", i+1, r.Date)
		if err != nil {
			return nil, err
		}
		out[i] = contracts.FirmCountRecord{Month: m, SMB: int(r.SMB), HML: int(r.HML), Total: int(r.Total)}
	}
	return out, nil
}

func fromPanel(records []contracts.PanelRecord) []panelRow {
	out := make([]panelRow, len(records))
	for i, r := range records {
		out[i] = panelRow{UniqueID: r.UniqueID, DS: formatDate(r.DS), Y: r.Y}
	}
	return out
}
