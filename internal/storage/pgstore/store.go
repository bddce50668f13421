package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/database"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// Store implements Source, ReferenceSource/Sink, Sink and ResultReader on PostgreSQL
// ⭐ SSOT: DB 기반 입력/결과 저장소 (스키마: ff.*)
type Store struct {
	db     *database.DB
	logger *logger.Logger
}

// New creates a new postgres store
func New(db *database.DB, log *logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

// =============================================================================
// contracts.Source
// =============================================================================

// LoadSecurityMonths loads ff.security_months
func (s *Store) LoadSecurityMonths(ctx context.Context) ([]contracts.SecurityMonthRecord, error) {
	query := `
		SELECT permno, permco, mthcaldt, mthprc, shrout, mthret, mthretx,
		       primaryexch, sharetype, securitytype, securitysubtype,
		       usincflg, issuertype, conditionaltype, tradingstatusflg
		FROM ff.security_months
		ORDER BY permno, mthcaldt
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query security months: %w", err)
	}
	defer rows.Close()

	var records []contracts.SecurityMonthRecord
	for rows.Next() {
		var (
			r                      contracts.SecurityMonthRecord
			prc, shrout, ret, retx *float64
		)
		if err := rows.Scan(
			&r.SecurityID, &r.ParentID, &r.Date, &prc, &shrout, &ret, &retx,
			&r.ExchangeCode, &r.ShareType, &r.SecurityType, &r.SecuritySubtype,
			&r.USIncorporation, &r.IssuerType, &r.ConditionalType, &r.TradingStatus,
		); err != nil {
			return nil, fmt.Errorf("scan security month: %w", err)
		}
		r.Date = dateOnly(r.Date)
		r.Month = contracts.MonthOf(r.Date)
		r.Price = value(prc)
		r.SharesOutstanding = value(shrout)
		r.Return = value(ret)
		r.ReturnExDividend = value(retx)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, contracts.NewEmptyInput(contracts.DatasetSecurityMonths)
	}
	return records, nil
}

// LoadFundamentals loads ff.fundamentals
func (s *Store) LoadFundamentals(ctx context.Context) ([]contracts.FundamentalsRecord, error) {
	query := `
		SELECT gvkey, datadate, seq, txditc, pstkrv, pstkl, pstk
		FROM ff.fundamentals
		ORDER BY gvkey, datadate
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query fundamentals: %w", err)
	}
	defer rows.Close()

	var records []contracts.FundamentalsRecord
	for rows.Next() {
		var (
			r                              contracts.FundamentalsRecord
			seq, txditc, pstkrv, pstkl, pk *float64
		)
		if err := rows.Scan(&r.EntityID, &r.PeriodEnd, &seq, &txditc, &pstkrv, &pstkl, &pk); err != nil {
			return nil, fmt.Errorf("scan fundamentals: %w", err)
		}
		r.PeriodEnd = dateOnly(r.PeriodEnd)
		r.StockholdersEquity = value(seq)
		r.DeferredTaxCredit = value(txditc)
		r.PreferredRedemption = value(pstkrv)
		r.PreferredLiquidation = value(pstkl)
		r.PreferredPar = value(pk)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, contracts.NewEmptyInput(contracts.DatasetFundamentals)
	}
	return records, nil
}

// LoadLinks loads ff.links (NULL linkenddt = open link)
func (s *Store) LoadLinks(ctx context.Context) ([]contracts.LinkRecord, error) {
	query := `
		SELECT gvkey, permno, linkdt, linkenddt
		FROM ff.links
		ORDER BY gvkey, permno, linkdt
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var records []contracts.LinkRecord
	for rows.Next() {
		var (
			r          contracts.LinkRecord
			start, end *time.Time
		)
		if err := rows.Scan(&r.EntityID, &r.SecurityID, &start, &end); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		if start != nil {
			r.LinkStart = dateOnly(*start)
		}
		if end != nil {
			r.LinkEnd = dateOnly(*end)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, contracts.NewEmptyInput(contracts.DatasetLinks)
	}
	return records, nil
}

// ImportInputs replaces the three input tables in one transaction
func (s *Store) ImportInputs(ctx context.Context, inputs *contracts.Inputs) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		securities := make([][]interface{}, len(inputs.Securities))
		for i, r := range inputs.Securities {
			securities[i] = []interface{}{
				r.SecurityID, r.ParentID, r.Date,
				optional(r.Price), optional(r.SharesOutstanding), optional(r.Return), optional(r.ReturnExDividend),
				r.ExchangeCode, r.ShareType, r.SecurityType, r.SecuritySubtype,
				r.USIncorporation, r.IssuerType, r.ConditionalType, r.TradingStatus,
			}
		}
		if err := replace(ctx, tx, "security_months", securityColumns, securities); err != nil {
			return err
		}

		fundamentals := make([][]interface{}, len(inputs.Fundamentals))
		for i, r := range inputs.Fundamentals {
			fundamentals[i] = []interface{}{
				r.EntityID, r.PeriodEnd,
				optional(r.StockholdersEquity), optional(r.DeferredTaxCredit),
				optional(r.PreferredRedemption), optional(r.PreferredLiquidation), optional(r.PreferredPar),
			}
		}
		if err := replace(ctx, tx, "fundamentals", fundamentalsColumns, fundamentals); err != nil {
			return err
		}

		links := make([][]interface{}, len(inputs.Links))
		for i, r := range inputs.Links {
			links[i] = []interface{}{r.EntityID, r.SecurityID, optionalDate(r.LinkStart), optionalDate(r.LinkEnd)}
		}
		return replace(ctx, tx, "links", linkColumns, links)
	})
}

// =============================================================================
// contracts.ReferenceSource / ReferenceSink
// =============================================================================

// LoadReference loads ff.reference_factors
func (s *Store) LoadReference(ctx context.Context) ([]contracts.ReferenceRecord, error) {
	query := `
		SELECT date, smb, hml
		FROM ff.reference_factors
		ORDER BY date
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reference factors: %w", err)
	}
	defer rows.Close()

	var records []contracts.ReferenceRecord
	for rows.Next() {
		var (
			date     time.Time
			smb, hml *float64
		)
		if err := rows.Scan(&date, &smb, &hml); err != nil {
			return nil, fmt.Errorf("scan reference factor: %w", err)
		}
		records = append(records, contracts.ReferenceRecord{
			Month: contracts.MonthOf(date),
			SMB:   value(smb),
			HML:   value(hml),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reference factors: %w", contracts.ErrNotFound)
	}
	return records, nil
}

// WriteReference replaces ff.reference_factors
func (s *Store) WriteReference(ctx context.Context, records []contracts.ReferenceRecord) error {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = []interface{}{r.Month.End(), optional(r.SMB), optional(r.HML)}
	}
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return replace(ctx, tx, "reference_factors", []string{"date", "smb", "hml"}, rows)
	})
}

// =============================================================================
// contracts.Sink
// =============================================================================

// WritePortfolios replaces ff.portfolio_returns
func (s *Store) WritePortfolios(ctx context.Context, records []contracts.PortfolioReturn) error {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = []interface{}{
			r.Month.End(), string(r.Size), string(r.Value), string(r.Bucket), optional(r.VWRet), int32(r.NFirms),
		}
	}
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return replace(ctx, tx, "portfolio_returns", portfolioColumns, rows)
	})
}

// WriteFactors replaces ff.factors
func (s *Store) WriteFactors(ctx context.Context, records []contracts.FactorRecord) error {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = []interface{}{r.Month.End(), optional(r.SMB), optional(r.HML)}
	}
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return replace(ctx, tx, "factors", []string{"date", "smb", "hml"}, rows)
	})
}

// WriteFirmCounts replaces ff.firm_counts
func (s *Store) WriteFirmCounts(ctx context.Context, records []contracts.FirmCountRecord) error {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = []interface{}{r.Month.End(), int32(r.SMB), int32(r.HML), int32(r.Total)}
	}
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		return replace(ctx, tx, "firm_counts", []string{"date", "smb", "hml", "total"}, rows)
	})
}

// WritePanel replaces one dataset of ff.panels
func (s *Store) WritePanel(ctx context.Context, name string, records []contracts.PanelRecord) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM ff.panels WHERE dataset = $1`, name); err != nil {
			return fmt.Errorf("clear panel %s: %w", name, err)
		}

		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{"ff", "panels"},
			[]string{"dataset", "unique_id", "ds", "y"},
			pgx.CopyFromSlice(len(records), func(i int) ([]interface{}, error) {
				r := records[i]
				return []interface{}{name, r.UniqueID, r.DS, r.Y}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy panel %s: %w", name, err)
		}

		s.logger.WithFields(map[string]interface{}{
			"dataset": name,
			"rows":    n,
		}).Info("panel written")
		return nil
	})
}

// WriteSnapshot appends the run snapshot to ff.pipeline_runs
func (s *Store) WriteSnapshot(ctx context.Context, snapshot *contracts.PipelineSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO ff.pipeline_runs (run_id, stage, methodology_hash, created_at, snapshot)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE SET
			stage = EXCLUDED.stage,
			snapshot = EXCLUDED.snapshot
	`

	_, err = s.db.Pool.Exec(ctx, query,
		snapshot.RunID, string(snapshot.Stage), snapshot.MethodologyHash,
		time.Unix(snapshot.Timestamp, 0).UTC(), data,
	)
	if err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent run snapshot
func (s *Store) LatestSnapshot(ctx context.Context) (*contracts.PipelineSnapshot, error) {
	query := `
		SELECT snapshot
		FROM ff.pipeline_runs
		ORDER BY created_at DESC
		LIMIT 1
	`

	var data []byte
	if err := s.db.Pool.QueryRow(ctx, query).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pipeline run: %w", contracts.ErrNotFound)
		}
		return nil, fmt.Errorf("query pipeline run: %w", err)
	}

	var snapshot contracts.PipelineSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// =============================================================================
// contracts.ResultReader
// =============================================================================

// ReadPortfolios reads ff.portfolio_returns
func (s *Store) ReadPortfolios(ctx context.Context) ([]contracts.PortfolioReturn, error) {
	query := `
		SELECT date, szport, bmport, sbport, vwret, n_firms
		FROM ff.portfolio_returns
		ORDER BY date,
			array_position(ARRAY['SL','SME','SH','BL','BME','BH']::text[], sbport)
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query portfolio returns: %w", err)
	}
	defer rows.Close()

	var records []contracts.PortfolioReturn
	for rows.Next() {
		var (
			date              time.Time
			size, val, bucket string
			vwret             *float64
			nFirms            int32
		)
		if err := rows.Scan(&date, &size, &val, &bucket, &vwret, &nFirms); err != nil {
			return nil, fmt.Errorf("scan portfolio return: %w", err)
		}
		records = append(records, contracts.PortfolioReturn{
			Month:  contracts.MonthOf(date),
			Size:   contracts.SizeLabel(size),
			Value:  contracts.ValueLabel(val),
			Bucket: contracts.BucketCode(bucket),
			VWRet:  value(vwret),
			NFirms: int(nFirms),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("portfolio returns: %w", contracts.ErrNotFound)
	}
	return records, nil
}

// ReadFactors reads ff.factors
func (s *Store) ReadFactors(ctx context.Context) ([]contracts.FactorRecord, error) {
	query := `
		SELECT date, smb, hml
		FROM ff.factors
		ORDER BY date
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query factors: %w", err)
	}
	defer rows.Close()

	var records []contracts.FactorRecord
	for rows.Next() {
		var (
			date     time.Time
			smb, hml *float64
		)
		if err := rows.Scan(&date, &smb, &hml); err != nil {
			return nil, fmt.Errorf("scan factor: %w", err)
		}
		records = append(records, contracts.FactorRecord{
			Month: contracts.MonthOf(date),
			SMB:   value(smb),
			HML:   value(hml),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("factors: %w", contracts.ErrNotFound)
	}
	return records, nil
}

// ReadFirmCounts reads ff.firm_counts
func (s *Store) ReadFirmCounts(ctx context.Context) ([]contracts.FirmCountRecord, error) {
	query := `
		SELECT date, smb, hml, total
		FROM ff.firm_counts
		ORDER BY date
	`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query firm counts: %w", err)
	}
	defer rows.Close()

	var records []contracts.FirmCountRecord
	for rows.Next() {
		var (
			date            time.Time
			smb, hml, total int32
		)
		if err := rows.Scan(&date, &smb, &hml, &total); err != nil {
			return nil, fmt.Errorf("scan firm count: %w", err)
		}
		records = append(records, contracts.FirmCountRecord{
			Month: contracts.MonthOf(date),
			SMB:   int(smb),
			HML:   int(hml),
			Total: int(total),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("firm counts: %w", contracts.ErrNotFound)
	}
	return records, nil
}

// =============================================================================
// Helpers
// =============================================================================

var (
	securityColumns = []string{
		"permno", "permco", "mthcaldt", "mthprc", "shrout", "mthret", "mthretx",
		"primaryexch", "sharetype", "securitytype", "securitysubtype",
		"usincflg", "issuertype", "conditionaltype", "tradingstatusflg",
	}
	fundamentalsColumns = []string{"gvkey", "datadate", "seq", "txditc", "pstkrv", "pstkl", "pstk"}
	linkColumns         = []string{"gvkey", "permno", "linkdt", "linkenddt"}
	portfolioColumns    = []string{"date", "szport", "bmport", "sbport", "vwret", "n_firms"}
)

// replace empties ff.<table> and bulk-loads rows with COPY
// ⭐ 결과 테이블은 증분 갱신 없이 전체 교체
func replace(ctx context.Context, tx pgx.Tx, table string, columns []string, rows [][]interface{}) error {
	if _, err := tx.Exec(ctx, "DELETE FROM ff."+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"ff", table}, columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}
	return nil
}

// optional maps NaN to SQL NULL
func optional(v float64) *float64 {
	if contracts.IsMissing(v) {
		return nil
	}
	return &v
}

func optionalDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func value(p *float64) float64 {
	if p == nil {
		return contracts.NaN()
	}
	return *p
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
