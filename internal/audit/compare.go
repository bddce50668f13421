package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// ComparisonRow is one month of manual vs reference factors
type ComparisonRow struct {
	Month     contracts.Month `json:"date"`
	SMBActual float64         `json:"smb_actual"`
	HMLActual float64         `json:"hml_actual"`
	SMBManual float64         `json:"smb_manual"`
	HMLManual float64         `json:"hml_manual"`
}

// ComparisonReport summarizes the replication quality
type ComparisonReport struct {
	From           contracts.Month `json:"from"`
	MinCorrelation float64         `json:"min_correlation"`
	Rows           []ComparisonRow `json:"-"`
	SMB            SeriesStats     `json:"smb"`
	HML            SeriesStats     `json:"hml"`
	Passed         bool            `json:"passed"`
}

// Comparer implements S8: manual factors vs published reference
// ⭐ SSOT: 레퍼런스 비교는 여기서만 (임계값 미달은 경고, 에러 아님)
type Comparer struct {
	minCorrelation float64
	logger         *logger.Logger
}

// NewComparer creates a new comparer
func NewComparer(minCorrelation float64, log *logger.Logger) *Comparer {
	return &Comparer{
		minCorrelation: minCorrelation,
		logger:         log,
	}
}

// Compare inner-joins factors with the reference on month, restricted to
// months >= from, and reports correlation and tracking stats.
func (c *Comparer) Compare(factors []contracts.FactorRecord, reference []contracts.ReferenceRecord, from contracts.Month) *ComparisonReport {
	ref := make(map[contracts.Month]contracts.ReferenceRecord, len(reference))
	for _, r := range reference {
		ref[r.Month] = r
	}

	rows := make([]ComparisonRow, 0, len(factors))
	for _, f := range factors {
		if f.Month < from {
			continue
		}
		r, ok := ref[f.Month]
		if !ok {
			continue
		}
		rows = append(rows, ComparisonRow{
			Month:     f.Month,
			SMBActual: r.SMB,
			HMLActual: r.HML,
			SMBManual: f.SMB,
			HMLManual: f.HML,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })

	smbManual, smbActual := make([]float64, len(rows)), make([]float64, len(rows))
	hmlManual, hmlActual := make([]float64, len(rows)), make([]float64, len(rows))
	for i, row := range rows {
		smbManual[i], smbActual[i] = row.SMBManual, row.SMBActual
		hmlManual[i], hmlActual[i] = row.HMLManual, row.HMLActual
	}

	report := &ComparisonReport{
		From:           from,
		MinCorrelation: c.minCorrelation,
		Rows:           rows,
		SMB:            compareSeries(smbManual, smbActual),
		HML:            compareSeries(hmlManual, hmlActual),
	}
	// NaN 상관계수는 비교 불가 → 실패
	report.Passed = report.SMB.Correlation >= c.minCorrelation && report.HML.Correlation >= c.minCorrelation

	fields := map[string]interface{}{
		"from":     from.String(),
		"months":   len(rows),
		"smb_corr": report.SMB.Correlation,
		"hml_corr": report.HML.Correlation,
		"smb_rmse": report.SMB.RMSE,
		"hml_rmse": report.HML.RMSE,
	}
	if report.Passed {
		c.logger.WithFields(fields).Info("reference comparison passed")
	} else {
		c.logger.WithFields(fields).Warn("reference correlation below threshold")
	}

	return report
}

// ToJSON JSON 형식으로 출력
func (r *ComparisonReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToSummary 요약 문자열 출력
func (r *ComparisonReport) ToSummary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Reference Comparison (from %s) ===\n", r.From)
	fmt.Fprintf(&b, "Months: %d\n\n", len(r.Rows))
	fmt.Fprintf(&b, "  SMB  corr %.4f  rmse %.4f  mean diff %+.4f  (n=%d)\n", r.SMB.Correlation, r.SMB.RMSE, r.SMB.MeanDiff, r.SMB.N)
	fmt.Fprintf(&b, "  HML  corr %.4f  rmse %.4f  mean diff %+.4f  (n=%d)\n", r.HML.Correlation, r.HML.RMSE, r.HML.MeanDiff, r.HML.N)

	status := "PASS"
	if !r.Passed {
		status = "WARN"
	}
	fmt.Fprintf(&b, "\n%s (min correlation %.2f)\n", status, r.MinCorrelation)

	return b.String()
}
