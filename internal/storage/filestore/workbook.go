package filestore

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// WorkbookFile is the audit workbook written by WriteWorkbook
const WorkbookFile = "FF_1993.xlsx"

// Sheet names
const (
	SheetVWRet   = "vwret"
	SheetVWRetN  = "vwret_n"
	SheetFactors = "factors"
	SheetNFirms  = "nfirms"
)

// WriteWorkbook writes the bucket tables (pivoted to one column per bucket)
// and the factor tables into one xlsx for manual inspection.
func (s *Store) WriteWorkbook(results *contracts.Results) (string, error) {
	path := filepath.Join(s.outputDir, WorkbookFile)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetVWRet); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetVWRetN, SheetFactors, SheetNFirms} {
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	// 1. 버킷별 wide 테이블
	months, rets, counts := pivotPortfolios(results.Portfolios)
	header := []interface{}{"date"}
	for _, code := range contracts.AllBuckets() {
		header = append(header, string(code))
	}
	retRows := [][]interface{}{header}
	countRows := [][]interface{}{header}
	for _, m := range months {
		retRow := []interface{}{formatMonth(m)}
		countRow := []interface{}{formatMonth(m)}
		for _, code := range contracts.AllBuckets() {
			k := portfolioKey{month: m, bucket: code}
			retRow = append(retRow, cell(rets[k], hasKey(rets, k)))
			countRow = append(countRow, counts[k])
		}
		retRows = append(retRows, retRow)
		countRows = append(countRows, countRow)
	}

	// 2. 팩터 / 기업 수
	factorRows := [][]interface{}{{"date", "SMB", "HML"}}
	for _, r := range results.Factors {
		factorRows = append(factorRows, []interface{}{formatMonth(r.Month), cell(r.SMB, true), cell(r.HML, true)})
	}
	nfirmRows := [][]interface{}{{"date", "SMB", "HML", "TOTAL"}}
	for _, r := range results.FirmCounts {
		nfirmRows = append(nfirmRows, []interface{}{formatMonth(r.Month), r.SMB, r.HML, r.Total})
	}

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{SheetVWRet, retRows},
		{SheetVWRetN, countRows},
		{SheetFactors, factorRows},
		{SheetNFirms, nfirmRows},
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.rows); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path":   path,
		"months": len(months),
	}).Info("workbook written")
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, axis, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func pivotPortfolios(rows []contracts.PortfolioReturn) ([]contracts.Month, map[portfolioKey]float64, map[portfolioKey]int) {
	rets := make(map[portfolioKey]float64, len(rows))
	counts := make(map[portfolioKey]int, len(rows))
	seen := make(map[contracts.Month]struct{})

	for _, r := range rows {
		k := portfolioKey{month: r.Month, bucket: r.Bucket}
		rets[k] = r.VWRet
		counts[k] = r.NFirms
		seen[r.Month] = struct{}{}
	}

	months := make([]contracts.Month, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
	return months, rets, counts
}

func hasKey(m map[portfolioKey]float64, k portfolioKey) bool {
	_, ok := m[k]
	return ok
}

// cell leaves undefined values blank
func cell(v float64, ok bool) interface{} {
	if !ok || contracts.IsMissing(v) {
		return nil
	}
	return v
}
