package filestore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// readCSV decodes a CSV extract into rows after checking the header.
func readCSV[T any](path, source string, required []string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, contracts.NewEmptyInput(source)
	}

	header, err := gocsv.DefaultCSVReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}
	if err := checkColumns(source, header, required); err != nil {
		return nil, err
	}

	var rows []T
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			column := ""
			if parseErr.Column > 0 && parseErr.Column <= len(header) {
				column = header[parseErr.Column-1]
			}
			// Line은 헤더 포함 1-based → 데이터 행 번호로 변환
			return nil, contracts.NewBadNumber(source, column, parseErr.Line-1, parseErr.Err)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// writeCSV encodes rows with a header line
func writeCSV[T any](path string, rows []T) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer closeInto(&err, f, path)

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// closeInto closes c and reports its error through err unless err is already set
func closeInto(err *error, c io.Closer, path string) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close %s: %w", path, cerr)
	}
}

// checkColumns returns a MissingColumn error for the first absent column.
// Names match case-insensitively (parquet-go stores Go field names in the footer).
func checkColumns(source string, have, required []string) error {
	present := make(map[string]struct{}, len(have))
	for _, h := range have {
		present[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	for _, col := range required {
		if _, ok := present[strings.ToLower(col)]; !ok {
			return contracts.NewMissingColumn(source, col)
		}
	}
	return nil
}
