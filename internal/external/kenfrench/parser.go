package kenfrench

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Table is one section of a data library CSV (monthly, daily or annual block)
type Table struct {
	Columns []string // first column is always "Date"
	Rows    []Row
}

// Row is one dated line of a table
type Row struct {
	Date   time.Time
	Values []float64 // aligned with Columns[1:], NaN when missing
}

// Column returns the index of name in Row.Values, or -1
func (t *Table) Column(name string) int {
	for i, c := range t.Columns[1:] {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// missing markers used by the data library
var missingMarkers = []float64{-99.99, -999}

// ParseSections splits a data library CSV into its dated tables.
// 데이터 행: 첫 컬럼이 6자리(YYYYMM) 또는 8자리(YYYYMMDD) 숫자
// 헤더 행: 쉼표가 있는 비데이터 행 (직전 헤더를 덮어씀)
func ParseSections(content string) []Table {
	var (
		tables []Table
		header string
		data   []string
		inData bool
	)

	flush := func() {
		if len(data) > 0 && header != "" {
			if t, ok := parseTable(header, data); ok {
				tables = append(tables, t)
			}
		}
		data = nil
		header = ""
		inData = false
	}

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			if len(data) > 0 {
				flush()
			}
			continue
		}

		parts := splitFields(stripped)
		if isDateKey(parts[0]) {
			inData = true
			data = append(data, stripped)
			continue
		}

		if inData {
			flush()
		}
		if len(parts) > 1 {
			header = stripped
		}
	}
	flush()

	return tables
}

func parseTable(header string, lines []string) (Table, bool) {
	columns := splitFields(header)
	columns[0] = "Date"

	table := Table{Columns: columns}
	for _, line := range lines {
		parts := splitFields(line)
		date, err := parseDateKey(parts[0])
		if err != nil {
			return Table{}, false
		}

		values := make([]float64, len(columns)-1)
		for i := range values {
			values[i] = math.NaN()
			if i+1 < len(parts) {
				values[i] = parseValue(parts[i+1])
			}
		}
		table.Rows = append(table.Rows, Row{Date: date, Values: values})
	}
	return table, len(table.Rows) > 0
}

func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isDateKey(s string) bool {
	if len(s) != 6 && len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseDateKey(s string) (time.Time, error) {
	layout := "200601"
	if len(s) == 8 {
		layout = "20060102"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", s, err)
	}
	return t, nil
}

func parseValue(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	for _, m := range missingMarkers {
		if v == m {
			return math.NaN()
		}
	}
	return v
}
