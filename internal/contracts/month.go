package contracts

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month is a calendar month encoded as year*12 + (month-1).
// ⭐ SSOT: 모든 월 단위 조인 키는 Month 사용 (일자 차이로 인한 조인 누락 방지)
type Month int

// NewMonth builds a Month from a year and calendar month.
func NewMonth(year int, month time.Month) Month {
	return Month(year*12 + int(month) - 1)
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return NewMonth(t.Year(), t.Month())
}

// Year returns the calendar year.
func (m Month) Year() int {
	return int(m) / 12
}

// Month returns the calendar month.
func (m Month) Month() time.Month {
	return time.Month(int(m)%12 + 1)
}

// Add shifts the month by n (negative allowed).
func (m Month) Add(n int) Month {
	return m + Month(n)
}

// End returns the last calendar day of the month (UTC midnight).
func (m Month) End() time.Time {
	return time.Date(m.Year(), m.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// String formats as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year(), int(m.Month()))
}

// MarshalText encodes as YYYY-MM so JSON and YAML show the month, not the index.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts any form ParseMonth does.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// YearEnd returns December of the same year.
func (m Month) YearEnd() Month {
	return NewMonth(m.Year(), time.December)
}

// ParseMonth accepts YYYY-MM, YYYY-MM-DD or YYYYMM.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 6 && !strings.Contains(s, "-"):
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid month %q: %w", s, err)
		}
		mon := n % 100
		if mon < 1 || mon > 12 {
			return 0, fmt.Errorf("invalid month %q: month out of range", s)
		}
		return NewMonth(n/100, time.Month(mon)), nil
	case len(s) == 7:
		t, err := time.Parse("2006-01", s)
		if err != nil {
			return 0, fmt.Errorf("invalid month %q: %w", s, err)
		}
		return MonthOf(t), nil
	default:
		t, err := ParseDate(s)
		if err != nil {
			return 0, err
		}
		return MonthOf(t), nil
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"20060102",
	"01/02/2006",
}

// ParseDate parses the date layouts found in WRDS extracts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
