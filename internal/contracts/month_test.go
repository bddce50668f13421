package contracts

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonth_Components(t *testing.T) {
	m := NewMonth(1993, time.June)

	assert.Equal(t, 1993, m.Year())
	assert.Equal(t, time.June, m.Month())
	assert.Equal(t, "1993-06", m.String())
	assert.Equal(t, time.Date(1993, 6, 30, 0, 0, 0, 0, time.UTC), m.End())
	assert.Equal(t, NewMonth(1993, time.December), m.YearEnd())
}

func TestMonth_Add(t *testing.T) {
	tests := []struct {
		name  string
		month Month
		n     int
		want  Month
	}{
		{"forward within year", NewMonth(2000, time.January), 5, NewMonth(2000, time.June)},
		{"forward across year", NewMonth(2000, time.December), 6, NewMonth(2001, time.June)},
		{"backward across year", NewMonth(2000, time.March), -6, NewMonth(1999, time.September)},
		{"six back from July", NewMonth(2000, time.July), -6, NewMonth(2000, time.January)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.month.Add(tt.n))
		})
	}
}

func TestMonth_EndLeapYear(t *testing.T) {
	assert.Equal(t, 29, NewMonth(2024, time.February).End().Day())
	assert.Equal(t, 28, NewMonth(2023, time.February).End().Day())
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    Month
		wantErr bool
	}{
		{"199306", NewMonth(1993, time.June), false},
		{"1993-06", NewMonth(1993, time.June), false},
		{"1993-06-30", NewMonth(1993, time.June), false},
		{"19930630", NewMonth(1993, time.June), false},
		{"199313", 0, true},
		{"junk", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2021-12-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2021-12-31T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2021, got.Year())

	_, err = ParseDate("31st Dec")
	assert.Error(t, err)
}

func TestMonth_JSON(t *testing.T) {
	type window struct {
		From Month `json:"from"`
		To   Month `json:"to"`
	}
	in := window{From: NewMonth(1970, time.January), To: NewMonth(2020, time.July)}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"1970-01","to":"2020-07"}`, string(data))

	var out window
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	tests := []struct {
		name    string
		input   string
		want    Month
		wantErr bool
	}{
		{"compact", `{"from":"199306"}`, NewMonth(1993, time.June), false},
		{"date", `{"from":"1993-06-30"}`, NewMonth(1993, time.June), false},
		{"bad month", `{"from":"1993-13"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w window
			err := json.Unmarshal([]byte(tt.input), &w)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.From)
		})
	}
}
