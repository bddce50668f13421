package filestore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

func TestCheckColumns(t *testing.T) {
	tests := []struct {
		name    string
		have    []string
		missing string
	}{
		{"exact", []string{"permno", "mthcaldt"}, ""},
		{"go field names", []string{"Permno", "Mthcaldt"}, ""},
		{"padded header", []string{" permno ", "MTHCALDT"}, ""},
		{"absent", []string{"Permno"}, "mthcaldt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkColumns(contracts.DatasetSecurityMonths, tt.have, []string{"permno", "mthcaldt"})
			if tt.missing == "" {
				assert.NoError(t, err)
				return
			}
			var se *contracts.StructuralError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, contracts.ErrKindMissingColumn, se.Kind)
			assert.Equal(t, tt.missing, se.Column)
		})
	}
}

func TestParquetFooterColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "securities.parquet")
	require.NoError(t, writeParquet(path, []securityRow{{Permno: 10001, Permco: 5, Mthcaldt: "2020-06-30"}}))

	columns, err := parquetColumns(path)
	require.NoError(t, err)
	assert.NoError(t, checkColumns(contracts.DatasetSecurityMonths, columns, securityColumns))

	rows, err := readParquet[securityRow](path, contracts.DatasetSecurityMonths, securityColumns)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10001), rows[0].Permno)
	assert.Nil(t, rows[0].Mthprc)
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestCloseInto(t *testing.T) {
	diskFull := errors.New("no space left on device")

	var err error
	closeInto(&err, failingCloser{err: diskFull}, "vwret.csv")
	assert.ErrorIs(t, err, diskFull)

	encodeErr := errors.New("encode failed")
	err = encodeErr
	closeInto(&err, failingCloser{err: diskFull}, "vwret.csv")
	assert.Equal(t, encodeErr, err, "the first error wins")

	err = nil
	closeInto(&err, failingCloser{}, "vwret.csv")
	assert.NoError(t, err)
}
