package methodology

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "N", cfg.Breakpoints.Exchange)
	assert.Equal(t, 0.3, cfg.Breakpoints.ValueLowPercentile)
	assert.Equal(t, 0.7, cfg.Breakpoints.ValueHighPercentile)
	assert.Equal(t, 1000.0, cfg.Fundamentals.BookEquityScale)
	assert.Equal(t, 6, cfg.Calendar.FormationMonth)
}

func TestLoad(t *testing.T) {
	// 저장소에 포함된 기본 방법론 파일
	path := "../../config/methodology/fama_french_1993.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("methodology file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	// 파일과 Default()는 동일해야 함
	fileHash, err := Hash(cfg)
	require.NoError(t, err)
	defaultHash, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, defaultHash, fileHash)
}

func TestHash_Deterministic(t *testing.T) {
	hash, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, _ := Hash(Default())
	assert.Equal(t, hash, hash2)

	changed := Default()
	changed.Breakpoints.ValueLowPercentile = 0.2
	hash3, _ := Hash(changed)
	assert.NotEqual(t, hash, hash3)
}

func TestParse_UnknownField(t *testing.T) {
	data := []byte(`
meta:
  methodology_id: x
  version: "1"
  extra_field: true
`)
	_, err := Parse(data)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "missing methodology id",
			mutate:    func(c *Config) { c.Meta.MethodologyID = "" },
			wantField: "meta.methodology_id",
		},
		{
			name:      "empty exchanges",
			mutate:    func(c *Config) { c.Universe.Exchanges = nil },
			wantField: "universe.exchanges",
		},
		{
			name:      "percentile out of range",
			mutate:    func(c *Config) { c.Breakpoints.ValueHighPercentile = 1.5 },
			wantField: "breakpoints.value_high_percentile",
		},
		{
			name: "low above high",
			mutate: func(c *Config) {
				c.Breakpoints.ValueLowPercentile = 0.8
			},
			wantField: "breakpoints",
		},
		{
			name:      "breakpoint exchange outside universe",
			mutate:    func(c *Config) { c.Breakpoints.Exchange = "X" },
			wantField: "breakpoints.exchange",
		},
		{
			name:      "formation month december",
			mutate:    func(c *Config) { c.Calendar.FormationMonth = 12 },
			wantField: "calendar.formation_month",
		},
		{
			name:      "zero scale",
			mutate:    func(c *Config) { c.Fundamentals.BookEquityScale = 0 },
			wantField: "fundamentals.book_equity_scale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOrDefault("does-not-exist.yaml")
	assert.Error(t, err)
}
