package panel

import (
	"sort"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// Field selects which return column becomes y
type Field int

const (
	FieldReturn Field = iota
	FieldReturnExDividend
)

// Build converts universe-filtered security months into a long panel
// {unique_id, ds, y} sorted by (unique_id, ds), dropping missing y.
func Build(records []contracts.SecurityMonthRecord, field Field) []contracts.PanelRecord {
	out := make([]contracts.PanelRecord, 0, len(records))
	for _, r := range records {
		y := r.Return
		if field == FieldReturnExDividend {
			y = r.ReturnExDividend
		}
		if contracts.IsMissing(y) {
			continue
		}
		out = append(out, contracts.PanelRecord{
			UniqueID: r.SecurityID,
			DS:       r.Date,
			Y:        y,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UniqueID != out[j].UniqueID {
			return out[i].UniqueID < out[j].UniqueID
		}
		return out[i].DS.Before(out[j].DS)
	})
	return out
}

// BuildAll returns both the ret and retx panels
func BuildAll(records []contracts.SecurityMonthRecord) (ret, retx []contracts.PanelRecord) {
	return Build(records, FieldReturn), Build(records, FieldReturnExDividend)
}
