package handlers

import (
	"errors"
	"net/http"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// FactorsHandler serves the stored pipeline outputs
// ⭐ SSOT: 결과 조회 API 핸들러는 이 구조체에서만 (읽기 전용)
type FactorsHandler struct {
	reader contracts.ResultReader
	logger *logger.Logger
}

// NewFactorsHandler creates a new factors handler
func NewFactorsHandler(reader contracts.ResultReader, log *logger.Logger) *FactorsHandler {
	return &FactorsHandler{
		reader: reader,
		logger: log,
	}
}

// FactorDTO is one month of SMB/HML (null when undefined)
type FactorDTO struct {
	Date string   `json:"date"`
	SMB  *float64 `json:"smb"`
	HML  *float64 `json:"hml"`
}

// PortfolioDTO is one (month, bucket) value-weighted return
type PortfolioDTO struct {
	Date   string   `json:"date"`
	Bucket string   `json:"sbport"`
	Size   string   `json:"szport"`
	Value  string   `json:"bmport"`
	VWRet  *float64 `json:"vwret"`
	NFirms int      `json:"n_firms"`
}

// FirmCountDTO is one month of factor firm counts
type FirmCountDTO struct {
	Date  string `json:"date"`
	SMB   int    `json:"smb"`
	HML   int    `json:"hml"`
	Total int    `json:"total"`
}

const dateLayout = "2006-01-02"

// GetFactors returns the SMB/HML series
// GET /api/factors?from=YYYY-MM&to=YYYY-MM
func (h *FactorsHandler) GetFactors(w http.ResponseWriter, r *http.Request) {
	from, to, ok, msg := parseRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	rows, err := h.reader.ReadFactors(r.Context())
	if err != nil {
		h.readFailed(w, "factors", err)
		return
	}

	out := make([]FactorDTO, 0, len(rows))
	for _, f := range rows {
		if f.Month < from || f.Month > to {
			continue
		}
		out = append(out, FactorDTO{
			Date: f.Month.End().Format(dateLayout),
			SMB:  nullable(f.SMB),
			HML:  nullable(f.HML),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// GetPortfolios returns the six bucket return series
// GET /api/portfolios?from=YYYY-MM&to=YYYY-MM&bucket=SL
func (h *FactorsHandler) GetPortfolios(w http.ResponseWriter, r *http.Request) {
	from, to, ok, msg := parseRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	bucket := contracts.BucketCode(r.URL.Query().Get("bucket"))
	if bucket != "" && !bucket.IsValid() {
		respondError(w, http.StatusBadRequest, "Invalid bucket (expected SL, SME, SH, BL, BME or BH)")
		return
	}

	rows, err := h.reader.ReadPortfolios(r.Context())
	if err != nil {
		h.readFailed(w, "portfolios", err)
		return
	}

	out := make([]PortfolioDTO, 0, len(rows))
	for _, p := range rows {
		if p.Month < from || p.Month > to {
			continue
		}
		if bucket != "" && p.Bucket != bucket {
			continue
		}
		out = append(out, PortfolioDTO{
			Date:   p.Month.End().Format(dateLayout),
			Bucket: string(p.Bucket),
			Size:   string(p.Size),
			Value:  string(p.Value),
			VWRet:  nullable(p.VWRet),
			NFirms: p.NFirms,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// GetFirmCounts returns the firm counts behind each factor
// GET /api/firm-counts?from=YYYY-MM&to=YYYY-MM
func (h *FactorsHandler) GetFirmCounts(w http.ResponseWriter, r *http.Request) {
	from, to, ok, msg := parseRange(r)
	if !ok {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	rows, err := h.reader.ReadFirmCounts(r.Context())
	if err != nil {
		h.readFailed(w, "firm counts", err)
		return
	}

	out := make([]FirmCountDTO, 0, len(rows))
	for _, c := range rows {
		if c.Month < from || c.Month > to {
			continue
		}
		out = append(out, FirmCountDTO{
			Date:  c.Month.End().Format(dateLayout),
			SMB:   c.SMB,
			HML:   c.HML,
			Total: c.Total,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *FactorsHandler) readFailed(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No "+what+" computed yet (run `ff run`)")
		return
	}
	h.logger.WithError(err).Error("Failed to read " + what)
	respondError(w, http.StatusInternalServerError, "Failed to retrieve "+what)
}
