package handlers

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// nullable maps NaN to JSON null
func nullable(v float64) *float64 {
	if contracts.IsMissing(v) {
		return nil
	}
	return &v
}

// parseRange reads optional from/to query params (YYYY-MM, YYYY-MM-DD or YYYYMM)
func parseRange(r *http.Request) (from, to contracts.Month, ok bool, msg string) {
	from, to = contracts.Month(0), contracts.Month(1<<31-1)
	q := r.URL.Query()

	if s := q.Get("from"); s != "" {
		m, err := contracts.ParseMonth(s)
		if err != nil {
			return 0, 0, false, "Invalid 'from' month (expected YYYY-MM)"
		}
		from = m
	}
	if s := q.Get("to"); s != "" {
		m, err := contracts.ParseMonth(s)
		if err != nil {
			return 0, 0, false, "Invalid 'to' month (expected YYYY-MM)"
		}
		to = m
	}
	if from > to {
		return 0, 0, false, "'from' is after 'to'"
	}
	return from, to, true, ""
}
