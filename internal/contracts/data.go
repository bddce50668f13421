package contracts

import "time"

// DataQualitySnapshot represents input quality information produced before S0
// ⭐ SSOT: 입력 품질 정보 전달 (커버리지는 정보 제공용, 중단 사유 아님)
type DataQualitySnapshot struct {
	Date         time.Time          `json:"date"`
	SecurityRows int                `json:"security_rows"`
	Fundamentals int                `json:"fundamentals_rows"`
	Links        int                `json:"link_rows"`
	Securities   int                `json:"securities"`
	Entities     int                `json:"entities"`
	FirstMonth   Month              `json:"first_month"`
	LastMonth    Month              `json:"last_month"`
	Coverage     map[string]float64 `json:"coverage"`      // 필드별 커버리지
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`        // 품질 기준 충족 여부
}
