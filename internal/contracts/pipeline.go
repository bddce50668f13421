package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 스냅샷, 메트릭 라벨에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7 (→ S8)
//   Data  Universe  MarketEquity  Calendar  Link  Selection  Portfolio  Factors  (Audit)

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: 입력 품질 검증 + 장부가치 계산
	// 책임: 필수 컬럼 확인, 커버리지 스냅샷, book equity / count 산출
	// 위치: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageUniverse S1: 보통주 유니버스 필터
	// 책임: share/security 분류, 미국 법인, 거래소(N/A/Q), RW/A 상태
	// 위치: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageMarketEquity S2: 회사 단위 시가총액 합산
	// 책임: (month, permco) 합산, 대표 증권(max ME) 선택
	// 위치: internal/s2_equity/
	StageMarketEquity Stage = "S2_MARKET_EQUITY"

	// StageCalendar S3: Fama-French 회계연도 정렬
	// 책임: ffyear/ffmonth, 누적 지수, 가중치, December ME
	// 위치: internal/s3_calendar/
	StageCalendar Stage = "S3_CALENDAR"

	// StageLink S4: Compustat ↔ CRSP 연결
	// 책임: 링크 유효기간, June 패널 조인, beme 계산
	// 위치: internal/s4_link/
	StageLink Stage = "S4_LINK"

	// StageSelection S5: NYSE 브레이크포인트 및 버킷 배정
	// 위치: internal/selection/
	StageSelection Stage = "S5_SELECTION"

	// StagePortfolio S6: 버킷별 가치가중 수익률
	// 위치: internal/portfolio/
	StagePortfolio Stage = "S6_PORTFOLIO"

	// StageFactors S7: SMB / HML 합성
	// 위치: internal/factors/
	StageFactors Stage = "S7_FACTORS"

	// StageAudit S8: 레퍼런스 팩터 비교 (선택)
	// 위치: internal/audit/
	StageAudit Stage = "S8_AUDIT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageMarketEquity:
		return "S2"
	case StageCalendar:
		return "S3"
	case StageLink:
		return "S4"
	case StageSelection:
		return "S5"
	case StagePortfolio:
		return "S6"
	case StageFactors:
		return "S7"
	case StageAudit:
		return "S8"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageData:
		return "Fundamentals preparation"
	case StageUniverse:
		return "Security universe filter"
	case StageMarketEquity:
		return "Market equity aggregation"
	case StageCalendar:
		return "Temporal alignment"
	case StageLink:
		return "Cross-source link"
	case StageSelection:
		return "Breakpoints and buckets"
	case StagePortfolio:
		return "Portfolio aggregation"
	case StageFactors:
		return "Factor synthesis"
	case StageAudit:
		return "Reference comparison"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageUniverse,
		StageMarketEquity,
		StageCalendar,
		StageLink,
		StageSelection,
		StagePortfolio,
		StageFactors,
		StageAudit,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// PipelineSnapshot records the state of a run for reproducibility
// ⭐ 데이터 테이블의 idempotence 대상에서 제외 (RunID, Timestamp가 매번 다름)
type PipelineSnapshot struct {
	RunID           string                    `json:"run_id"`
	Stage           Stage                     `json:"stage"`
	Timestamp       int64                     `json:"timestamp"`
	MethodologyHash string                    `json:"methodology_hash"`
	Inputs          map[string]interface{}    `json:"inputs"`
	Outputs         map[string]interface{}    `json:"outputs"`
	Config          map[string]interface{}    `json:"config"`
	Results         map[string]PipelineResult `json:"results,omitempty"`
}
