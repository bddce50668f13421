package quality

import (
	"context"
	"math"
	"time"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// QualityGate validates input extracts and generates snapshots
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds (informational only, never abort a run)
type Config struct {
	MinPriceCoverage  float64 `yaml:"min_price_coverage"`  // 0.95
	MinSharesCoverage float64 `yaml:"min_shares_coverage"` // 0.95
	MinReturnCoverage float64 `yaml:"min_return_coverage"` // 0.90
	MinEquityCoverage float64 `yaml:"min_equity_coverage"` // 0.80
	MinQualityScore   float64 `yaml:"min_quality_score"`   // 0.70
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:  0.95,
		MinSharesCoverage: 0.95,
		MinReturnCoverage: 0.90,
		MinEquityCoverage: 0.80,
		MinQualityScore:   0.70,
	}
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{
		config: config,
	}
}

// Check validates the extracts of one run
// ⭐ SSOT: S0 입력 품질 검증 (빈 입력만 StructuralError, 커버리지는 정보 제공)
func (g *QualityGate) Check(ctx context.Context, inputs *contracts.Inputs, asOf time.Time) (*contracts.DataQualitySnapshot, error) {
	// 1. 빈 입력 확인
	if len(inputs.Securities) == 0 {
		return nil, contracts.NewEmptyInput(contracts.DatasetSecurityMonths)
	}
	if len(inputs.Fundamentals) == 0 {
		return nil, contracts.NewEmptyInput(contracts.DatasetFundamentals)
	}
	if len(inputs.Links) == 0 {
		return nil, contracts.NewEmptyInput(contracts.DatasetLinks)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := &contracts.DataQualitySnapshot{
		Date:         asOf,
		SecurityRows: len(inputs.Securities),
		Fundamentals: len(inputs.Fundamentals),
		Links:        len(inputs.Links),
	}

	// 2. 식별자 / 기간
	securities := make(map[int64]struct{})
	first, last := inputs.Securities[0].Month, inputs.Securities[0].Month
	for _, r := range inputs.Securities {
		securities[r.SecurityID] = struct{}{}
		if r.Month < first {
			first = r.Month
		}
		if r.Month > last {
			last = r.Month
		}
	}
	entities := make(map[string]struct{})
	for _, r := range inputs.Fundamentals {
		entities[r.EntityID] = struct{}{}
	}
	snapshot.Securities = len(securities)
	snapshot.Entities = len(entities)
	snapshot.FirstMonth = first
	snapshot.LastMonth = last

	// 3. 커버리지 체크
	snapshot.Coverage = g.checkCoverage(inputs)

	// 4. 품질 점수 계산
	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)
	snapshot.Passed = g.passed(snapshot.Coverage, snapshot.QualityScore)

	return snapshot, nil
}

// checkCoverage calculates the non-missing share of each field
func (g *QualityGate) checkCoverage(inputs *contracts.Inputs) map[string]float64 {
	var price, shares, ret, retx int
	for _, r := range inputs.Securities {
		if !math.IsNaN(r.Price) {
			price++
		}
		if !math.IsNaN(r.SharesOutstanding) {
			shares++
		}
		if !math.IsNaN(r.Return) {
			ret++
		}
		if !math.IsNaN(r.ReturnExDividend) {
			retx++
		}
	}

	var seq, txditc, preferred int
	for _, r := range inputs.Fundamentals {
		if !math.IsNaN(r.StockholdersEquity) {
			seq++
		}
		if !math.IsNaN(r.DeferredTaxCredit) {
			txditc++
		}
		if !math.IsNaN(r.PreferredRedemption) || !math.IsNaN(r.PreferredLiquidation) || !math.IsNaN(r.PreferredPar) {
			preferred++
		}
	}

	var closed int
	for _, l := range inputs.Links {
		if !l.IsOpen() {
			closed++
		}
	}

	n := float64(len(inputs.Securities))
	f := float64(len(inputs.Fundamentals))
	return map[string]float64{
		"price":     float64(price) / n,
		"shares":    float64(shares) / n,
		"ret":       float64(ret) / n,
		"retx":      float64(retx) / n,
		"seq":       float64(seq) / f,
		"txditc":    float64(txditc) / f,
		"preferred": float64(preferred) / f,
		"link_end":  float64(closed) / float64(len(inputs.Links)),
	}
}

// scoreWeights 가중치 (합계 = 1.0), txditc/preferred/link_end는 fallback이 있어 제외
// 고정 순서로 합산해야 점수가 실행마다 동일
var scoreWeights = []struct {
	field  string
	weight float64
}{
	{"price", 0.25},  // ME 필수
	{"shares", 0.25}, // ME 필수
	{"retx", 0.20},   // 가중치 누적 지수
	{"ret", 0.15},    // 포트폴리오 수익률
	{"seq", 0.15},    // 장부가치
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(coverage map[string]float64) float64 {
	score := 0.0
	for _, sw := range scoreWeights {
		if cov, exists := coverage[sw.field]; exists {
			score += cov * sw.weight
		}
	}

	return score
}

func (g *QualityGate) passed(coverage map[string]float64, score float64) bool {
	return coverage["price"] >= g.config.MinPriceCoverage &&
		coverage["shares"] >= g.config.MinSharesCoverage &&
		coverage["ret"] >= g.config.MinReturnCoverage &&
		coverage["seq"] >= g.config.MinEquityCoverage &&
		score >= g.config.MinQualityScore
}
