package brain

import (
	"time"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/internal/factors"
	"github.com/ftsfr/wrds-crsp-compustat/internal/methodology"
	"github.com/ftsfr/wrds-crsp-compustat/internal/panel"
	"github.com/ftsfr/wrds-crsp-compustat/internal/portfolio"
	"github.com/ftsfr/wrds-crsp-compustat/internal/s0_data"
	"github.com/ftsfr/wrds-crsp-compustat/internal/s1_universe"
	"github.com/ftsfr/wrds-crsp-compustat/internal/s2_equity"
	"github.com/ftsfr/wrds-crsp-compustat/internal/s3_calendar"
	"github.com/ftsfr/wrds-crsp-compustat/internal/s4_link"
	"github.com/ftsfr/wrds-crsp-compustat/internal/selection"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/metrics"
)

// Pipeline runs S0..S7 over in-memory inputs.
// 입력 → 결과는 순수 함수: 같은 Inputs와 clock이면 같은 Results
type Pipeline struct {
	method  *methodology.Config
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *logger.Logger

	preparer    *s0_data.Preparer
	filter      *s1_universe.Filter
	equity      *s2_equity.Aggregator
	aligner     *s3_calendar.Aligner
	linker      *s4_link.Linker
	assigner    *selection.Assigner
	portfolios  *portfolio.Aggregator
	synthesizer *factors.Synthesizer
}

// NewPipeline wires every stage from one methodology
func NewPipeline(method *methodology.Config, now func() time.Time, m *metrics.Metrics, log *logger.Logger) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		method:      method,
		now:         now,
		metrics:     m,
		logger:      log,
		preparer:    s0_data.NewPreparer(),
		filter:      s1_universe.NewFilter(method.Universe),
		equity:      s2_equity.NewAggregator(),
		aligner:     s3_calendar.NewAligner(method.Calendar.FormationMonth),
		linker:      s4_link.NewLinker(method.Calendar.FormationMonth, method.Fundamentals.BookEquityScale, s4_link.WithClock(now)),
		assigner:    selection.NewAssigner(method.Breakpoints),
		portfolios:  portfolio.NewAggregator(),
		synthesizer: factors.NewSynthesizer(),
	}
}

// Compute executes the full factor pipeline plus the long return panels.
// stages holds one PipelineResult per executed stage.
func (p *Pipeline) Compute(inputs *contracts.Inputs) (*contracts.Results, map[string]contracts.PipelineResult) {
	stages := make(map[string]contracts.PipelineResult)

	// S0: 장부가치
	start := time.Now()
	book := p.preparer.Prepare(inputs.Fundamentals)
	withBE := 0
	for _, b := range book {
		if b.HasBookEquity() {
			withBE++
		}
	}
	p.record(stages, contracts.StageData, len(inputs.Fundamentals), len(book), start, map[string]interface{}{
		"with_book_equity": withBE,
	})

	// S1: 유니버스
	start = time.Now()
	universe := p.filter.Apply(inputs.Securities)
	meta := make(map[string]interface{}, len(universe.Excluded))
	for reason, n := range universe.Excluded {
		meta["excluded_"+reason] = n
	}
	p.record(stages, contracts.StageUniverse, len(inputs.Securities), len(universe.Records), start, meta)

	// S2: 회사 단위 ME
	start = time.Now()
	company := p.equity.Aggregate(universe.Records)
	p.record(stages, contracts.StageMarketEquity, len(universe.Records), len(company), start, nil)

	// S3: 회계연도 정렬
	start = time.Now()
	aligned := p.aligner.Align(company)
	p.record(stages, contracts.StageCalendar, len(company), len(aligned.Monthly), start, map[string]interface{}{
		"june_rows": len(aligned.June),
	})

	// S4: Compustat 연결
	start = time.Now()
	formation := p.linker.Link(book, inputs.Links, aligned.June)
	p.record(stages, contracts.StageLink, len(aligned.June), len(formation), start, nil)

	// S5: 브레이크포인트 + 버킷 + 월별 전파
	start = time.Now()
	labeled, breakpoints := p.assigner.Assign(formation)
	holdings := p.assigner.Propagate(labeled, aligned.Monthly)
	p.record(stages, contracts.StageSelection, len(aligned.Monthly), len(holdings), start, map[string]interface{}{
		"formations": len(breakpoints),
	})

	// S6: 가치가중 수익률
	start = time.Now()
	rets := p.portfolios.Aggregate(holdings)
	p.record(stages, contracts.StagePortfolio, len(holdings), len(rets), start, nil)

	// S7: SMB / HML
	start = time.Now()
	synthesized := p.synthesizer.Synthesize(rets)
	p.record(stages, contracts.StageFactors, len(rets), len(synthesized.Factors), start, nil)

	ret, retx := panel.BuildAll(universe.Records)

	return &contracts.Results{
		Portfolios: rets,
		Factors:    synthesized.Factors,
		FirmCounts: synthesized.FirmCounts,
		PanelRet:   ret,
		PanelRetx:  retx,
	}, stages
}

// Panels builds only the long return panels (S1 + panel)
func (p *Pipeline) Panels(securities []contracts.SecurityMonthRecord) (ret, retx []contracts.PanelRecord) {
	start := time.Now()
	universe := p.filter.Apply(securities)
	p.record(nil, contracts.StageUniverse, len(securities), len(universe.Records), start, nil)
	return panel.BuildAll(universe.Records)
}

// record logs the stage summary line and updates metrics
func (p *Pipeline) record(stages map[string]contracts.PipelineResult, stage contracts.Stage, in, out int, start time.Time, meta map[string]interface{}) {
	elapsed := time.Since(start)

	fields := map[string]interface{}{
		"stage":       stage.String(),
		"input_rows":  in,
		"output_rows": out,
		"duration_ms": elapsed.Milliseconds(),
	}
	for k, v := range meta {
		fields[k] = v
	}
	p.logger.WithFields(fields).Info("stage completed")
	p.metrics.ObserveStage(stage.String(), in, out, elapsed)

	if stages != nil {
		stages[stage.String()] = contracts.PipelineResult{
			Stage:       stage,
			Success:     true,
			InputCount:  in,
			OutputCount: out,
			Duration:    elapsed.Milliseconds(),
			Metadata:    meta,
		}
	}
}
