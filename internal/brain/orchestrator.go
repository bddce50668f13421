package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ftsfr/wrds-crsp-compustat/internal/audit"
	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/internal/methodology"
	"github.com/ftsfr/wrds-crsp-compustat/internal/s0_data/quality"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/metrics"
)

// Orchestrator coordinates load → S0..S7 → write (→ S8)
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	source contracts.Source
	sink   contracts.Sink

	// S8 (optional)
	reference     contracts.ReferenceSource
	comparer      *audit.Comparer
	referenceFrom contracts.Month

	method          *methodology.Config
	methodologyHash string
	qualityGate     *quality.QualityGate
	metrics         *metrics.Metrics
	now             func() time.Time

	logger *logger.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithReference enables S8 against the given reference factors
func WithReference(src contracts.ReferenceSource, comparer *audit.Comparer, from contracts.Month) Option {
	return func(o *Orchestrator) {
		o.reference = src
		o.comparer = comparer
		o.referenceFrom = from
	}
}

// WithMetrics records stage metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock replaces time.Now (open link end dates, snapshot timestamp)
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID      string // generated when empty
	SkipPanels bool
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	Success         bool
	Error           error
	CompletedStages []string
	QualitySnapshot *contracts.DataQualitySnapshot
	Results         *contracts.Results
	Comparison      *audit.ComparisonReport
	Snapshot        *contracts.PipelineSnapshot
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(source contracts.Source, sink contracts.Sink, method *methodology.Config, log *logger.Logger, opts ...Option) (*Orchestrator, error) {
	hash, err := methodology.Hash(method)
	if err != nil {
		return nil, fmt.Errorf("hash methodology: %w", err)
	}

	o := &Orchestrator{
		source:          source,
		sink:            sink,
		method:          method,
		methodologyHash: hash,
		qualityGate:     quality.NewQualityGate(quality.DefaultConfig()),
		now:             time.Now,
		logger:          log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// MethodologyHash returns the SHA-256 of the active methodology
func (o *Orchestrator) MethodologyHash() string {
	return o.methodologyHash
}

// LoadInputs loads the three extracts concurrently
func (o *Orchestrator) LoadInputs(ctx context.Context) (*contracts.Inputs, error) {
	inputs := &contracts.Inputs{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := o.source.LoadSecurityMonths(gctx)
		if err != nil {
			return fmt.Errorf("load %s: %w", contracts.DatasetSecurityMonths, err)
		}
		inputs.Securities = rows
		return nil
	})
	g.Go(func() error {
		rows, err := o.source.LoadFundamentals(gctx)
		if err != nil {
			return fmt.Errorf("load %s: %w", contracts.DatasetFundamentals, err)
		}
		inputs.Fundamentals = rows
		return nil
	})
	g.Go(func() error {
		rows, err := o.source.LoadLinks(gctx)
		if err != nil {
			return fmt.Errorf("load %s: %w", contracts.DatasetLinks, err)
		}
		inputs.Links = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.WithFields(map[string]interface{}{
		"securities":   len(inputs.Securities),
		"fundamentals": len(inputs.Fundamentals),
		"links":        len(inputs.Links),
	}).Info("Inputs loaded")
	return inputs, nil
}

// Run executes the complete pipeline and writes every output
// Load → S0 Quality → S0..S7 → Write → (S8) → Snapshot
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}

	result := &RunResult{
		RunID:           config.RunID,
		CompletedStages: make([]string, 0, len(contracts.AllStages())),
	}
	log := o.logger.WithRunID(config.RunID)

	log.WithFields(map[string]interface{}{
		"methodology":      o.method.Meta.MethodologyID,
		"methodology_hash": o.methodologyHash,
		"formation_month":  o.method.Calendar.FormationMonth,
	}).Info("Starting pipeline run")

	fail := func(stage string, err error) (*RunResult, error) {
		result.Error = fmt.Errorf("%s failed: %w", stage, err)
		result.Duration = time.Since(startTime)
		o.metrics.RunFinished(false, o.now())
		log.WithError(result.Error).Error("Pipeline aborted")
		return result, result.Error
	}

	// 1. 입력 로딩
	inputs, err := o.LoadInputs(ctx)
	if err != nil {
		return fail("load", err)
	}

	// 2. S0 품질 스냅샷 (커버리지는 정보 제공용)
	qualitySnapshot, err := o.qualityGate.Check(ctx, inputs, o.now())
	if err != nil {
		return fail(contracts.StageData.ShortName(), err)
	}
	result.QualitySnapshot = qualitySnapshot
	if !qualitySnapshot.Passed {
		log.WithFields(map[string]interface{}{
			"quality_score": qualitySnapshot.QualityScore,
			"coverage":      qualitySnapshot.Coverage,
		}).Warn("Input coverage below thresholds")
	}

	// 3. S0..S7
	pipeline := NewPipeline(o.method, o.now, o.metrics, log)
	results, stages := pipeline.Compute(inputs)
	result.Results = results
	for _, stage := range contracts.AllStages() {
		if _, ok := stages[stage.String()]; ok {
			result.CompletedStages = append(result.CompletedStages, stage.String())
		}
	}

	// 4. 결과 저장 (전체 교체)
	if err := o.writeResults(ctx, results, config.SkipPanels); err != nil {
		return fail("write", err)
	}

	// 5. S8 레퍼런스 비교 (선택, 실패해도 run은 성공)
	lastStage := contracts.StageFactors
	if report := o.compare(ctx, log, results.Factors); report != nil {
		result.Comparison = report
		result.CompletedStages = append(result.CompletedStages, contracts.StageAudit.String())
		lastStage = contracts.StageAudit
	}

	// 6. 스냅샷
	result.Snapshot = o.snapshot(config.RunID, lastStage, inputs, results, stages, result.Comparison)
	if err := o.sink.WriteSnapshot(ctx, result.Snapshot); err != nil {
		return fail("snapshot", err)
	}

	result.Success = true
	result.Duration = time.Since(startTime)
	o.metrics.RunFinished(true, o.now())

	log.WithFields(map[string]interface{}{
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
		"months":   len(results.Factors),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// Datasets writes only the long return panels
func (o *Orchestrator) Datasets(ctx context.Context) (ret, retx []contracts.PanelRecord, err error) {
	securities, err := o.source.LoadSecurityMonths(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", contracts.DatasetSecurityMonths, err)
	}

	ret, retx = NewPipeline(o.method, o.now, o.metrics, o.logger).Panels(securities)
	if err := o.sink.WritePanel(ctx, contracts.DatasetPanelRet, ret); err != nil {
		return nil, nil, err
	}
	if err := o.sink.WritePanel(ctx, contracts.DatasetPanelRetx, retx); err != nil {
		return nil, nil, err
	}
	return ret, retx, nil
}

func (o *Orchestrator) writeResults(ctx context.Context, results *contracts.Results, skipPanels bool) error {
	if err := o.sink.WritePortfolios(ctx, results.Portfolios); err != nil {
		return err
	}
	if err := o.sink.WriteFactors(ctx, results.Factors); err != nil {
		return err
	}
	if err := o.sink.WriteFirmCounts(ctx, results.FirmCounts); err != nil {
		return err
	}
	if skipPanels {
		return nil
	}
	if err := o.sink.WritePanel(ctx, contracts.DatasetPanelRet, results.PanelRet); err != nil {
		return err
	}
	return o.sink.WritePanel(ctx, contracts.DatasetPanelRetx, results.PanelRetx)
}

// compare runs S8 when a reference source is configured.
// 레퍼런스가 없으면 경고만 남기고 건너뜀
func (o *Orchestrator) compare(ctx context.Context, log *logger.Logger, factorRows []contracts.FactorRecord) *audit.ComparisonReport {
	if o.reference == nil || o.comparer == nil {
		return nil
	}

	start := time.Now()
	reference, err := o.reference.LoadReference(ctx)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			log.Warn("Reference factors not found, skipping comparison (run `ff reference pull`)")
		} else {
			log.WithError(err).Warn("Reference factors unavailable, skipping comparison")
		}
		return nil
	}

	report := o.comparer.Compare(factorRows, reference, o.referenceFrom)
	o.metrics.ObserveStage(contracts.StageAudit.String(), len(factorRows), len(report.Rows), time.Since(start))
	return report
}

func (o *Orchestrator) snapshot(
	runID string,
	stage contracts.Stage,
	inputs *contracts.Inputs,
	results *contracts.Results,
	stages map[string]contracts.PipelineResult,
	report *audit.ComparisonReport,
) *contracts.PipelineSnapshot {
	outputs := map[string]interface{}{
		contracts.DatasetPortfolios: len(results.Portfolios),
		contracts.DatasetFactors:    len(results.Factors),
		contracts.DatasetFirmCounts: len(results.FirmCounts),
		contracts.DatasetPanelRet:   len(results.PanelRet),
		contracts.DatasetPanelRetx:  len(results.PanelRetx),
	}
	if report != nil {
		outputs["reference_passed"] = report.Passed
		outputs["reference_months"] = report.SMB.N
	}

	return &contracts.PipelineSnapshot{
		RunID:           runID,
		Stage:           stage,
		Timestamp:       o.now().Unix(),
		MethodologyHash: o.methodologyHash,
		Inputs: map[string]interface{}{
			contracts.DatasetSecurityMonths: len(inputs.Securities),
			contracts.DatasetFundamentals:   len(inputs.Fundamentals),
			contracts.DatasetLinks:          len(inputs.Links),
		},
		Outputs: outputs,
		Config: map[string]interface{}{
			"methodology_id":      o.method.Meta.MethodologyID,
			"version":             o.method.Meta.Version,
			"formation_month":     o.method.Calendar.FormationMonth,
			"book_equity_scale":   o.method.Fundamentals.BookEquityScale,
			"breakpoint_exchange": o.method.Breakpoints.Exchange,
		},
		Results: stages,
	}
}
