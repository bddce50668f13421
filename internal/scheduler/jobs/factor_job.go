package jobs

import (
	"context"
	"fmt"

	"github.com/ftsfr/wrds-crsp-compustat/internal/brain"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// PipelineRunner is satisfied by *brain.Orchestrator
type PipelineRunner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// FactorJob recomputes every output from the current extracts
// ⭐ SSOT: 정기 재계산 스케줄은 이 Job에서만 (증분 갱신 없음)
type FactorJob struct {
	runner   PipelineRunner
	schedule string
	logger   *logger.Logger
}

// NewFactorJob creates a new factor recompute job
func NewFactorJob(runner PipelineRunner, schedule string, log *logger.Logger) *FactorJob {
	return &FactorJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *FactorJob) Name() string {
	return "factor_recompute"
}

// Schedule returns the cron schedule (FACTOR_SCHEDULE, default 2nd of month 06:00)
func (j *FactorJob) Schedule() string {
	return j.schedule
}

// Run executes a full pipeline run
func (j *FactorJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled factor recompute")

	result, err := j.runner.Run(ctx, brain.RunConfig{})
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	fields := map[string]interface{}{
		"run_id":   result.RunID,
		"duration": result.Duration.Seconds(),
	}
	if result.Results != nil {
		fields["months"] = len(result.Results.Factors)
	}
	if result.Comparison != nil {
		fields["reference_passed"] = result.Comparison.Passed
	}
	j.logger.WithFields(fields).Info("Scheduled factor recompute finished")

	return nil
}
