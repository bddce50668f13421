package jobs

import (
	"context"
	"fmt"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/logger"
)

// ReferenceFetcher is satisfied by *kenfrench.Client
type ReferenceFetcher interface {
	FetchReference(ctx context.Context) ([]contracts.ReferenceRecord, error)
}

// ReferenceJob refreshes the published reference factors
type ReferenceJob struct {
	fetcher ReferenceFetcher
	sink    contracts.ReferenceSink
	logger  *logger.Logger
}

// NewReferenceJob creates a new reference refresh job
func NewReferenceJob(fetcher ReferenceFetcher, sink contracts.ReferenceSink, log *logger.Logger) *ReferenceJob {
	return &ReferenceJob{
		fetcher: fetcher,
		sink:    sink,
		logger:  log,
	}
}

// Name returns the job name
func (j *ReferenceJob) Name() string {
	return "reference_refresh"
}

// Schedule returns the cron schedule (1st of every month at 05:00, before the recompute)
func (j *ReferenceJob) Schedule() string {
	return "0 0 5 1 * *"
}

// Run downloads and stores the reference factors
func (j *ReferenceJob) Run(ctx context.Context) error {
	rows, err := j.fetcher.FetchReference(ctx)
	if err != nil {
		return fmt.Errorf("fetch reference: %w", err)
	}
	if err := j.sink.WriteReference(ctx, rows); err != nil {
		return fmt.Errorf("write reference: %w", err)
	}

	fields := map[string]interface{}{"rows": len(rows)}
	if len(rows) > 0 {
		fields["first"] = rows[0].Month.String()
		fields["last"] = rows[len(rows)-1].Month.String()
	}
	j.logger.WithFields(fields).Info("Reference factors refreshed")
	return nil
}
