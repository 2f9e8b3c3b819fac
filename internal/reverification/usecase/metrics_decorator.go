package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	driftDomain "github.com/allisson/occam/internal/drift/domain"
	"github.com/allisson/occam/internal/metrics"
	"github.com/allisson/occam/internal/reverification/domain"
)

// reverificationUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type reverificationUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewReverificationUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewReverificationUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &reverificationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (r *reverificationUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.OperationStatus(err)

	r.metrics.RecordOperation(ctx, "reverification", operation, status)
	r.metrics.RecordDuration(ctx, "reverification", operation, time.Since(start), status)
}

// TriggerFromDrift records metrics for drift-triggered jobs.
func (r *reverificationUseCaseWithMetrics) TriggerFromDrift(
	ctx context.Context,
	cases []*driftDomain.Check,
) (uuid.UUID, error) {
	start := time.Now()
	id, err := r.next.TriggerFromDrift(ctx, cases)
	r.record(ctx, "trigger_from_drift", start, err)
	return id, err
}

// ScheduleManual records metrics for manual jobs.
func (r *reverificationUseCaseWithMetrics) ScheduleManual(ctx context.Context, input ManualInput) (*domain.Job, error) {
	start := time.Now()
	job, err := r.next.ScheduleManual(ctx, input)
	r.record(ctx, "schedule_manual", start, err)
	return job, err
}

// RunScheduledAudit records metrics for the scheduled audit.
func (r *reverificationUseCaseWithMetrics) RunScheduledAudit(ctx context.Context) (*domain.Job, error) {
	start := time.Now()
	job, err := r.next.RunScheduledAudit(ctx)
	r.record(ctx, "run_scheduled_audit", start, err)
	return job, err
}

// GetJob delegates without instrumentation.
func (r *reverificationUseCaseWithMetrics) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return r.next.GetJob(ctx, id)
}

// ProcessJob records metrics for job processing.
func (r *reverificationUseCaseWithMetrics) ProcessJob(ctx context.Context, job *domain.Job) error {
	start := time.Now()
	err := r.next.ProcessJob(ctx, job)
	r.record(ctx, "process_job", start, err)
	return err
}

// ProcessPending delegates without instrumentation; the jobs it runs are not
// routed back through the decorator.
func (r *reverificationUseCaseWithMetrics) ProcessPending(ctx context.Context) error {
	return r.next.ProcessPending(ctx)
}

// Start delegates without instrumentation.
func (r *reverificationUseCaseWithMetrics) Start(ctx context.Context) error {
	return r.next.Start(ctx)
}
