package usecase

import (
	"context"
	"time"

	"github.com/allisson/occam/internal/metrics"
	"github.com/allisson/occam/internal/workflow/domain"
)

// workflowUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type workflowUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewWorkflowUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewWorkflowUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &workflowUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (w *workflowUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.OperationStatus(err)

	w.metrics.RecordOperation(ctx, "workflow", operation, status)
	w.metrics.RecordDuration(ctx, "workflow", operation, time.Since(start), status)
}

// RegisterWorkflow records metrics for definition registration.
func (w *workflowUseCaseWithMetrics) RegisterWorkflow(ctx context.Context, definition *domain.Definition) error {
	start := time.Now()
	err := w.next.RegisterWorkflow(ctx, definition)
	w.record(ctx, "register", start, err)
	return err
}

// GetWorkflow delegates without instrumentation.
func (w *workflowUseCaseWithMetrics) GetWorkflow(ctx context.Context, workflowID string) (*domain.Definition, error) {
	return w.next.GetWorkflow(ctx, workflowID)
}

// ListWorkflows delegates without instrumentation.
func (w *workflowUseCaseWithMetrics) ListWorkflows(ctx context.Context) ([]*domain.Definition, error) {
	return w.next.ListWorkflows(ctx)
}

// Execute records metrics for workflow runs.
func (w *workflowUseCaseWithMetrics) Execute(
	ctx context.Context,
	workflowID string,
	input domain.ExecuteInput,
) (*domain.Execution, error) {
	start := time.Now()
	execution, err := w.next.Execute(ctx, workflowID, input)
	w.record(ctx, "execute", start, err)
	return execution, err
}
