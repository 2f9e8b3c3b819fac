package usecase

import (
	"context"
	"time"

	"github.com/allisson/occam/internal/metrics"
	"github.com/allisson/occam/internal/report/domain"
)

// reportUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type reportUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewReportUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewReportUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &reportUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Generate records metrics for report generation.
func (r *reportUseCaseWithMetrics) Generate(ctx context.Context, start, end time.Time) (*domain.Report, error) {
	began := time.Now()
	report, err := r.next.Generate(ctx, start, end)

	status := metrics.OperationStatus(err)
	r.metrics.RecordOperation(ctx, "report", "generate", status)
	r.metrics.RecordDuration(ctx, "report", "generate", time.Since(began), status)

	return report, err
}
